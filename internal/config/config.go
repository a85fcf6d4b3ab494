// Package config assembles server configuration from the environment and
// an optional JSONC config file. Model identifiers follow env-first
// precedence: environment variables win over file values, and both fall
// back to hardcoded defaults. The API key comes only from the
// environment.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	jsonc "github.com/muhammadmuzzammil1998/jsonc"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/koksalmehmet/gemini-council/internal/gemini"
)

// Environment variable names consumed at startup.
const (
	EnvAPIKey     = "GEMINI_API_KEY"
	EnvProModel   = "GEMINI_PRO_MODEL"
	EnvFlashModel = "GEMINI_FLASH_MODEL"
	EnvImageModel = "GEMINI_IMAGE_MODEL"
)

// Config is the fully resolved server configuration.
type Config struct {
	APIKey     string
	ProModel   string
	FlashModel string
	ImageModel string

	// EnabledTools holds doublestar glob patterns selecting which tools
	// get registered. Empty means all tools.
	EnabledTools []string

	// ArchivePath locates the invocation archive database. Empty
	// disables archiving.
	ArchivePath string

	// OutputDir is where generated images are written.
	OutputDir string

	Retry gemini.RetryPolicy
}

// fileConfig is the JSONC config file shape. All fields are optional.
type fileConfig struct {
	ProModel     string   `json:"proModel,omitempty"`
	FlashModel   string   `json:"flashModel,omitempty"`
	ImageModel   string   `json:"imageModel,omitempty"`
	EnabledTools []string `json:"enabledTools,omitempty"`
	ArchivePath  string   `json:"archivePath,omitempty"`
	OutputDir    string   `json:"outputDir,omitempty"`
	Retry        *struct {
		MaxAttempts       int `json:"maxAttempts,omitempty"`
		AttemptTimeoutSec int `json:"attemptTimeoutSec,omitempty"`
		RetryPauseSec     int `json:"retryPauseSec,omitempty"`
	} `json:"retry,omitempty"`
}

// Load resolves the configuration. path may be empty (no config file).
// The file is validated against the embedded schema before use, so a
// typoed key fails loudly instead of being silently ignored.
func Load(path string) (Config, error) {
	cfg := Config{
		ProModel:   gemini.DefaultProModel,
		FlashModel: gemini.DefaultFlashModel,
		ImageModel: gemini.DefaultImageModel,
		OutputDir:  ".",
		Retry:      gemini.DefaultRetryPolicy(),
	}

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	// Environment wins over file values.
	cfg.APIKey = os.Getenv(EnvAPIKey)
	if m := os.Getenv(EnvProModel); m != "" {
		cfg.ProModel = m
	}
	if m := os.Getenv(EnvFlashModel); m != "" {
		cfg.FlashModel = m
	}
	if m := os.Getenv(EnvImageModel); m != "" {
		cfg.ImageModel = m
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	clean := jsonc.ToJSON(raw)

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(clean))
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := validateDocument(doc); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(clean, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.ProModel != "" {
		cfg.ProModel = fc.ProModel
	}
	if fc.FlashModel != "" {
		cfg.FlashModel = fc.FlashModel
	}
	if fc.ImageModel != "" {
		cfg.ImageModel = fc.ImageModel
	}
	if len(fc.EnabledTools) > 0 {
		cfg.EnabledTools = fc.EnabledTools
	}
	if fc.ArchivePath != "" {
		cfg.ArchivePath = fc.ArchivePath
	}
	if fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}
	if fc.Retry != nil {
		if fc.Retry.MaxAttempts > 0 {
			cfg.Retry.MaxAttempts = fc.Retry.MaxAttempts
		}
		if fc.Retry.AttemptTimeoutSec > 0 {
			cfg.Retry.AttemptTimeout = time.Duration(fc.Retry.AttemptTimeoutSec) * time.Second
		}
		if fc.Retry.RetryPauseSec > 0 {
			cfg.Retry.RetryPause = time.Duration(fc.Retry.RetryPauseSec) * time.Second
		}
	}
	return nil
}

// ToolEnabled reports whether a tool name matches the enabled patterns.
// An empty pattern list enables everything; a malformed pattern never
// matches.
func (c Config) ToolEnabled(name string) bool {
	if len(c.EnabledTools) == 0 {
		return true
	}
	for _, pattern := range c.EnabledTools {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
