// Package gemini wraps the Gemini generateContent REST API behind two
// named model handles ("pro", "flash") with a validated, retried
// connection bootstrap. Generation calls themselves are stateless and
// never retried; retry happens only at initialization time so that tool
// latency stays predictable.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/koksalmehmet/gemini-council/internal/logger"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Default model identifiers, overridable via environment or config file.
const (
	DefaultProModel   = "gemini-1.5-pro"
	DefaultFlashModel = "gemini-1.5-flash"
	DefaultImageModel = "gemini-2.0-flash-exp-image-generation"
)

// validationPrompt is the throwaway prompt used to confirm reachability
// during Initialize.
const validationPrompt = "Test connection"

// RetryPolicy bounds the startup validation loop.
type RetryPolicy struct {
	// MaxAttempts is the total number of validation attempts.
	MaxAttempts int
	// AttemptTimeout bounds each individual attempt. The timeout fires
	// independently of the underlying call's own completion.
	AttemptTimeout time.Duration
	// RetryPause is the fixed pause between failed attempts.
	RetryPause time.Duration
}

// DefaultRetryPolicy returns the standard startup retry budget:
// 3 attempts, 10s per attempt, 2s between failures.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		AttemptTimeout: 10 * time.Second,
		RetryPause:     2 * time.Second,
	}
}

// Config holds client construction parameters. Zero-value fields fall
// back to defaults; only APIKey is mandatory.
type Config struct {
	APIKey     string
	ProModel   string
	FlashModel string
	ImageModel string

	// BaseURL overrides the API endpoint (used by tests).
	BaseURL string

	Retry RetryPolicy
}

// Client owns the two model handles and the connection state machine.
// Safe for concurrent use: all fields except state are immutable after
// construction, and state is mutex-guarded and written only during
// Initialize.
type Client struct {
	apiKey     string
	proModel   string
	flashModel string
	imageModel string
	baseURL    string
	retry      RetryPolicy
	httpClient *http.Client

	mu    sync.Mutex
	state ConnectionState
}

// NewClient constructs a client from cfg. It fails fast with
// ErrMissingCredential when no API key is configured; everything else
// falls back to defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}
	if cfg.ProModel == "" {
		cfg.ProModel = DefaultProModel
	}
	if cfg.FlashModel == "" {
		cfg.FlashModel = DefaultFlashModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	return &Client{
		apiKey:     cfg.APIKey,
		proModel:   cfg.ProModel,
		flashModel: cfg.FlashModel,
		imageModel: cfg.ImageModel,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		retry:      cfg.Retry,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Model returns the configured model identifier for a variant.
func (c *Client) Model(v Variant) string {
	if v == Flash {
		return c.flashModel
	}
	return c.proModel
}

func (c *Client) setState(s ConnectionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Initialize validates upstream reachability with a throwaway generation
// call against the flash handle, under the retry policy. It must be
// called exactly once, before any generation operation; after it returns
// an error the client is unusable (StateFailed is terminal).
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUninitialized {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("gemini: initialize called in state %q", state)
	}
	c.state = StateConnecting
	c.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(c.retry.RetryPause):
			case <-ctx.Done():
				c.setState(StateFailed)
				return fmt.Errorf("gemini: initialization cancelled: %w", ctx.Err())
			}
		}
		logger.Debug("validating connection to %s (attempt %d/%d)", c.flashModel, attempt, c.retry.MaxAttempts)
		if err := c.validate(ctx); err != nil {
			lastErr = err
			logger.Info("connection attempt %d/%d failed: %v", attempt, c.retry.MaxAttempts, err)
			continue
		}
		c.setState(StateReady)
		logger.Info("connected: pro=%s flash=%s", c.proModel, c.flashModel)
		return nil
	}
	c.setState(StateFailed)
	return fmt.Errorf("%w after %d attempts: %v", ErrConnectionExhausted, c.retry.MaxAttempts, lastErr)
}

// validate runs one bounded validation attempt. The upstream call runs in
// its own goroutine and races the attempt deadline; when the deadline wins
// the late result lands on a buffered channel and is discarded, so it can
// never retroactively mark the attempt successful.
func (c *Client) validate(ctx context.Context) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.retry.AttemptTimeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := c.generate(attemptCtx, c.flashModel, validationPrompt)
		done <- outcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return out.err
		}
		if strings.TrimSpace(out.text) == "" {
			return fmt.Errorf("gemini: validation returned empty response")
		}
		return nil
	case <-attemptCtx.Done():
		return fmt.Errorf("gemini: validation timed out after %s", c.retry.AttemptTimeout)
	}
}

// Generate sends prompt to the selected model handle and returns the
// extracted text. It requires a completed Initialize and performs no
// retry of its own: call-level retry policy belongs to the host.
func (c *Client) Generate(ctx context.Context, v Variant, prompt string) (string, error) {
	if c.State() != StateReady {
		return "", ErrNotReady
	}
	return c.generate(ctx, c.Model(v), prompt)
}

// generateRequest is the request body for the generateContent endpoint.
type generateRequest struct {
	Contents         []contentPayload  `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type contentPayload struct {
	Role  string        `json:"role,omitempty"`
	Parts []partPayload `json:"parts"`
}

type partPayload struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

func (c *Client) generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := c.post(ctx, model, generateRequest{
		Contents: []contentPayload{
			{Role: "user", Parts: []partPayload{{Text: prompt}}},
		},
	})
	if err != nil {
		return "", err
	}

	text := gjson.GetBytes(body, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		return "", fmt.Errorf("%w: no text in response (body: %s)", ErrUpstream, truncate(string(body), 200))
	}
	return text.String(), nil
}

// post issues one generateContent request against model and returns the
// raw response body. All failure modes wrap ErrUpstream.
func (c *Client) post(ctx context.Context, model string, reqBody generateRequest) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrUpstream, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = truncate(string(body), 200)
		}
		return nil, fmt.Errorf("%w: %s (status %d): %s", ErrUpstream, model, resp.StatusCode, msg)
	}
	return body, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
