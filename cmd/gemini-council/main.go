// Command gemini-council is an MCP server exposing Gemini-backed tools
// (query, brainstorm, synthesize, analyze, summarize, generate_image) to
// a coding-assistant host. The connection to Gemini is validated with a
// bounded retry loop before the host can issue any invocation; a failed
// validation aborts startup with a non-zero exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/koksalmehmet/gemini-council/internal/archive"
	"github.com/koksalmehmet/gemini-council/internal/config"
	"github.com/koksalmehmet/gemini-council/internal/gemini"
	"github.com/koksalmehmet/gemini-council/internal/logger"
	"github.com/koksalmehmet/gemini-council/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gemini-council: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("gemini-council", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a JSONC config file")
	transport := fs.String("transport", "stdio", "Transport mode: stdio or sse")
	port := fs.String("port", "8080", "Port for the SSE server (only with -transport=sse)")
	baseURL := fs.String("base-url", "", "Base URL for the SSE server (default: http://localhost:<port>)")
	verbose := fs.Bool("verbose", false, "Log progress to stderr")
	debug := fs.Bool("debug", false, "Log debug detail to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *debug:
		logger.SetLevel(logger.LevelDebug)
	case *verbose:
		logger.SetLevel(logger.LevelInfo)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	client, err := gemini.NewClient(gemini.Config{
		APIKey:     cfg.APIKey,
		ProModel:   cfg.ProModel,
		FlashModel: cfg.FlashModel,
		ImageModel: cfg.ImageModel,
		Retry:      cfg.Retry,
	})
	if err != nil {
		return err
	}

	// Nothing may run without a validated connection.
	if err := client.Initialize(context.Background()); err != nil {
		return err
	}

	var arc *archive.Archive
	if cfg.ArchivePath != "" {
		arc, err = archive.Open(cfg.ArchivePath)
		if err != nil {
			return err
		}
		defer arc.Close()
	}

	srv := server.New(cfg, client, arc)
	if *transport == "sse" {
		return srv.ServeSSE(*port, *baseURL)
	}
	return srv.ServeStdio()
}
