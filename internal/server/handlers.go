package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/koksalmehmet/gemini-council/internal/council"
	"github.com/koksalmehmet/gemini-council/internal/gemini"
)

func (s *Server) handleQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	prompt, _ := args["prompt"].(string)
	if prompt == "" {
		return mcp.NewToolResultError("prompt parameter is required"), nil
	}

	variant := gemini.Pro
	if m, _ := args["model"].(string); m != "" {
		switch m {
		case "pro":
			variant = gemini.Pro
		case "flash":
			variant = gemini.Flash
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown model %q (want 'pro' or 'flash')", m)), nil
		}
	}

	text, err := s.backend.Generate(ctx, variant, prompt)
	if err != nil {
		return upstreamError(err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleBrainstorm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	problem, _ := args["prompt"].(string)
	if problem == "" {
		return mcp.NewToolResultError("prompt parameter is required"), nil
	}

	round := 1
	if r, ok := args["round"].(float64); ok {
		round = int(r)
	}
	claudeInput, _ := args["claudeInput"].(string)

	history, err := decodeHistory(args["history"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := s.orc.RunRound(ctx, problem, round, claudeInput, history)
	if err != nil {
		return orchestratorError(err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSynthesize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	problem, _ := args["prompt"].(string)
	if problem == "" {
		return mcp.NewToolResultError("prompt parameter is required"), nil
	}

	history, err := decodeHistory(args["history"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := s.orc.RunSynthesis(ctx, problem, history)
	if err != nil {
		return orchestratorError(err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	content, _ := args["content"].(string)
	if content == "" {
		return mcp.NewToolResultError("content parameter is required"), nil
	}
	focus, _ := args["focus"].(string)

	var b strings.Builder
	b.WriteString("Analyze the following content")
	if focus != "" {
		fmt.Fprintf(&b, ", focusing on %s", focus)
	}
	b.WriteString(":\n\n")
	b.WriteString(content)

	text, err := s.backend.Generate(ctx, gemini.Pro, b.String())
	if err != nil {
		return upstreamError(err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSummarize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	content, _ := args["content"].(string)
	if content == "" {
		return mcp.NewToolResultError("content parameter is required"), nil
	}

	instruction := "Summarize the following content briefly:"
	if l, _ := args["length"].(string); l == "detailed" {
		instruction = "Summarize the following content in detail, preserving its structure:"
	}

	text, err := s.backend.Generate(ctx, gemini.Flash, instruction+"\n\n"+content)
	if err != nil {
		return upstreamError(err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleGenerateImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	prompt, _ := args["prompt"].(string)
	if prompt == "" {
		return mcp.NewToolResultError("prompt parameter is required"), nil
	}

	data, mimeType, err := s.backend.GenerateImage(ctx, prompt)
	if err != nil {
		return upstreamError(err), nil
	}

	ext := "png"
	if parts := strings.SplitN(mimeType, "/", 2); len(parts) == 2 && parts[1] != "" {
		ext = parts[1]
	}
	name := fmt.Sprintf("gemini-image-%s.%s", uuid.New().String()[:8], ext)
	path := filepath.Join(s.cfg.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("write image: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Image written to %s (%d bytes, %s)", path, len(data), mimeType)), nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.arc.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read archive: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "connection: %s\n", s.backend.State())
	fmt.Fprintf(&b, "pro model: %s\n", s.backend.Model(gemini.Pro))
	fmt.Fprintf(&b, "flash model: %s\n", s.backend.Model(gemini.Flash))
	if s.arc.Enabled() {
		fmt.Fprintf(&b, "invocations: %d (%d errored)\n", stats.Total, stats.Errors)
	} else {
		b.WriteString("invocations: archive disabled\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// decodeHistory maps the raw history argument onto []council.Round via a
// JSON round-trip, which tolerates the host sending numbers as float64.
func decodeHistory(raw interface{}) ([]council.Round, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("history parameter is not valid: %v", err)
	}
	var history []council.Round
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("history parameter has the wrong shape: %v", err)
	}
	return history, nil
}

// orchestratorError renders caller mistakes and upstream failures with
// distinct messages so the host can tell them apart.
func orchestratorError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, council.ErrMissingInput),
		errors.Is(err, council.ErrInvalidRound),
		errors.Is(err, council.ErrEmptyHistory):
		return mcp.NewToolResultError(err.Error())
	default:
		return upstreamError(err)
	}
}

func upstreamError(err error) *mcp.CallToolResult {
	if errors.Is(err, gemini.ErrNotReady) {
		return mcp.NewToolResultError("Gemini connection is not initialized")
	}
	return mcp.NewToolResultError(fmt.Sprintf("Gemini is unavailable: %v", err))
}
