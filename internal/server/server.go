// Package server wires the MCP server: tool declarations, argument
// decoding, dispatch into the gemini client and the council
// orchestrator, and mapping of failures to structured error payloads.
// Per-call failures never terminate the process; only startup failures
// (handled in cmd) do.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/koksalmehmet/gemini-council/internal/archive"
	"github.com/koksalmehmet/gemini-council/internal/config"
	"github.com/koksalmehmet/gemini-council/internal/council"
	"github.com/koksalmehmet/gemini-council/internal/gemini"
	"github.com/koksalmehmet/gemini-council/internal/logger"
)

const (
	// Name is the server name reported during the MCP handshake.
	Name = "gemini-council"
	// Version is set at build time via ldflags.
	Version = "0.1.0"
)

// Backend is the slice of the gemini client the tool handlers need.
// *gemini.Client satisfies it; tests substitute a stub.
type Backend interface {
	Generate(ctx context.Context, v gemini.Variant, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
	State() gemini.ConnectionState
	Model(v gemini.Variant) string
}

// Server ties the MCP transport to the tool handlers.
type Server struct {
	cfg     config.Config
	backend Backend
	orc     *council.Orchestrator
	arc     *archive.Archive
	mcp     *mcpserver.MCPServer
}

// New builds the server and registers all tools enabled by the
// configuration. The backend must already be initialized.
func New(cfg config.Config, backend Backend, arc *archive.Archive) *Server {
	s := &Server{
		cfg:     cfg,
		backend: backend,
		orc:     council.NewOrchestrator(backend),
		arc:     arc,
		mcp: mcpserver.NewMCPServer(
			Name,
			Version,
			mcpserver.WithToolCapabilities(true),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

type toolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

func (s *Server) registerTools() {
	defs := []struct {
		tool    mcp.Tool
		handler toolHandler
	}{
		{queryTool(), s.handleQuery},
		{brainstormTool(), s.handleBrainstorm},
		{synthesizeTool(), s.handleSynthesize},
		{analyzeTool(), s.handleAnalyze},
		{summarizeTool(), s.handleSummarize},
		{generateImageTool(), s.handleGenerateImage},
		{statusTool(), s.handleStatus},
	}
	for _, d := range defs {
		if !s.cfg.ToolEnabled(d.tool.Name) {
			logger.Info("tool %s disabled by config", d.tool.Name)
			continue
		}
		s.mcp.AddTool(d.tool, mcpserver.ToolHandlerFunc(s.instrument(d.tool.Name, d.handler)))
	}
}

// instrument wraps a handler with invocation ID assignment, timing,
// logging, and archive recording.
func (s *Server) instrument(name string, h toolHandler) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := "inv_" + uuid.New().String()[:8]
		start := time.Now()
		logger.Debug("%s: tool %s invoked", id, name)

		res, err := h(ctx, request)

		elapsed := time.Since(start)
		inv := archive.Invocation{
			ID:       id,
			Tool:     name,
			Round:    roundHint(request),
			Duration: elapsed,
			IsError:  err != nil || (res != nil && res.IsError),
		}
		if inv.IsError {
			inv.Detail = truncateDetail(resultText(res), 200)
			logger.Error("%s: tool %s failed after %s: %s", id, name, elapsed.Round(time.Millisecond), inv.Detail)
		} else {
			logger.Info("%s: tool %s completed in %s", id, name, elapsed.Round(time.Millisecond))
		}
		if recErr := s.arc.Record(inv); recErr != nil {
			logger.Error("%s: archive write failed: %v", id, recErr)
		}
		return res, err
	}
}

// roundHint extracts the round argument when the tool carries one, for
// the archive row. Zero when absent.
func roundHint(request mcp.CallToolRequest) int {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return 0
	}
	if r, ok := args["round"].(float64); ok {
		return int(r)
	}
	return 0
}

func resultText(res *mcp.CallToolResult) string {
	if res == nil || len(res.Content) == 0 {
		return ""
	}
	if tc, ok := res.Content[0].(mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func truncateDetail(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// ServeStdio blocks serving the MCP protocol over stdin/stdout.
func (s *Server) ServeStdio() error {
	logger.Info("serving MCP over stdio")
	return mcpserver.ServeStdio(s.mcp)
}

// ServeSSE blocks serving the MCP protocol over SSE on the given port.
func (s *Server) ServeSSE(port, baseURL string) error {
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", port)
	}
	sse := mcpserver.NewSSEServer(s.mcp,
		mcpserver.WithBaseURL(baseURL),
		mcpserver.WithKeepAlive(true),
	)
	logger.Info("serving MCP over SSE on :%s (base URL %s)", port, baseURL)
	return http.ListenAndServe(":"+port, sse)
}
