package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/koksalmehmet/gemini-council/internal/config"
	"github.com/koksalmehmet/gemini-council/internal/gemini"
)

// stubBackend satisfies Backend with canned replies.
type stubBackend struct {
	prompts   []string
	variants  []gemini.Variant
	reply     string
	err       error
	imageData []byte
	imageMime string
}

func (s *stubBackend) Generate(_ context.Context, v gemini.Variant, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.variants = append(s.variants, v)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubBackend) GenerateImage(_ context.Context, prompt string) ([]byte, string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return nil, "", s.err
	}
	return s.imageData, s.imageMime, nil
}

func (s *stubBackend) State() gemini.ConnectionState { return gemini.StateReady }

func (s *stubBackend) Model(v gemini.Variant) string {
	if v == gemini.Flash {
		return "stub-flash"
	}
	return "stub-pro"
}

func newTestServer(t *testing.T, backend *stubBackend) *Server {
	t.Helper()
	cfg := config.Config{OutputDir: t.TempDir()}
	return New(cfg, backend, nil)
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultString(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestHandleQuery(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]interface{}
		wantErr     bool
		wantVariant gemini.Variant
	}{
		{
			name:        "defaults to pro",
			args:        map[string]interface{}{"prompt": "hello"},
			wantVariant: gemini.Pro,
		},
		{
			name:        "flash selection",
			args:        map[string]interface{}{"prompt": "hello", "model": "flash"},
			wantVariant: gemini.Flash,
		},
		{
			name:    "missing prompt",
			args:    map[string]interface{}{},
			wantErr: true,
		},
		{
			name:    "unknown model",
			args:    map[string]interface{}{"prompt": "hello", "model": "ultra"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &stubBackend{reply: "answer"}
			s := newTestServer(t, backend)

			res, err := s.handleQuery(context.Background(), callRequest("query", tt.args))
			if err != nil {
				t.Fatalf("handler returned transport error: %v", err)
			}
			if res.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v (%s)", res.IsError, tt.wantErr, resultString(t, res))
			}
			if tt.wantErr {
				if len(backend.prompts) != 0 {
					t.Errorf("upstream calls = %d, want 0", len(backend.prompts))
				}
				return
			}
			if backend.variants[0] != tt.wantVariant {
				t.Errorf("variant = %v, want %v", backend.variants[0], tt.wantVariant)
			}
			if got := resultString(t, res); got != "answer" {
				t.Errorf("result = %q, want %q", got, "answer")
			}
		})
	}
}

func TestHandleBrainstorm(t *testing.T) {
	t.Run("round 1", func(t *testing.T) {
		backend := &stubBackend{reply: "A"}
		s := newTestServer(t, backend)

		res, err := s.handleBrainstorm(context.Background(), callRequest("brainstorm", map[string]interface{}{
			"prompt": "Build a todo app",
		}))
		if err != nil {
			t.Fatalf("handler: %v", err)
		}
		if res.IsError {
			t.Fatalf("unexpected error result: %s", resultString(t, res))
		}
		if got := resultString(t, res); got != "A" {
			t.Errorf("result = %q, want %q", got, "A")
		}
	})

	t.Run("round 2 without claudeInput is a caller error", func(t *testing.T) {
		backend := &stubBackend{reply: "B"}
		s := newTestServer(t, backend)

		res, err := s.handleBrainstorm(context.Background(), callRequest("brainstorm", map[string]interface{}{
			"prompt": "Build a todo app",
			"round":  float64(2),
		}))
		if err != nil {
			t.Fatalf("handler: %v", err)
		}
		if !res.IsError {
			t.Fatal("want error result")
		}
		if msg := resultString(t, res); !strings.Contains(msg, "claudeInput") {
			t.Errorf("error %q does not point at the missing input", msg)
		}
		if len(backend.prompts) != 0 {
			t.Errorf("upstream calls = %d, want 0", len(backend.prompts))
		}
	})

	t.Run("round 2 with history", func(t *testing.T) {
		backend := &stubBackend{reply: "B"}
		s := newTestServer(t, backend)

		// History arrives the way the JSON transport delivers it:
		// generic maps with float64 numbers.
		res, err := s.handleBrainstorm(context.Background(), callRequest("brainstorm", map[string]interface{}{
			"prompt":      "Build a todo app",
			"round":       float64(2),
			"claudeInput": "Y",
			"history": []interface{}{
				map[string]interface{}{
					"round":          float64(1),
					"claudeInput":    "X",
					"geminiResponse": "A",
				},
			},
		}))
		if err != nil {
			t.Fatalf("handler: %v", err)
		}
		if res.IsError {
			t.Fatalf("unexpected error result: %s", resultString(t, res))
		}

		prompt := backend.prompts[0]
		for _, want := range []string{"Round 1", "Claude: X", "Gemini: A", "Y"} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
	})

	t.Run("malformed history", func(t *testing.T) {
		backend := &stubBackend{}
		s := newTestServer(t, backend)

		res, err := s.handleBrainstorm(context.Background(), callRequest("brainstorm", map[string]interface{}{
			"prompt":  "p",
			"history": "not an array",
		}))
		if err != nil {
			t.Fatalf("handler: %v", err)
		}
		if !res.IsError {
			t.Fatal("want error result for malformed history")
		}
		if len(backend.prompts) != 0 {
			t.Errorf("upstream calls = %d, want 0", len(backend.prompts))
		}
	})

	t.Run("upstream failure becomes an error payload", func(t *testing.T) {
		backend := &stubBackend{err: fmt.Errorf("%w: boom", gemini.ErrUpstream)}
		s := newTestServer(t, backend)

		res, err := s.handleBrainstorm(context.Background(), callRequest("brainstorm", map[string]interface{}{
			"prompt": "p",
		}))
		if err != nil {
			t.Fatalf("handler must not return a transport error: %v", err)
		}
		if !res.IsError {
			t.Fatal("want error result")
		}
		if msg := resultString(t, res); !strings.Contains(msg, "unavailable") {
			t.Errorf("error %q does not read as a service failure", msg)
		}
	})
}

func TestHandleSynthesize(t *testing.T) {
	t.Run("empty history is a caller error", func(t *testing.T) {
		backend := &stubBackend{}
		s := newTestServer(t, backend)

		res, err := s.handleSynthesize(context.Background(), callRequest("synthesize", map[string]interface{}{
			"prompt":  "p",
			"history": []interface{}{},
		}))
		if err != nil {
			t.Fatalf("handler: %v", err)
		}
		if !res.IsError {
			t.Fatal("want error result")
		}
		if len(backend.prompts) != 0 {
			t.Errorf("upstream calls = %d, want 0", len(backend.prompts))
		}
	})

	t.Run("success", func(t *testing.T) {
		backend := &stubBackend{reply: "the plan"}
		s := newTestServer(t, backend)

		res, err := s.handleSynthesize(context.Background(), callRequest("synthesize", map[string]interface{}{
			"prompt": "p",
			"history": []interface{}{
				map[string]interface{}{
					"round":          float64(1),
					"claudeInput":    "x",
					"geminiResponse": "y",
				},
			},
		}))
		if err != nil {
			t.Fatalf("handler: %v", err)
		}
		if res.IsError {
			t.Fatalf("unexpected error result: %s", resultString(t, res))
		}
		if got := resultString(t, res); got != "the plan" {
			t.Errorf("result = %q, want %q", got, "the plan")
		}
	})
}

func TestHandleSummarizeUsesFlash(t *testing.T) {
	backend := &stubBackend{reply: "short"}
	s := newTestServer(t, backend)

	res, err := s.handleSummarize(context.Background(), callRequest("summarize", map[string]interface{}{
		"content": "a very long document",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultString(t, res))
	}
	if backend.variants[0] != gemini.Flash {
		t.Errorf("variant = %v, want Flash", backend.variants[0])
	}
}

func TestHandleGenerateImage(t *testing.T) {
	backend := &stubBackend{
		imageData: []byte{0x89, 'P', 'N', 'G'},
		imageMime: "image/png",
	}
	s := newTestServer(t, backend)

	res, err := s.handleGenerateImage(context.Background(), callRequest("generate_image", map[string]interface{}{
		"prompt": "a lighthouse",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultString(t, res))
	}
	msg := resultString(t, res)
	if !strings.Contains(msg, ".png") || !strings.Contains(msg, "4 bytes") {
		t.Errorf("result %q does not describe the written file", msg)
	}
}

func TestHandleStatus(t *testing.T) {
	backend := &stubBackend{}
	s := newTestServer(t, backend)

	res, err := s.handleStatus(context.Background(), callRequest("server_status", nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultString(t, res))
	}
	msg := resultString(t, res)
	for _, want := range []string{"ready", "stub-pro", "stub-flash", "archive disabled"} {
		if !strings.Contains(msg, want) {
			t.Errorf("status %q missing %q", msg, want)
		}
	}
}

func TestUpstreamErrorMapping(t *testing.T) {
	res := upstreamError(gemini.ErrNotReady)
	if !res.IsError {
		t.Fatal("want error result")
	}
	if msg := resultString(t, res); !strings.Contains(msg, "not initialized") {
		t.Errorf("message %q does not mention initialization", msg)
	}

	res = upstreamError(errors.New("socket closed"))
	if msg := resultString(t, res); !strings.Contains(msg, "unavailable") {
		t.Errorf("message %q does not read as a service failure", msg)
	}
}
