// Package council implements the multi-round brainstorming orchestrator.
// Each call is self-contained: the caller owns the growing round history
// and replays it on every invocation, so the orchestrator holds no
// session state of its own.
package council

// Round is one caller-input/model-response exchange within a session.
// The JSON tags match the history element shape of the brainstorm tool.
type Round struct {
	Round          int    `json:"round"`
	ClaudeInput    string `json:"claudeInput"`
	GeminiResponse string `json:"geminiResponse"`
}
