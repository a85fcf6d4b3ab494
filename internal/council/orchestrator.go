package council

import (
	"context"
	"errors"

	"github.com/koksalmehmet/gemini-council/internal/gemini"
	"github.com/koksalmehmet/gemini-council/internal/logger"
)

// ErrMissingInput is returned when a round after the first arrives
// without Claude's input. A caller mistake, not a system fault: the tool
// layer renders it as "provide input" rather than "service unavailable".
var ErrMissingInput = errors.New("council: claudeInput is required for rounds after the first")

// ErrEmptyHistory is returned when synthesis is requested with no rounds.
var ErrEmptyHistory = errors.New("council: synthesis requires a non-empty history")

// ErrInvalidRound is returned for round numbers below 1.
var ErrInvalidRound = errors.New("council: round must be >= 1")

// Generator is the upstream generation operation the orchestrator needs.
// *gemini.Client satisfies it; tests substitute a stub.
type Generator interface {
	Generate(ctx context.Context, v gemini.Variant, prompt string) (string, error)
}

// Orchestrator turns a (problem, round, input, history) tuple into
// exactly one model call. It is stateless and safe for concurrent use.
type Orchestrator struct {
	gen Generator
}

// NewOrchestrator returns an orchestrator backed by gen.
func NewOrchestrator(gen Generator) *Orchestrator {
	return &Orchestrator{gen: gen}
}

// RunRound executes one brainstorming round and returns the model's
// reply verbatim. Round 1 ignores claudeInput and builds the initial
// perspective prompt; later rounds require claudeInput and build the
// collaboration prompt over the truncated transcript. The caller is
// responsible for appending the returned text to the history it passes
// into the next round.
func (o *Orchestrator) RunRound(ctx context.Context, problem string, round int, claudeInput string, history []Round) (string, error) {
	if round < 1 {
		return "", ErrInvalidRound
	}

	var prompt string
	if round == 1 {
		prompt = buildInitialPrompt(problem)
	} else {
		if claudeInput == "" {
			return "", ErrMissingInput
		}
		prompt = buildCollaborationPrompt(problem, round, claudeInput, history)
	}

	logger.Debug("brainstorm round %d: prompt %d chars, %d prior rounds", round, len(prompt), len(history))
	return o.gen.Generate(ctx, gemini.Pro, prompt)
}

// RunSynthesis executes the final single-shot synthesis over the full
// round history. The history must be non-empty.
func (o *Orchestrator) RunSynthesis(ctx context.Context, problem string, history []Round) (string, error) {
	if len(history) == 0 {
		return "", ErrEmptyHistory
	}

	prompt := buildSynthesisPrompt(problem, history)
	logger.Debug("synthesis: prompt %d chars over %d rounds", len(prompt), len(history))
	return o.gen.Generate(ctx, gemini.Pro, prompt)
}
