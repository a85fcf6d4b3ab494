package council

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxFieldLen bounds each transcript field. History grows without bound
// across rounds; cutting every field independently caps each round's
// contribution at ~1000 characters regardless of actual content length.
const maxFieldLen = 500

const truncationMarker = "... (truncated)"

// truncateField cuts a string to at most maxFieldLen and appends the
// elision marker when anything was dropped. The cut backs off to a rune
// boundary so arbitrary caller text never yields invalid UTF-8.
func truncateField(s string) string {
	if len(s) <= maxFieldLen {
		return s
	}
	cut := maxFieldLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker
}

// renderTranscript renders the round history as readable text. Rounds are
// assumed to be numbered 1..n in order; the orchestrator does not enforce
// this.
func renderTranscript(history []Round) string {
	var b strings.Builder
	for _, r := range history {
		fmt.Fprintf(&b, "Round %d:\n", r.Round)
		fmt.Fprintf(&b, "Claude: %s\n", truncateField(r.ClaudeInput))
		fmt.Fprintf(&b, "Gemini: %s\n\n", truncateField(r.GeminiResponse))
	}
	return b.String()
}

func buildInitialPrompt(problem string) string {
	var b strings.Builder
	b.WriteString("You are brainstorming with Claude about the following problem:\n\n")
	b.WriteString(problem)
	b.WriteString("\n\nThis is round 1. Give your initial perspective:\n")
	b.WriteString("1. Your recommended approach and why\n")
	b.WriteString("2. Resources, tools, or expertise required\n")
	b.WriteString("3. Key risks and unknowns\n")
	b.WriteString("4. Concrete first steps\n\n")
	b.WriteString("This is a first-round perspective, not a full solution. ")
	b.WriteString("Claude will respond with its own view and the plan will be refined over further rounds.")
	return b.String()
}

func buildCollaborationPrompt(problem string, round int, claudeInput string, history []Round) string {
	var b strings.Builder
	b.WriteString("You are brainstorming with Claude about the following problem:\n\n")
	b.WriteString(problem)
	b.WriteString("\n\n")
	if len(history) > 0 {
		b.WriteString("Discussion so far:\n\n")
		b.WriteString(renderTranscript(history))
	}
	fmt.Fprintf(&b, "This is round %d. Claude's latest input:\n\n", round)
	b.WriteString(claudeInput)
	b.WriteString("\n\nRespond collaboratively:\n")
	b.WriteString("1. Areas where you agree with Claude\n")
	b.WriteString("2. New insights or angles not yet raised\n")
	b.WriteString("3. Concerns or disagreements, with reasoning\n")
	b.WriteString("4. A synthesis of the strongest combined ideas\n")
	b.WriteString("5. Suggested next steps for the following round")
	return b.String()
}

func buildSynthesisPrompt(problem string, history []Round) string {
	var b strings.Builder
	b.WriteString("You brainstormed with Claude about the following problem:\n\n")
	b.WriteString(problem)
	b.WriteString("\n\nFull discussion:\n\n")
	b.WriteString(renderTranscript(history))
	b.WriteString("Produce the final synthesis:\n")
	b.WriteString("1. The best ideas from the discussion, regardless of origin\n")
	b.WriteString("2. A step-by-step implementation plan\n")
	b.WriteString("3. Required resources and expertise\n")
	b.WriteString("4. Risks and their mitigations\n")
	b.WriteString("5. A short conclusion")
	return b.String()
}
