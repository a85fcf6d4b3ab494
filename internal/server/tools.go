package server

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// historyItemSchema describes one element of the brainstorm history
// array: a prior round as the caller recorded it.
func historyItemSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"round": map[string]interface{}{
				"type":        "integer",
				"description": "Round number, starting at 1 with no gaps",
			},
			"claudeInput": map[string]interface{}{
				"type":        "string",
				"description": "Claude's input for that round",
			},
			"geminiResponse": map[string]interface{}{
				"type":        "string",
				"description": "Gemini's response for that round",
			},
		},
		"required": []string{"round", "claudeInput", "geminiResponse"},
	}
}

func queryTool() mcp.Tool {
	return mcp.NewTool("query",
		mcp.WithDescription("Ask Gemini a one-off question and return its answer."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("The question or instruction to send"),
		),
		mcp.WithString("model",
			mcp.Description("Model variant: 'pro' (default) or 'flash'"),
		),
	)
}

func brainstormTool() mcp.Tool {
	return mcp.NewTool("brainstorm",
		mcp.WithDescription("Run one round of a collaborative brainstorming session with Gemini. "+
			"Call with round=1 and no history to get Gemini's initial perspective; on later rounds "+
			"pass your own input as claudeInput plus the full history of prior rounds. Append each "+
			"round's result to the history you send next time — the server keeps no session state."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("The problem being brainstormed"),
		),
		mcp.WithNumber("round",
			mcp.Description("Round number, starting at 1 (default: 1)"),
		),
		mcp.WithString("claudeInput",
			mcp.Description("Your contribution for this round. Required when round > 1."),
		),
		mcp.WithArray("history",
			mcp.Description("All prior rounds, in order (default: empty)"),
			mcp.Items(historyItemSchema()),
		),
	)
}

func synthesizeTool() mcp.Tool {
	return mcp.NewTool("synthesize",
		mcp.WithDescription("Produce the final synthesis of a brainstorming session: best ideas, "+
			"step-by-step plan, resources, risks and mitigations, and a conclusion."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("The problem that was brainstormed"),
		),
		mcp.WithArray("history",
			mcp.Required(),
			mcp.Description("All rounds of the session, in order. Must not be empty."),
			mcp.Items(historyItemSchema()),
		),
	)
}

func analyzeTool() mcp.Tool {
	return mcp.NewTool("analyze",
		mcp.WithDescription("Have Gemini analyze a piece of text or code in depth."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The content to analyze"),
		),
		mcp.WithString("focus",
			mcp.Description("Optional aspect to focus the analysis on"),
		),
	)
}

func summarizeTool() mcp.Tool {
	return mcp.NewTool("summarize",
		mcp.WithDescription("Have Gemini summarize a piece of text."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The content to summarize"),
		),
		mcp.WithString("length",
			mcp.Description("Summary length: 'brief' (default) or 'detailed'"),
		),
	)
}

func generateImageTool() mcp.Tool {
	return mcp.NewTool("generate_image",
		mcp.WithDescription("Generate an image from a text prompt and write it to the output directory. "+
			"Returns the path of the written file."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("Description of the image to generate"),
		),
	)
}

func statusTool() mcp.Tool {
	return mcp.NewTool("server_status",
		mcp.WithDescription("Report the server's connection state, configured models, and invocation counters."),
	)
}
