package provider

import (
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// buildToolInstructions creates the short tool preamble prepended to the
// system prompt for OpenAI-compatible and Ollama models. Claude receives the
// tool list through the API only.
func buildToolInstructions(tools []mcptypes.Tool) string {
	toolNames := []string{}
	for _, tool := range tools {
		toolNames = append(toolNames, tool.Name)
	}

	return strings.Join([]string{
		"TOOLS: " + strings.Join(toolNames, ", "),
		"",
		"Call tools through the function-calling interface, never by writing the call as text.",
		"You may call several tools in one turn when they do not depend on each other.",
		"",
		"DO NOT:",
		"- List available tools",
		"- Explain what you're about to do before calling a tool",
		"- Combine ask_user_question with other tools you still need answered",
	}, "\n")
}
