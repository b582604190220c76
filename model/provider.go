package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// StopReason tells why the model stopped generating a turn.
type StopReason string

const (
	StopCompleted StopReason = "completed"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// Request is one call to the language model service.
type Request struct {
	SystemPrompt    string
	Tools           []mcptypes.Tool
	Transcript      []Message
	ThinkingEnabled bool
	ThinkingBudget  int
	MaxTokens       int
}

// Response is the assistant turn produced for a Request.
type Response struct {
	Content    []ContentBlock
	StopReason StopReason
}

// Provider abstracts LLM provider implementations (Anthropic, OpenAI, Ollama)
// using provider-agnostic transcript types.
//
// This interface is defined in the model package (not provider package) so the
// agent can depend on it without importing any SDK.
type Provider interface {
	// Invoke sends the transcript with the available tools and returns the
	// complete assistant turn.
	Invoke(ctx context.Context, req Request) (*Response, error)

	// GetModel returns the currently selected model name.
	GetModel() string

	// SetModel changes the active model.
	SetModel(model string)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
