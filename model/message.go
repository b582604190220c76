package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type BlockType string

const (
	BlockText             BlockType = "text"
	BlockThinking         BlockType = "thinking"
	BlockRedactedThinking BlockType = "redacted_thinking"
	BlockToolUse          BlockType = "tool_use"
	BlockToolResult       BlockType = "tool_result"
)

// ContentBlock is one element of a turn's payload. Exactly the fields that
// belong to Type are populated.
type ContentBlock struct {
	Type BlockType `json:"type"`

	Text string `json:"text,omitempty"`

	// Thinking blocks keep the provider signature so they can be sent back
	// unchanged on the next call.
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`
	Data      string `json:"data,omitempty"`

	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

func ToolUseBlock(call ToolCall) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ToolCall: &call}
}

func ToolResultBlock(result ToolResult) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolResult: &result}
}

// Message is one turn of a transcript.
type Message struct {
	Role      Role           `json:"role"`
	Content   []ContentBlock `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}, Timestamp: time.Now()}
}

// Text concatenates the text blocks of the message.
func (m Message) Text() string {
	var out string
	for _, b := range m.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// ToolCalls returns the tool invocations of the message in order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, b := range m.Content {
		if b.Type == BlockToolUse && b.ToolCall != nil {
			calls = append(calls, *b.ToolCall)
		}
	}
	return calls
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult answers one ToolCall. Content is any JSON-serializable value.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    any    `json:"content,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`
	Error      string `json:"error,omitempty"`

	// StepSummary is a progress line the executor chose to emit. It is not
	// sent to the model.
	StepSummary string `json:"-"`
}

// Text renders the result the way the model receives it.
func (r ToolResult) Text() string {
	if r.IsError {
		data, _ := json.Marshal(map[string]string{"error": r.Error})
		return string(data)
	}
	if s, ok := r.Content.(string); ok {
		return s
	}
	data, err := json.Marshal(r.Content)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"error": fmt.Sprintf("unserializable tool result: %v", err)})
	}
	return string(data)
}

// ValidateTranscript checks the turn ordering LLM APIs require: the first
// turn is the user's, roles alternate, and every assistant turn with tool
// invocations is followed by a user turn holding exactly one result per
// invocation id.
func ValidateTranscript(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("transcript is empty")
	}
	if messages[0].Role != RoleUser {
		return fmt.Errorf("transcript must start with a user turn, got %q", messages[0].Role)
	}

	for i := 1; i < len(messages); i++ {
		if messages[i].Role == messages[i-1].Role {
			return fmt.Errorf("turn %d repeats role %q", i, messages[i].Role)
		}
	}

	for i, msg := range messages {
		if msg.Role != RoleAssistant {
			continue
		}
		calls := msg.ToolCalls()
		if len(calls) == 0 {
			continue
		}
		if i+1 >= len(messages) {
			return fmt.Errorf("turn %d has %d tool invocation(s) without results", i, len(calls))
		}

		pending := make(map[string]bool, len(calls))
		for _, c := range calls {
			pending[c.ID] = true
		}
		for _, b := range messages[i+1].Content {
			if b.Type != BlockToolResult || b.ToolResult == nil {
				continue
			}
			if !pending[b.ToolResult.ToolCallID] {
				return fmt.Errorf("turn %d has unexpected or duplicate result for %q", i+1, b.ToolResult.ToolCallID)
			}
			delete(pending, b.ToolResult.ToolCallID)
		}
		if len(pending) > 0 {
			return fmt.Errorf("turn %d is missing %d tool result(s)", i+1, len(pending))
		}
	}

	return nil
}
