package testutil

import (
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/husain-clintel/Pharmascribe-sub000/model"
)

// TextResponse is a completed turn holding a single text block.
func TextResponse(text string) *model.Response {
	return &model.Response{
		Content:    []model.ContentBlock{model.TextBlock(text)},
		StopReason: model.StopCompleted,
	}
}

// ToolUseResponse is a tool_use turn invoking calls in order.
func ToolUseResponse(calls ...model.ToolCall) *model.Response {
	blocks := make([]model.ContentBlock, 0, len(calls))
	for _, c := range calls {
		blocks = append(blocks, model.ToolUseBlock(c))
	}
	return &model.Response{Content: blocks, StopReason: model.StopToolUse}
}

// WithThinking prepends a thinking block to resp.
func WithThinking(resp *model.Response, thinking string) *model.Response {
	out := *resp
	out.Content = append([]model.ContentBlock{{Type: model.BlockThinking, Thinking: thinking, Signature: "sig"}}, resp.Content...)
	return &out
}

// Call builds a tool invocation.
func Call(id, name string, args map[string]any) model.ToolCall {
	return model.ToolCall{ID: id, Name: name, Arguments: args}
}

// TestTranscript is a short valid transcript with one tool round trip.
func TestTranscript() []model.Message {
	call := Call("call_1", "check_qc", map[string]any{"text": "Cmax was 12 ng/mL."})
	return []model.Message{
		model.UserText("Check the summary section."),
		{Role: model.RoleAssistant, Content: []model.ContentBlock{
			{Type: model.BlockThinking, Thinking: "I should run QC.", Signature: "sig-1"},
			model.TextBlock("Running QC."),
			model.ToolUseBlock(call),
		}},
		{Role: model.RoleUser, Content: []model.ContentBlock{
			model.ToolResultBlock(model.ToolResult{ToolCallID: "call_1", Content: map[string]any{"score": 100}}),
		}},
		{Role: model.RoleAssistant, Content: []model.ContentBlock{model.TextBlock("No issues found.")}},
	}
}

// TestMCPTools returns sample tool declarations for conversion tests.
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "check_qc",
			Description: "Run quality-control checks on report text",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"text": map[string]any{
						"type":        "string",
						"description": "The text to check",
					},
				},
				Required: []string{"text"},
			},
		},
		{
			Name:        "calculate_statistics",
			Description: "Compute mean, SD and CV of a numeric sample",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"values": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "number"},
					},
				},
				Required: []string{"values"},
			},
		},
	}
}
