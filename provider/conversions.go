package provider

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/ollama/ollama/api"

	"github.com/husain-clintel/Pharmascribe-sub000/model"
	"github.com/husain-clintel/Pharmascribe-sub000/ollama"
)

// ConvertToOllamaMessages converts a transcript to Ollama chat messages.
//
// Ollama has no content blocks: text blocks are concatenated, the thinking
// text travels in Message.Thinking, and every tool result becomes its own
// message with role "tool", in the order of the results block.
func ConvertToOllamaMessages(systemPrompt string, transcript []model.Message) []api.Message {
	result := make([]api.Message, 0, len(transcript)+1)
	if systemPrompt != "" {
		result = append(result, api.Message{Role: "system", Content: systemPrompt})
	}

	for _, msg := range transcript {
		var text, thinking strings.Builder
		var calls []model.ToolCall

		for _, b := range msg.Content {
			switch b.Type {
			case model.BlockText:
				text.WriteString(b.Text)
			case model.BlockThinking:
				thinking.WriteString(b.Thinking)
			case model.BlockToolUse:
				calls = append(calls, *b.ToolCall)
			case model.BlockToolResult:
				result = append(result, api.Message{Role: "tool", Content: b.ToolResult.Text()})
			}
		}

		if text.Len() == 0 && thinking.Len() == 0 && len(calls) == 0 {
			continue
		}
		result = append(result, api.Message{
			Role:      string(msg.Role),
			Content:   text.String(),
			Thinking:  thinking.String(),
			ToolCalls: ConvertFromProviderToolCalls(calls),
		})
	}
	return result
}

// ConvertFromOllamaReply converts an accumulated Ollama reply to an assistant
// turn. Ollama does not assign tool-call ids, so fresh ones are generated.
func ConvertFromOllamaReply(reply *ollama.Reply) *model.Response {
	var blocks []model.ContentBlock
	if reply.Thinking != "" {
		blocks = append(blocks, model.ContentBlock{Type: model.BlockThinking, Thinking: reply.Thinking})
	}
	if reply.Content != "" {
		blocks = append(blocks, model.TextBlock(reply.Content))
	}
	calls := ConvertToProviderToolCalls(reply.ToolCalls)
	for _, call := range calls {
		blocks = append(blocks, model.ToolUseBlock(call))
	}

	stop := model.StopCompleted
	switch {
	case len(calls) > 0:
		stop = model.StopToolUse
	case reply.DoneReason == "length":
		stop = model.StopMaxTokens
	}
	return &model.Response{Content: blocks, StopReason: stop}
}

// ParseToolArguments parses JSON arguments string into a map.
// Used by the OpenAI provider for tool call parsing.
func ParseToolArguments(argsJSON string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil || args == nil {
		// If parsing fails, return empty map
		return make(map[string]any)
	}
	return args
}

// newToolCallID returns an id for providers that do not assign one.
func newToolCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ConvertToProviderToolCalls converts Ollama api.ToolCall to provider-agnostic
// model.ToolCall, assigning ids.
//
// Returns nil if the input is nil or empty.
func ConvertToProviderToolCalls(ollamaCalls []api.ToolCall) []model.ToolCall {
	if len(ollamaCalls) == 0 {
		return nil
	}

	result := make([]model.ToolCall, len(ollamaCalls))
	for i, call := range ollamaCalls {
		result[i] = model.ToolCall{
			ID:        newToolCallID(),
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
	}
	return result
}

// ConvertFromProviderToolCalls converts provider-agnostic model.ToolCall to
// Ollama api.ToolCall.
//
// Returns nil if the input is nil or empty.
func ConvertFromProviderToolCalls(providerCalls []model.ToolCall) []api.ToolCall {
	if len(providerCalls) == 0 {
		return nil
	}

	result := make([]api.ToolCall, len(providerCalls))
	for i, call := range providerCalls {
		result[i] = api.ToolCall{
			Function: api.ToolCallFunction{
				Index:     i,
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		}
	}
	return result
}

// encodeArguments renders tool arguments as the JSON object string OpenAI
// expects.
func encodeArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}
