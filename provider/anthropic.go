package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/husain-clintel/Pharmascribe-sub000/config"
	"github.com/husain-clintel/Pharmascribe-sub000/mcp"
	"github.com/husain-clintel/Pharmascribe-sub000/model"
)

// AnthropicProvider implements model.Provider using Anthropic's official Go
// SDK. It is the only provider that requests extended thinking.
type AnthropicProvider struct {
	client  *anthropic.Client
	model   anthropic.Model
	baseURL string
}

// NewAnthropicProvider creates a new Anthropic provider instance.
//
// Parameters:
//   - baseURL: Anthropic API base URL (default: "https://api.anthropic.com")
//   - apiKey: Anthropic API key (required)
//   - model: Initial model to use (default: "claude-sonnet-4-5-20250929")
//
// Returns an error if the API key is missing.
func NewAnthropicProvider(baseURL, apiKey, model string) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	var anthropicModel anthropic.Model
	if model == "" {
		anthropicModel = anthropic.ModelClaudeSonnet4_5_20250929
	} else {
		anthropicModel = anthropic.Model(model)
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{
		client:  &client,
		model:   anthropicModel,
		baseURL: baseURL,
	}, nil
}

// Invoke implements model.Provider. The response is streamed and
// accumulated so long generations do not hit the non-streaming timeout.
func (p *AnthropicProvider) Invoke(ctx context.Context, req model.Request) (*model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:     p.model,
		Messages:  ConvertToAnthropicMessages(req.Transcript),
		MaxTokens: int64(req.MaxTokens),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if len(req.Tools) > 0 {
		params.Tools = mcp.AnthropicTools(req.Tools)
	}
	if req.ThinkingEnabled && req.ThinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(req.ThinkingBudget))
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	msg := anthropic.Message{}
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return nil, fmt.Errorf("error accumulating message: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("Anthropic streaming error: %w", err)
	}

	return ConvertFromAnthropicMessage(msg), nil
}

// ConvertToAnthropicMessages converts a transcript to Anthropic message
// params. Thinking blocks are sent back with their signatures, as the API
// requires when tools are in use.
func ConvertToAnthropicMessages(transcript []model.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(transcript))

	for _, msg := range transcript {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
		for _, b := range msg.Content {
			switch b.Type {
			case model.BlockText:
				if b.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(b.Text))
				}
			case model.BlockThinking:
				blocks = append(blocks, anthropic.NewThinkingBlock(b.Signature, b.Thinking))
			case model.BlockRedactedThinking:
				blocks = append(blocks, anthropic.NewRedactedThinkingBlock(b.Data))
			case model.BlockToolUse:
				args := b.ToolCall.Arguments
				if args == nil {
					args = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(b.ToolCall.ID, args, b.ToolCall.Name))
			case model.BlockToolResult:
				r := b.ToolResult
				blocks = append(blocks, anthropic.NewToolResultBlock(r.ToolCallID, r.Text(), r.IsError))
			}
		}

		if msg.Role == model.RoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		} else {
			result = append(result, anthropic.NewUserMessage(blocks...))
		}
	}

	return result
}

// ConvertFromAnthropicMessage converts an accumulated Anthropic message to an
// assistant turn.
func ConvertFromAnthropicMessage(msg anthropic.Message) *model.Response {
	blocks := make([]model.ContentBlock, 0, len(msg.Content))

	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			blocks = append(blocks, model.TextBlock(v.Text))
		case anthropic.ThinkingBlock:
			blocks = append(blocks, model.ContentBlock{Type: model.BlockThinking, Thinking: v.Thinking, Signature: v.Signature})
		case anthropic.RedactedThinkingBlock:
			blocks = append(blocks, model.ContentBlock{Type: model.BlockRedactedThinking, Data: v.Data})
		case anthropic.ToolUseBlock:
			var args map[string]any
			if err := json.Unmarshal(v.Input, &args); err != nil {
				config.DebugLog.Warn("[Provider] unparsable tool input", zap.String("tool", v.Name), zap.Error(err))
			}
			if args == nil {
				args = map[string]any{}
			}
			blocks = append(blocks, model.ToolUseBlock(model.ToolCall{ID: v.ID, Name: v.Name, Arguments: args}))
		}
	}

	return &model.Response{Content: blocks, StopReason: convertAnthropicStopReason(msg.StopReason)}
}

func convertAnthropicStopReason(r anthropic.StopReason) model.StopReason {
	switch r {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return model.StopCompleted
	case anthropic.StopReasonToolUse:
		return model.StopToolUse
	case anthropic.StopReasonMaxTokens:
		return model.StopMaxTokens
	default:
		return model.StopReason(r)
	}
}

// GetModel returns the full model name for API calls.
func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}

func (p *AnthropicProvider) SetModel(model string) {
	p.model = anthropic.Model(model)
}

// Ping implements model.Provider by attempting to create a minimal request.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	// Anthropic doesn't have a ping/health endpoint, so we make a minimal request
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})

	if err != nil {
		return fmt.Errorf("Anthropic ping failed: %w", err)
	}
	return nil
}
