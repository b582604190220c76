package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/husain-clintel/Pharmascribe-sub000/mcp"
	"github.com/husain-clintel/Pharmascribe-sub000/model"
)

// OpenAIProvider implements model.Provider using OpenAI's official Go SDK.
// Any OpenAI-compatible endpoint (OpenRouter, vLLM, LM Studio) works through
// BaseURL.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
}

// NewOpenAIProvider creates a new OpenAI provider instance.
//
// Parameters:
//   - baseURL: OpenAI API base URL (default: "https://api.openai.com/v1")
//   - apiKey: OpenAI API key (required)
//   - model: Initial model to use (default: "gpt-4o")
func NewOpenAIProvider(baseURL, apiKey, model string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIProvider{
		client:  client,
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Invoke implements model.Provider with a streamed chat completion that is
// accumulated into one assistant turn. Thinking is not available through
// this API and is ignored.
func (p *OpenAIProvider) Invoke(ctx context.Context, req model.Request) (*model.Response, error) {
	system := req.SystemPrompt
	if len(req.Tools) > 0 {
		system = buildToolInstructions(req.Tools) + "\n\n" + system
	}

	params := openai.ChatCompletionNewParams{
		Messages: ConvertToOpenAIMessages(system, req.Transcript),
		Model:    openai.ChatModel(p.model),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		params.Tools = mcp.OpenAITools(req.Tools)
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		acc.AddChunk(stream.Current())
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("OpenAI streaming error: %w", err)
	}
	if len(acc.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	return convertFromOpenAIChoice(acc.Choices[0]), nil
}

// ConvertToOpenAIMessages converts a transcript to chat completion messages.
// Tool results become one "tool" message each, in order.
func ConvertToOpenAIMessages(systemPrompt string, transcript []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(transcript)+1)
	if systemPrompt != "" {
		result = append(result, openai.SystemMessage(systemPrompt))
	}

	for _, msg := range transcript {
		switch msg.Role {
		case model.RoleUser:
			for _, b := range msg.Content {
				if b.Type == model.BlockToolResult {
					result = append(result, openai.ToolMessage(b.ToolResult.Text(), b.ToolResult.ToolCallID))
				}
			}
			if text := msg.Text(); text != "" {
				result = append(result, openai.UserMessage(text))
			}

		case model.RoleAssistant:
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if text := msg.Text(); text != "" {
				assistant.Content.OfString = openai.String(text)
			}
			for _, call := range msg.ToolCalls() {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      call.Name,
							Arguments: encodeArguments(call.Arguments),
						},
					},
				})
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return result
}

func convertFromOpenAIChoice(choice openai.ChatCompletionChoice) *model.Response {
	var blocks []model.ContentBlock
	if choice.Message.Content != "" {
		blocks = append(blocks, model.TextBlock(choice.Message.Content))
	}
	for _, tc := range choice.Message.ToolCalls {
		id := tc.ID
		if id == "" {
			id = newToolCallID()
		}
		blocks = append(blocks, model.ToolUseBlock(model.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: ParseToolArguments(tc.Function.Arguments),
		}))
	}

	var stop model.StopReason
	switch {
	case len(choice.Message.ToolCalls) > 0:
		stop = model.StopToolUse
	case choice.FinishReason == "stop":
		stop = model.StopCompleted
	case choice.FinishReason == "length":
		stop = model.StopMaxTokens
	default:
		stop = model.StopReason(choice.FinishReason)
	}
	return &model.Response{Content: blocks, StopReason: stop}
}

func (p *OpenAIProvider) GetModel() string {
	return p.model
}

func (p *OpenAIProvider) SetModel(model string) {
	p.model = model
}

// Ping implements model.Provider by attempting to list models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	_, err := p.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("OpenAI ping failed: %w", err)
	}
	return nil
}
