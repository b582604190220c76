package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/husain-clintel/Pharmascribe-sub000/config"
	"github.com/husain-clintel/Pharmascribe-sub000/mcp"
	"github.com/husain-clintel/Pharmascribe-sub000/model"
	"github.com/husain-clintel/Pharmascribe-sub000/ollama"
)

// OllamaProvider wraps ollama.Client to implement model.Provider.
//
// Extended thinking is not requested from Ollama; thinking text that a
// reasoning model returns anyway is kept as a thinking block.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// Parameters:
//   - baseURL: The Ollama server URL. Defaults to "http://localhost:11434".
//   - model: The model name to use. Defaults to "llama3.1:latest".
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL, model)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	if !ollama.ModelSupportsToolCalling(client.GetModel()) {
		config.DebugLog.Warn("[Provider] Ollama model is not known to support tool calling", zap.String("model", client.GetModel()))
	}

	return &OllamaProvider{
		client: client,
	}, nil
}

// Invoke implements model.Provider.
func (p *OllamaProvider) Invoke(ctx context.Context, req model.Request) (*model.Response, error) {
	system := req.SystemPrompt
	if len(req.Tools) > 0 {
		system = buildToolInstructions(req.Tools) + "\n\n" + system
	}
	messages := ConvertToOllamaMessages(system, req.Transcript)
	tools := mcp.OllamaTools(req.Tools)

	options := map[string]any{}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	reply, err := p.client.Chat(ctx, messages, tools, options)
	if err != nil {
		return nil, err
	}
	return ConvertFromOllamaReply(reply), nil
}

func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

func (p *OllamaProvider) SetModel(model string) {
	p.client.SetModel(model)
}

// Ping checks if the Ollama server is reachable.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}
