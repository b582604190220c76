package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

type Client struct {
	client  *api.Client
	model   string
	baseURL string
}

// Reply is a streamed chat response accumulated into one assistant turn.
type Reply struct {
	Content    string
	Thinking   string
	ToolCalls  []api.ToolCall
	DoneReason string
}

func NewClient(baseURL, model string) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1:latest"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	client := api.NewClient(parsedURL, http.DefaultClient)

	return &Client{
		client:  client,
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Chat streams a chat request with optional tool definitions and returns the
// accumulated reply.
func (c *Client) Chat(ctx context.Context, messages []api.Message, tools []api.Tool, options map[string]any) (*Reply, error) {
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
		Options:  options,
		Stream:   func(b bool) *bool { return &b }(true),
	}

	var content, thinking strings.Builder
	reply := &Reply{}
	respFunc := func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		thinking.WriteString(resp.Message.Thinking)
		reply.ToolCalls = append(reply.ToolCalls, resp.Message.ToolCalls...)
		if resp.Done {
			reply.DoneReason = resp.DoneReason
		}
		return nil
	}

	if err := c.client.Chat(ctx, req, respFunc); err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}
	reply.Content = content.String()
	reply.Thinking = thinking.String()
	return reply, nil
}

func (c *Client) SetModel(model string) {
	c.model = model
}

func (c *Client) GetModel() string {
	return c.model
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.List(ctx)
	return err
}

// toolSupport lists model-name prefixes and whether those models handle
// function calling. The first matching prefix wins, so specific versions
// come before their family.
var toolSupport = []struct {
	prefix    string
	supported bool
}{
	{"llama3.3", true},
	{"llama3.2", true},
	{"llama3.1", true},
	{"llama3-gradient", false},
	{"llama3", false},
	{"qwen", true},
	{"gpt-oss", true},
	{"mistral", true},
	{"command-r", true},
	{"nemotron", true},
	{"granite3", true},
	{"codellama", false},
	{"deepseek", false},
	{"phi", false},
	{"gemma", false},
}

// ModelSupportsToolCalling reports whether modelName is known to support
// tool calls. Unknown models report false.
func ModelSupportsToolCalling(modelName string) bool {
	modelName = strings.ToLower(modelName)
	for _, m := range toolSupport {
		if strings.HasPrefix(modelName, m.prefix) {
			return m.supported
		}
	}
	return false
}
