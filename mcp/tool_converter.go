// Package mcp adapts the agent's tool declarations, which are MCP tool
// definitions, to the tool formats of each model SDK, and exposes the tool
// registry as an MCP server.
package mcp

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// OllamaTools converts tool declarations to Ollama's function tools.
func OllamaTools(decls []mcptypes.Tool) []api.Tool {
	out := make([]api.Tool, 0, len(decls))
	for _, d := range decls {
		params := api.ToolFunctionParameters{
			Type:       d.InputSchema.Type,
			Required:   d.InputSchema.Required,
			Properties: make(map[string]api.ToolProperty, len(d.InputSchema.Properties)),
		}
		if d.InputSchema.Defs != nil {
			params.Defs = d.InputSchema.Defs
		}
		for name, prop := range d.InputSchema.Properties {
			params.Properties[name] = ollamaProperty(prop)
		}

		out = append(out, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

// ollamaProperty maps one JSON-schema property onto api.ToolProperty. Nested
// objects under "items" are passed through untouched.
func ollamaProperty(v any) api.ToolProperty {
	var prop api.ToolProperty

	m, ok := v.(map[string]any)
	if !ok {
		data, err := json.Marshal(v)
		if err != nil || json.Unmarshal(data, &m) != nil {
			return prop
		}
	}

	switch t := m["type"].(type) {
	case string:
		prop.Type = api.PropertyType{t}
	case []string:
		prop.Type = api.PropertyType(t)
	case []any:
		for _, s := range t {
			if s, ok := s.(string); ok {
				prop.Type = append(prop.Type, s)
			}
		}
	}

	prop.Description, _ = m["description"].(string)

	switch enum := m["enum"].(type) {
	case []any:
		prop.Enum = enum
	case []string:
		for _, e := range enum {
			prop.Enum = append(prop.Enum, e)
		}
	}

	if items, ok := m["items"]; ok {
		prop.Items = items
	}
	if anyOf, ok := m["anyOf"].([]any); ok {
		for _, alt := range anyOf {
			prop.AnyOf = append(prop.AnyOf, ollamaProperty(alt))
		}
	}
	return prop
}

// OpenAITools converts tool declarations to chat-completion function tools.
// The same format serves OpenRouter and other compatible endpoints.
func OpenAITools(decls []mcptypes.Tool) []openai.ChatCompletionToolUnionParam {
	if len(decls) == 0 {
		return nil
	}

	out := make([]openai.ChatCompletionToolUnionParam, len(decls))
	for i, d := range decls {
		params := openai.FunctionParameters{
			"type":       d.InputSchema.Type,
			"properties": d.InputSchema.Properties,
		}
		if len(d.InputSchema.Required) > 0 {
			params["required"] = d.InputSchema.Required
		}
		if d.InputSchema.Defs != nil {
			params["$defs"] = d.InputSchema.Defs
		}

		out[i] = openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        d.Name,
			Description: openai.String(d.Description),
			Parameters:  params,
		})
	}
	return out
}

// AnthropicTools converts tool declarations to Anthropic tool params. The
// schema type is left to default to "object".
func AnthropicTools(decls []mcptypes.Tool) []anthropic.ToolUnionParam {
	if len(decls) == 0 {
		return nil
	}

	out := make([]anthropic.ToolUnionParam, len(decls))
	for i, d := range decls {
		schema := anthropic.ToolInputSchemaParam{Properties: d.InputSchema.Properties}
		if len(d.InputSchema.Required) > 0 {
			schema.Required = d.InputSchema.Required
		}
		if d.InputSchema.Defs != nil {
			schema.ExtraFields = map[string]any{"$defs": d.InputSchema.Defs}
		}

		out[i] = anthropic.ToolUnionParamOfTool(schema, d.Name)
		if d.Description != "" {
			out[i].OfTool.Description = anthropic.String(d.Description)
		}
	}
	return out
}
