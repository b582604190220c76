package mcp

import (
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/husain-clintel/Pharmascribe-sub000/tools"
)

func declarations() []mcptypes.Tool {
	return tools.NewDefaultRegistry(tools.Deps{}).Declarations()
}

func TestOllamaTools(t *testing.T) {
	decls := declarations()
	result := OllamaTools(decls)

	if len(result) != len(decls) {
		t.Fatalf("expected %d tools, got %d", len(decls), len(result))
	}
	for i, tool := range result {
		if tool.Type != "function" {
			t.Errorf("tool %d: expected type 'function', got %q", i, tool.Type)
		}
		if tool.Function.Name != decls[i].Name {
			t.Errorf("tool %d: expected name %q, got %q", i, decls[i].Name, tool.Function.Name)
		}
		if tool.Function.Parameters.Type != "object" {
			t.Errorf("tool %d: parameters type %q", i, tool.Function.Parameters.Type)
		}
	}

	store := result[1].Function.Parameters
	if len(store.Required) != 3 {
		t.Errorf("store_memory: expected 3 required fields, got %v", store.Required)
	}
	kind := store.Properties["kind"]
	if len(kind.Type) != 1 || kind.Type[0] != "string" {
		t.Errorf("kind type: got %v", kind.Type)
	}
	if len(kind.Enum) != 4 {
		t.Errorf("kind enum: got %v", kind.Enum)
	}
	if content := store.Properties["content"]; len(content.Type) != 0 || content.Description == "" {
		t.Errorf("untyped content property: got %+v", content)
	}

	if len(OllamaTools(nil)) != 0 {
		t.Error("expected no tools for nil input")
	}
}

func TestOllamaProperty(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		validate func(t *testing.T, prop map[string]int)
	}{
		{
			name:  "string type",
			input: map[string]any{"type": "string", "description": "A string property"},
			validate: func(t *testing.T, prop map[string]int) {
				if prop["types"] != 1 || prop["description"] != 1 {
					t.Errorf("got %v", prop)
				}
			},
		},
		{
			name:  "union type",
			input: map[string]any{"type": []any{"number", "null"}},
			validate: func(t *testing.T, prop map[string]int) {
				if prop["types"] != 2 {
					t.Errorf("expected 2 types, got %v", prop)
				}
			},
		},
		{
			name:  "string enum",
			input: map[string]any{"type": "string", "enum": []string{"a", "b", "c"}},
			validate: func(t *testing.T, prop map[string]int) {
				if prop["enum"] != 3 {
					t.Errorf("expected 3 enum values, got %v", prop)
				}
			},
		},
		{
			name:  "array with items",
			input: map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			validate: func(t *testing.T, prop map[string]int) {
				if prop["items"] != 1 {
					t.Error("expected items to be set")
				}
			},
		},
		{
			name: "anyOf",
			input: map[string]any{"anyOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "number"},
			}},
			validate: func(t *testing.T, prop map[string]int) {
				if prop["anyOf"] != 2 {
					t.Errorf("expected 2 anyOf options, got %v", prop)
				}
			},
		},
		{
			name:  "struct input",
			input: struct {
				Type string `json:"type"`
			}{Type: "boolean"},
			validate: func(t *testing.T, prop map[string]int) {
				if prop["types"] != 1 {
					t.Errorf("expected type from struct, got %v", prop)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ollamaProperty(tt.input)
			counts := map[string]int{
				"types": len(p.Type),
				"enum":  len(p.Enum),
				"anyOf": len(p.AnyOf),
			}
			if p.Description != "" {
				counts["description"] = 1
			}
			if p.Items != nil {
				counts["items"] = 1
			}
			tt.validate(t, counts)
		})
	}
}

func TestOpenAITools(t *testing.T) {
	if OpenAITools(nil) != nil {
		t.Error("expected nil for no tools")
	}

	decls := declarations()
	result := OpenAITools(decls)
	if len(result) != len(decls) {
		t.Fatalf("expected %d tools, got %d", len(decls), len(result))
	}

	if result[2].OfFunction == nil {
		t.Fatal("expected a function tool")
	}
	fn := result[2].OfFunction.Function
	if fn.Name != tools.CheckQC {
		t.Errorf("name: got %q", fn.Name)
	}
	if req, ok := fn.Parameters["required"].([]string); !ok || len(req) != 1 || req[0] != "text" {
		t.Errorf("required: got %v", fn.Parameters["required"])
	}

	recall := result[0].OfFunction.Function
	if _, ok := recall.Parameters["required"]; ok {
		t.Error("recall_memory has no required fields")
	}
}

func TestAnthropicTools(t *testing.T) {
	if AnthropicTools(nil) != nil {
		t.Error("expected nil for no tools")
	}

	decls := declarations()
	result := AnthropicTools(decls)
	if len(result) != len(decls) {
		t.Fatalf("expected %d tools, got %d", len(decls), len(result))
	}

	for i, tool := range result {
		if tool.OfTool == nil {
			t.Fatalf("tool %d: expected OfTool", i)
		}
		if tool.OfTool.Name != decls[i].Name {
			t.Errorf("tool %d: name %q", i, tool.OfTool.Name)
		}
		if !tool.OfTool.Description.Valid() {
			t.Errorf("tool %d: description not set", i)
		}
	}

	stats := result[4].OfTool.InputSchema
	if len(stats.Required) != 1 || stats.Required[0] != "values" {
		t.Errorf("calculate_statistics required: got %v", stats.Required)
	}
}
