package ollama

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
)

func TestModelSupportsToolCalling(t *testing.T) {
	tests := map[string]bool{
		"llama3.1:8b":         true,
		"Llama3.2:3b":         true,
		"llama3:latest":       false,
		"llama3-gradient:8b":  false,
		"qwen3:14b":           true,
		"gpt-oss:20b":         true,
		"codellama:7b":        false,
		"deepseek-r1:8b":      false,
		"some-unknown-model":  false,
		"mistral-nemo:latest": true,
	}
	for name, want := range tests {
		if got := ModelSupportsToolCalling(name); got != want {
			t.Errorf("ModelSupportsToolCalling(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient("", "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.GetModel() != "llama3.1:latest" {
		t.Errorf("default model: got %q", c.GetModel())
	}
	c.SetModel("qwen3:8b")
	if c.GetModel() != "qwen3:8b" {
		t.Errorf("SetModel: got %q", c.GetModel())
	}
}

func TestChatAccumulatesChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, line := range []string{
			`{"model":"qwen3","created_at":"2025-01-01T00:00:00Z","message":{"role":"assistant","content":"","thinking":"Check the "},"done":false}`,
			`{"model":"qwen3","created_at":"2025-01-01T00:00:00Z","message":{"role":"assistant","content":"","thinking":"units."},"done":false}`,
			`{"model":"qwen3","created_at":"2025-01-01T00:00:00Z","message":{"role":"assistant","content":"Units are ng/mL."},"done":true,"done_reason":"length"}`,
		} {
			_, _ = io.WriteString(w, line+"\n")
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "qwen3")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	reply, err := c.Chat(context.Background(), []api.Message{{Role: "user", Content: "units?"}}, nil, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Thinking != "Check the units." {
		t.Errorf("thinking: got %q", reply.Thinking)
	}
	if reply.Content != "Units are ng/mL." {
		t.Errorf("content: got %q", reply.Content)
	}
	if reply.DoneReason != "length" {
		t.Errorf("done reason: got %q", reply.DoneReason)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"models":[]}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
