package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/husain-clintel/Pharmascribe-sub000/model"
)

// MockProvider implements model.Provider with a configurable Invoke.
type MockProvider struct {
	InvokeFunc func(ctx context.Context, req model.Request) (*model.Response, error)
	PingFunc   func(ctx context.Context) error

	currentModel string
}

// NewMockProvider creates a mock provider that always completes with a
// fixed text.
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{currentModel: modelName}
	mock.InvokeFunc = func(ctx context.Context, req model.Request) (*model.Response, error) {
		return TextResponse("Mock response"), nil
	}
	mock.PingFunc = func(ctx context.Context) error { return nil }
	return mock
}

func (m *MockProvider) Invoke(ctx context.Context, req model.Request) (*model.Response, error) {
	return m.InvokeFunc(ctx, req)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) SetModel(model string) {
	m.currentModel = model
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}

// ScriptedProvider replays a fixed sequence of responses, one per Invoke,
// and records every request it receives. When the script runs out the last
// entry is repeated.
type ScriptedProvider struct {
	mu       sync.Mutex
	script   []ScriptStep
	requests []model.Request
	model    string
}

// ScriptStep is one scripted reply: a response or an error.
type ScriptStep struct {
	Response *model.Response
	Err      error
}

func NewScriptedProvider(steps ...ScriptStep) *ScriptedProvider {
	return &ScriptedProvider{script: steps, model: "scripted"}
}

// Respond is shorthand for a script step that returns resp.
func Respond(resp *model.Response) ScriptStep {
	return ScriptStep{Response: resp}
}

// Fail is shorthand for a script step that returns err.
func Fail(err error) ScriptStep {
	return ScriptStep{Err: err}
}

func (p *ScriptedProvider) Invoke(ctx context.Context, req model.Request) (*model.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	req.Transcript = append([]model.Message(nil), req.Transcript...)
	p.requests = append(p.requests, req)

	if len(p.script) == 0 {
		return nil, fmt.Errorf("scripted provider: no responses configured")
	}
	i := len(p.requests) - 1
	if i >= len(p.script) {
		i = len(p.script) - 1
	}
	step := p.script[i]
	if step.Err != nil {
		return nil, step.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return step.Response, nil
}

// Requests returns a copy of the requests received so far.
func (p *ScriptedProvider) Requests() []model.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Request(nil), p.requests...)
}

// Calls is the number of Invoke calls made.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *ScriptedProvider) GetModel() string      { return p.model }
func (p *ScriptedProvider) SetModel(model string) { p.model = model }
func (p *ScriptedProvider) Ping(context.Context) error {
	return nil
}
