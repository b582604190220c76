package provider_test

import (
	"context"
	"testing"
	"time"

	"github.com/husain-clintel/Pharmascribe-sub000/model"
	"github.com/husain-clintel/Pharmascribe-sub000/provider/testutil"
)

// TestProviderContract defines the contract every provider satisfies.
func TestProviderContract(t *testing.T) {
	tests := []struct {
		name     string
		provider model.Provider
	}{
		{"Mock", testutil.NewMockProvider("test-model")},
		{"Scripted", testutil.NewScriptedProvider(testutil.Respond(testutil.TextResponse("Done.")))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Run("Invoke", func(t *testing.T) {
				testProviderInvoke(t, tt.provider)
			})
			t.Run("ModelManagement", func(t *testing.T) {
				testProviderModelManagement(t, tt.provider)
			})
			t.Run("HealthCheck", func(t *testing.T) {
				testProviderHealthCheck(t, tt.provider)
			})
		})
	}
}

func testProviderInvoke(t *testing.T, p model.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := p.Invoke(ctx, model.Request{
		Tools:      testutil.TestMCPTools(),
		Transcript: []model.Message{model.UserText("Hello")},
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if len(resp.Content) == 0 {
		t.Error("Invoke() returned no content")
	}
	if resp.StopReason != model.StopCompleted {
		t.Errorf("Invoke() stop reason = %q", resp.StopReason)
	}
}

func testProviderModelManagement(t *testing.T, p model.Provider) {
	if p.GetModel() == "" {
		t.Error("GetModel() returned empty string")
	}

	newModel := "new-test-model"
	p.SetModel(newModel)
	if got := p.GetModel(); got != newModel {
		t.Errorf("After SetModel(%s), GetModel() = %s, want %s", newModel, got, newModel)
	}
}

func testProviderHealthCheck(t *testing.T, p model.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestScriptedProviderRecordsRequests(t *testing.T) {
	p := testutil.NewScriptedProvider(
		testutil.Respond(testutil.ToolUseResponse(testutil.Call("c1", "check_qc", nil))),
		testutil.Respond(testutil.TextResponse("Done.")),
	)

	for i := 0; i < 3; i++ {
		if _, err := p.Invoke(context.Background(), model.Request{Transcript: []model.Message{model.UserText("hi")}}); err != nil {
			t.Fatalf("Invoke %d: %v", i, err)
		}
	}
	if p.Calls() != 3 || len(p.Requests()) != 3 {
		t.Errorf("expected 3 recorded calls, got %d", p.Calls())
	}
}
