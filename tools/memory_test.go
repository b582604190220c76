package tools

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/husain-clintel/Pharmascribe-sub000/model"
	"github.com/husain-clintel/Pharmascribe-sub000/storage"
)

var testDefaults = MemoryDefaults{TTLDays: 90, DefaultImportance: 7, RecallMinImportance: 5, RecallLimit: 20}

func newMemoryRegistry(t *testing.T) (*Registry, *storage.MemoryStorage) {
	t.Helper()
	ms, err := storage.OpenMemoryStorage(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ms.Close() })
	return NewDefaultRegistry(Deps{Memory: ms, MemoryDefaults: testDefaults}), ms
}

func TestStoreThenRecall(t *testing.T) {
	r, _ := newMemoryRegistry(t)
	ctx := context.Background()
	ec := ExecutionContext{ReportID: "r1"}

	res := r.Dispatch(ctx, model.ToolCall{ID: "1", Name: StoreMemory, Arguments: map[string]any{
		"kind":     "decision",
		"content":  map[string]any{"units": "ng/mL"},
		"category": "units",
	}}, ec)
	require.False(t, res.IsError, res.Error)
	assert.Equal(t, "Stored decision memory: units", res.StepSummary)

	var stored map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Text()), &stored))
	assert.Regexp(t, `^decision#\d{4}-\d{2}-\d{2}T`, stored["key"])

	res = r.Dispatch(ctx, model.ToolCall{ID: "2", Name: StoreMemory, Arguments: map[string]any{
		"kind": "fact", "content": "minor", "category": "misc", "importance": 2.0,
	}}, ec)
	require.False(t, res.IsError, res.Error)

	res = r.Dispatch(ctx, model.ToolCall{ID: "3", Name: RecallMemory}, ec)
	require.False(t, res.IsError, res.Error)
	assert.Empty(t, res.StepSummary)

	var recalled struct {
		Count    int `json:"count"`
		Memories []struct {
			Kind    string          `json:"kind"`
			Content json.RawMessage `json:"content"`
		} `json:"memories"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Text()), &recalled))
	require.Equal(t, 1, recalled.Count, "importance 2 is below the default threshold")
	assert.Equal(t, "decision", recalled.Memories[0].Kind)
	assert.JSONEq(t, `{"units":"ng/mL"}`, string(recalled.Memories[0].Content))
}

func TestRecallEmpty(t *testing.T) {
	r, _ := newMemoryRegistry(t)
	res := r.Dispatch(context.Background(), model.ToolCall{ID: "1", Name: RecallMemory, Arguments: map[string]any{
		"kinds": []any{"preference"}, "min_importance": 1.0, "limit": 5.0,
	}}, ExecutionContext{ReportID: "r1"})

	require.False(t, res.IsError, res.Error)
	assert.JSONEq(t, `{"count":0,"memories":[]}`, res.Text())
}

func TestStoreMemoryValidation(t *testing.T) {
	r, _ := newMemoryRegistry(t)
	ctx := context.Background()
	ec := ExecutionContext{ReportID: "r1"}

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"bad kind", map[string]any{"kind": "rumour", "content": "x", "category": "c"}, "kind must be one of"},
		{"no content", map[string]any{"kind": "fact", "category": "c"}, "content is required"},
		{"no category", map[string]any{"kind": "fact", "content": "x"}, "category is required"},
		{"importance range", map[string]any{"kind": "fact", "content": "x", "category": "c", "importance": 11.0}, "importance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Dispatch(ctx, model.ToolCall{ID: "x", Name: StoreMemory, Arguments: tt.args}, ec)
			require.True(t, res.IsError)
			assert.Contains(t, res.Error, tt.want)
		})
	}
}

type failingMemory struct{}

func (failingMemory) Store(context.Context, string, storage.MemoryKind, any, string, int, int) (*storage.MemoryRecord, error) {
	return nil, errors.New("database is locked")
}

func (failingMemory) Recall(context.Context, string, storage.RecallQuery) ([]storage.MemoryRecord, error) {
	return nil, errors.New("database is locked")
}

func TestMemoryStoreFailureIsToolError(t *testing.T) {
	r := NewDefaultRegistry(Deps{Memory: failingMemory{}, MemoryDefaults: testDefaults})
	res := r.Dispatch(context.Background(), model.ToolCall{ID: "1", Name: RecallMemory}, ExecutionContext{ReportID: "r1"})

	require.True(t, res.IsError)
	assert.Contains(t, res.Error, "memory recall failed")
}
