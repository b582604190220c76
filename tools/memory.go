package tools

import (
	"context"
	"fmt"

	"github.com/husain-clintel/Pharmascribe-sub000/storage"
)

// MemoryStore is the long-term memory collaborator of the recall and store tools.
type MemoryStore interface {
	Store(ctx context.Context, reportID string, kind storage.MemoryKind, content any, category string, importance, ttlDays int) (*storage.MemoryRecord, error)
	Recall(ctx context.Context, reportID string, q storage.RecallQuery) ([]storage.MemoryRecord, error)
}

// MemoryDefaults are applied when the model omits optional arguments.
type MemoryDefaults struct {
	TTLDays             int
	DefaultImportance   int
	RecallMinImportance int
	RecallLimit         int
}

type recallArgs struct {
	Kinds         []string `json:"kinds"`
	Categories    []string `json:"categories"`
	MinImportance *int     `json:"min_importance"`
	Limit         *int     `json:"limit"`
}

type storeArgs struct {
	Kind       string `json:"kind"`
	Content    any    `json:"content"`
	Category   string `json:"category"`
	Importance *int   `json:"importance"`
}

type recallOutput struct {
	Count    int              `json:"count"`
	Memories []recalledMemory `json:"memories"`
}

type recalledMemory struct {
	Key        string `json:"key"`
	Kind       string `json:"kind"`
	Category   string `json:"category"`
	Importance int    `json:"importance"`
	Content    any    `json:"content"`
	CreatedAt  string `json:"createdAt"`
}

func recallMemoryHandler(store MemoryStore, d MemoryDefaults) Handler {
	return func(ctx context.Context, ec ExecutionContext, raw map[string]any) (Output, error) {
		var args recallArgs
		if err := decodeArgs(RecallMemory, raw, &args); err != nil {
			return Output{}, err
		}

		q := storage.RecallQuery{
			Categories:    args.Categories,
			MinImportance: d.RecallMinImportance,
			Limit:         d.RecallLimit,
		}
		for _, k := range args.Kinds {
			kind := storage.MemoryKind(k)
			if !kind.Valid() {
				return Output{}, invalidArgs(RecallMemory, "unknown kind %q", k)
			}
			q.Kinds = append(q.Kinds, kind)
		}
		if args.MinImportance != nil {
			q.MinImportance = *args.MinImportance
		}
		if args.Limit != nil && *args.Limit > 0 {
			q.Limit = *args.Limit
		}

		records, err := store.Recall(ctx, ec.ReportID, q)
		if err != nil {
			return Output{}, fmt.Errorf("memory recall failed: %w", err)
		}

		out := recallOutput{Count: len(records), Memories: make([]recalledMemory, 0, len(records))}
		for _, rec := range records {
			out.Memories = append(out.Memories, recalledMemory{
				Key:        rec.Key,
				Kind:       string(rec.Kind),
				Category:   rec.Category,
				Importance: rec.Importance,
				Content:    rec.Content,
				CreatedAt:  rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		return Output{Content: out}, nil
	}
}

func storeMemoryHandler(store MemoryStore, d MemoryDefaults) Handler {
	return func(ctx context.Context, ec ExecutionContext, raw map[string]any) (Output, error) {
		var args storeArgs
		if err := decodeArgs(StoreMemory, raw, &args); err != nil {
			return Output{}, err
		}

		kind := storage.MemoryKind(args.Kind)
		if !kind.Valid() {
			return Output{}, invalidArgs(StoreMemory, "kind must be one of %v, got %q", storage.MemoryKinds, args.Kind)
		}
		if args.Content == nil {
			return Output{}, invalidArgs(StoreMemory, "content is required")
		}
		if args.Category == "" {
			return Output{}, invalidArgs(StoreMemory, "category is required")
		}
		importance := d.DefaultImportance
		if args.Importance != nil {
			importance = *args.Importance
		}
		if importance < 1 || importance > 10 {
			return Output{}, invalidArgs(StoreMemory, "importance must be within 1..10, got %d", importance)
		}

		rec, err := store.Store(ctx, ec.ReportID, kind, args.Content, args.Category, importance, d.TTLDays)
		if err != nil {
			return Output{}, fmt.Errorf("memory store failed: %w", err)
		}

		return Output{
			Content: map[string]any{
				"stored":    true,
				"key":       rec.Key,
				"expiresAt": rec.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
			},
			StepSummary: fmt.Sprintf("Stored %s memory: %s", kind, args.Category),
		}, nil
	}
}
