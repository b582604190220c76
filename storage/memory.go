package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/husain-clintel/Pharmascribe-sub000/config"
)

type MemoryKind string

const (
	MemoryDecision   MemoryKind = "decision"
	MemoryPreference MemoryKind = "preference"
	MemoryFact       MemoryKind = "fact"
	MemorySummary    MemoryKind = "summary"
)

var MemoryKinds = []MemoryKind{MemoryDecision, MemoryPreference, MemoryFact, MemorySummary}

func (k MemoryKind) Valid() bool {
	for _, v := range MemoryKinds {
		if k == v {
			return true
		}
	}
	return false
}

// MemoryRecord is one long-term agent memory entry for a report.
type MemoryRecord struct {
	ReportID   string          `json:"reportId"`
	Key        string          `json:"key"`
	Kind       MemoryKind      `json:"kind"`
	Content    json.RawMessage `json:"content"`
	Importance int             `json:"importance"`
	Category   string          `json:"category"`
	CreatedAt  time.Time       `json:"createdAt"`
	ExpiresAt  time.Time       `json:"expiresAt"`
}

// RecallQuery filters Recall. Empty slices match everything; Limit <= 0
// means no limit.
type RecallQuery struct {
	Kinds         []MemoryKind
	Categories    []string
	MinImportance int
	Limit         int
}

// MemoryStorage keeps agent memories in SQLite. Rows are append-only and
// expire after their TTL; only explicit deletes remove them early.
type MemoryStorage struct {
	db  *sql.DB
	now func() time.Time

	mu        sync.Mutex
	lastStamp time.Time
}

const memorySchema = `
CREATE TABLE IF NOT EXISTS memories (
	report_id TEXT NOT NULL,
	key TEXT NOT NULL,
	kind TEXT NOT NULL,
	content TEXT NOT NULL,
	importance INTEGER NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (report_id, key)
);
CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(report_id, importance);
`

func NewMemoryStorage(dataDir string) (*MemoryStorage, error) {
	return OpenMemoryStorage(filepath.Join(dataDir, "memory.db"))
}

func OpenMemoryStorage(dbPath string) (*MemoryStorage, error) {
	db, err := openDB(dbPath, memorySchema)
	if err != nil {
		return nil, err
	}

	ms := &MemoryStorage{db: db, now: time.Now}

	if err := ms.migrateSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	if n, err := ms.PurgeExpired(context.Background()); err != nil {
		config.DebugLog.Warn("[Storage] purge of expired memories failed", zap.Error(err))
	} else if n > 0 {
		config.DebugLog.Info("[Storage] purged expired memories", zap.Int64("rows", n))
	}

	return ms, nil
}

// migrateSchema adds the category column to databases created before
// memories were categorised.
func (ms *MemoryStorage) migrateSchema() error {
	hasCategory, err := columnExists(ms.db, "memories", "category")
	if err != nil {
		return fmt.Errorf("failed to check for category column: %w", err)
	}
	if !hasCategory {
		if _, err := ms.db.Exec(`ALTER TABLE memories ADD COLUMN category TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("failed to add category column: %w", err)
		}
	}
	return nil
}

// SetClock replaces the time source. Tests use it to control expiry.
func (ms *MemoryStorage) SetClock(now func() time.Time) {
	ms.now = now
}

// stamp returns a creation time strictly after the previous one handed out
// by this store, so keys never collide within a process.
func (ms *MemoryStorage) stamp() time.Time {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	t := ms.now().UTC().Truncate(time.Microsecond)
	if !t.After(ms.lastStamp) {
		t = ms.lastStamp.Add(time.Microsecond)
	}
	ms.lastStamp = t
	return t
}

func memoryKey(kind MemoryKind, t time.Time) string {
	return fmt.Sprintf("%s#%s", kind, t.Format("2006-01-02T15:04:05.000000Z07:00"))
}

// Store persists a memory and returns the stored record. The key is
// "{kind}#{ISO-8601 timestamp}".
func (ms *MemoryStorage) Store(ctx context.Context, reportID string, kind MemoryKind, content any, category string, importance, ttlDays int) (*MemoryRecord, error) {
	if reportID == "" {
		return nil, fmt.Errorf("report id is required")
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid memory kind %q", kind)
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize memory content: %w", err)
	}

	const attempts = 5
	for i := 0; i < attempts; i++ {
		created := ms.stamp()
		rec := &MemoryRecord{
			ReportID:   reportID,
			Key:        memoryKey(kind, created),
			Kind:       kind,
			Content:    raw,
			Importance: importance,
			Category:   category,
			CreatedAt:  created,
			ExpiresAt:  created.AddDate(0, 0, ttlDays),
		}

		_, err = ms.db.ExecContext(ctx, `
		INSERT INTO memories (report_id, key, kind, content, importance, category, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ReportID, rec.Key, string(rec.Kind), string(rec.Content), rec.Importance, rec.Category,
			rec.CreatedAt.UnixNano(), rec.ExpiresAt.UnixNano())
		if err == nil {
			return rec, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to store memory: %w", err)
		}
		// another process wrote the same key; take a later stamp
	}

	return nil, fmt.Errorf("failed to store memory after %d attempts: %w", attempts, err)
}

// Recall returns unexpired memories of a report ordered by importance, then
// most recent first.
func (ms *MemoryStorage) Recall(ctx context.Context, reportID string, q RecallQuery) ([]MemoryRecord, error) {
	var (
		where = []string{"report_id = ?", "expires_at > ?", "importance >= ?"}
		args  = []any{reportID, ms.now().UTC().UnixNano(), q.MinImportance}
	)

	if len(q.Kinds) > 0 {
		where = append(where, "kind IN ("+placeholders(len(q.Kinds))+")")
		for _, k := range q.Kinds {
			args = append(args, string(k))
		}
	}
	if len(q.Categories) > 0 {
		where = append(where, "category IN ("+placeholders(len(q.Categories))+")")
		for _, c := range q.Categories {
			args = append(args, c)
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	query := `
	SELECT report_id, key, kind, content, importance, category, created_at, expires_at
	FROM memories
	WHERE ` + strings.Join(where, " AND ") + `
	ORDER BY importance DESC, created_at DESC
	LIMIT ?`

	rows, err := ms.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	records := []MemoryRecord{}
	for rows.Next() {
		var (
			rec              MemoryRecord
			kind, content    string
			created, expires int64
		)
		if err := rows.Scan(&rec.ReportID, &rec.Key, &kind, &content, &rec.Importance, &rec.Category, &created, &expires); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		rec.Kind = MemoryKind(kind)
		rec.Content = json.RawMessage(content)
		rec.CreatedAt = time.Unix(0, created).UTC()
		rec.ExpiresAt = time.Unix(0, expires).UTC()
		records = append(records, rec)
	}

	return records, rows.Err()
}

// DeleteAll removes every memory of a report and returns how many were removed.
func (ms *MemoryStorage) DeleteAll(ctx context.Context, reportID string) (int64, error) {
	res, err := ms.db.ExecContext(ctx, `DELETE FROM memories WHERE report_id = ?`, reportID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memories: %w", err)
	}
	return res.RowsAffected()
}

func (ms *MemoryStorage) DeleteOne(ctx context.Context, reportID, key string) error {
	res, err := ms.db.ExecContext(ctx, `DELETE FROM memories WHERE report_id = ? AND key = ?`, reportID, key)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("memory %s of report %s: %w", key, reportID, ErrNotFound)
	}
	return nil
}

// PurgeExpired deletes rows whose TTL has passed.
func (ms *MemoryStorage) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := ms.db.ExecContext(ctx, `DELETE FROM memories WHERE expires_at <= ?`, ms.now().UTC().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (ms *MemoryStorage) Close() error {
	if ms.db != nil {
		return ms.db.Close()
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
