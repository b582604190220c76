package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/husain-clintel/Pharmascribe-sub000/report"
)

// ReportStorage is the relational store for reports and their sections,
// tables and figures.
type ReportStorage struct {
	db *sql.DB
}

const reportSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	study_number TEXT NOT NULL DEFAULT '',
	study_type TEXT NOT NULL DEFAULT '',
	species TEXT NOT NULL DEFAULT '',
	compound TEXT NOT NULL DEFAULT '',
	route TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'draft',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS sections (
	id TEXT PRIMARY KEY,
	report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	sort_order INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS report_tables (
	id TEXT PRIMARY KEY,
	report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	caption TEXT NOT NULL DEFAULT '',
	headers TEXT NOT NULL,
	rows_json TEXT NOT NULL,
	footnotes TEXT NOT NULL,
	appendix INTEGER NOT NULL DEFAULT 0,
	sort_order INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS figures (
	id TEXT PRIMARY KEY,
	report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	caption TEXT NOT NULL DEFAULT '',
	path TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sections_report ON sections(report_id);
CREATE INDEX IF NOT EXISTS idx_tables_report ON report_tables(report_id);
CREATE INDEX IF NOT EXISTS idx_figures_report ON figures(report_id);
`

func NewReportStorage(dataDir string) (*ReportStorage, error) {
	return OpenReportStorage(filepath.Join(dataDir, "reports.db"))
}

func OpenReportStorage(dbPath string) (*ReportStorage, error) {
	db, err := openDB(dbPath, reportSchema)
	if err != nil {
		return nil, err
	}
	return &ReportStorage{db: db}, nil
}

// Create stores a new report context, assigning ids to the report and to
// any section, table or figure without one.
func (rs *ReportStorage) Create(ctx context.Context, rc *report.Context) (string, error) {
	if rc.Report.ID == "" {
		rc.Report.ID = uuid.New().String()
	}
	for i := range rc.Sections {
		if rc.Sections[i].ID == "" {
			rc.Sections[i].ID = uuid.New().String()
		}
	}
	for i := range rc.Tables {
		if rc.Tables[i].ID == "" {
			rc.Tables[i].ID = uuid.New().String()
		}
	}
	for i := range rc.Figures {
		if rc.Figures[i].ID == "" {
			rc.Figures[i].ID = uuid.New().String()
		}
	}

	now := time.Now().UTC()
	rc.Report.CreatedAt = now
	if rc.Report.Status == "" {
		rc.Report.Status = "draft"
	}

	if err := rs.Save(ctx, rc); err != nil {
		return "", err
	}
	return rc.Report.ID, nil
}

// Save writes the whole context in one transaction. Children that are no
// longer part of the context are removed.
func (rs *ReportStorage) Save(ctx context.Context, rc *report.Context) (err error) {
	if rc.Report.ID == "" {
		return fmt.Errorf("report id is required")
	}
	rc.Report.UpdatedAt = time.Now().UTC()
	if rc.Report.CreatedAt.IsZero() {
		rc.Report.CreatedAt = rc.Report.UpdatedAt
	}

	tx, err := rs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	r := rc.Report
	_, err = tx.ExecContext(ctx, `
	INSERT INTO reports (id, title, study_number, study_type, species, compound, route, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		study_number = excluded.study_number,
		study_type = excluded.study_type,
		species = excluded.species,
		compound = excluded.compound,
		route = excluded.route,
		status = excluded.status,
		updated_at = excluded.updated_at`,
		r.ID, r.Title, r.StudyNumber, r.StudyType, r.Species, r.Compound, r.Route, r.Status, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	for _, table := range []string{"sections", "report_tables", "figures"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE report_id = ?", r.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, s := range rc.Sections {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO sections (id, report_id, type, title, content, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
			s.ID, r.ID, s.Type, s.Title, s.Content, s.Order)
		if err != nil {
			return fmt.Errorf("failed to save section %s: %w", s.ID, err)
		}
	}

	for _, t := range rc.Tables {
		headers, _ := json.Marshal(t.Headers)
		rows, _ := json.Marshal(t.Rows)
		footnotes, _ := json.Marshal(t.Footnotes)
		_, err = tx.ExecContext(ctx, `
		INSERT INTO report_tables (id, report_id, title, caption, headers, rows_json, footnotes, appendix, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, r.ID, t.Title, t.Caption, string(headers), string(rows), string(footnotes), t.Appendix, t.Order)
		if err != nil {
			return fmt.Errorf("failed to save table %s: %w", t.ID, err)
		}
	}

	for _, f := range rc.Figures {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO figures (id, report_id, title, caption, path, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, r.ID, f.Title, f.Caption, f.Path, f.Order)
		if err != nil {
			return fmt.Errorf("failed to save figure %s: %w", f.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

// Load reads the full context of a report.
func (rs *ReportStorage) Load(ctx context.Context, reportID string) (*report.Context, error) {
	rc := &report.Context{}
	r := &rc.Report
	err := rs.db.QueryRowContext(ctx, `
	SELECT id, title, study_number, study_type, species, compound, route, status, created_at, updated_at
	FROM reports WHERE id = ?`, reportID).Scan(
		&r.ID, &r.Title, &r.StudyNumber, &r.StudyType, &r.Species, &r.Compound, &r.Route, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", reportID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	if rc.Sections, err = rs.loadSections(ctx, reportID); err != nil {
		return nil, err
	}
	if rc.Tables, err = rs.loadTables(ctx, reportID); err != nil {
		return nil, err
	}
	if rc.Figures, err = rs.loadFigures(ctx, reportID); err != nil {
		return nil, err
	}
	return rc, nil
}

func (rs *ReportStorage) loadSections(ctx context.Context, reportID string) ([]report.Section, error) {
	rows, err := rs.db.QueryContext(ctx, `
	SELECT id, type, title, content, sort_order FROM sections WHERE report_id = ? ORDER BY sort_order, id`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sections: %w", err)
	}
	defer rows.Close()

	var sections []report.Section
	for rows.Next() {
		var s report.Section
		if err := rows.Scan(&s.ID, &s.Type, &s.Title, &s.Content, &s.Order); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (rs *ReportStorage) loadTables(ctx context.Context, reportID string) ([]report.Table, error) {
	rows, err := rs.db.QueryContext(ctx, `
	SELECT id, title, caption, headers, rows_json, footnotes, appendix, sort_order
	FROM report_tables WHERE report_id = ? ORDER BY sort_order, id`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}
	defer rows.Close()

	var tables []report.Table
	for rows.Next() {
		var (
			t                           report.Table
			headers, cells, footnotes string
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Caption, &headers, &cells, &footnotes, &t.Appendix, &t.Order); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		if err := json.Unmarshal([]byte(headers), &t.Headers); err != nil {
			return nil, fmt.Errorf("table %s headers: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(cells), &t.Rows); err != nil {
			return nil, fmt.Errorf("table %s rows: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(footnotes), &t.Footnotes); err != nil {
			return nil, fmt.Errorf("table %s footnotes: %w", t.ID, err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (rs *ReportStorage) loadFigures(ctx context.Context, reportID string) ([]report.Figure, error) {
	rows, err := rs.db.QueryContext(ctx, `
	SELECT id, title, caption, path, sort_order FROM figures WHERE report_id = ? ORDER BY sort_order, id`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load figures: %w", err)
	}
	defer rows.Close()

	var figures []report.Figure
	for rows.Next() {
		var f report.Figure
		if err := rows.Scan(&f.ID, &f.Title, &f.Caption, &f.Path, &f.Order); err != nil {
			return nil, fmt.Errorf("failed to scan figure: %w", err)
		}
		figures = append(figures, f)
	}
	return figures, rows.Err()
}

// List returns report metadata, most recently updated first.
func (rs *ReportStorage) List(ctx context.Context) ([]report.Report, error) {
	rows, err := rs.db.QueryContext(ctx, `
	SELECT id, title, study_number, study_type, species, compound, route, status, created_at, updated_at
	FROM reports ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []report.Report
	for rows.Next() {
		var r report.Report
		if err := rows.Scan(&r.ID, &r.Title, &r.StudyNumber, &r.StudyType, &r.Species, &r.Compound, &r.Route, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (rs *ReportStorage) Delete(ctx context.Context, reportID string) error {
	res, err := rs.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, reportID)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("report %s: %w", reportID, ErrNotFound)
	}
	return nil
}

func (rs *ReportStorage) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}
