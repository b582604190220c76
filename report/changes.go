package report

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"github.com/husain-clintel/Pharmascribe-sub000/config"
)

// ChangeSet is the structured edit payload proposed by the agent. Updates
// reference existing entities by id; additions may omit the id.
type ChangeSet struct {
	Sections       []SectionChange `json:"sections,omitempty"`
	Tables         []TableChange   `json:"tables,omitempty"`
	NewTables      []Table         `json:"newTables,omitempty"`
	Figures        []FigureChange  `json:"figures,omitempty"`
	NewFigures     []Figure        `json:"newFigures,omitempty"`
	AppendixTables []TableChange   `json:"appendixTables,omitempty"`
}

// SectionChange is a partial section update. Nil fields are left untouched.
type SectionChange struct {
	ID      string  `json:"id"`
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

type TableChange struct {
	ID        string   `json:"id"`
	Title     *string  `json:"title,omitempty"`
	Caption   *string  `json:"caption,omitempty"`
	Headers   []string `json:"headers,omitempty"`
	Rows      [][]Cell `json:"rows,omitempty"`
	Footnotes []string `json:"footnotes,omitempty"`
}

type FigureChange struct {
	ID      string  `json:"id"`
	Title   *string `json:"title,omitempty"`
	Caption *string `json:"caption,omitempty"`
}

func (cs *ChangeSet) IsEmpty() bool {
	return cs == nil || len(cs.Sections)+len(cs.Tables)+len(cs.NewTables)+
		len(cs.Figures)+len(cs.NewFigures)+len(cs.AppendixTables) == 0
}

// TextEdit records how much text an applied update changed.
type TextEdit struct {
	Target   string `json:"target"`
	Inserted int    `json:"inserted"`
	Deleted  int    `json:"deleted"`
}

// ApplyResult lists what ApplyChanges did, as "collection:id" references.
type ApplyResult struct {
	Updated []string   `json:"updated,omitempty"`
	Added   []string   `json:"added,omitempty"`
	Skipped []string   `json:"skipped,omitempty"`
	Edits   []TextEdit `json:"edits,omitempty"`
}

// Summary renders the result as human-readable step lines.
func (r ApplyResult) Summary() []string {
	var lines []string
	for _, e := range r.Edits {
		lines = append(lines, fmt.Sprintf("Updated %s (+%d/-%d chars)", e.Target, e.Inserted, e.Deleted))
	}
	for _, a := range r.Added {
		lines = append(lines, "Added "+a)
	}
	for _, s := range r.Skipped {
		lines = append(lines, "Skipped "+s+": no such id in this report")
	}
	return lines
}

// ApplyChanges applies cs to rc in place. Updates whose id matches nothing
// are skipped and reported, never treated as failures.
func ApplyChanges(rc *Context, cs ChangeSet) ApplyResult {
	var res ApplyResult
	dmp := diffmatchpatch.New()

	record := func(target, before, after string) {
		if before == after {
			return
		}
		ins, del := diffSize(dmp, before, after)
		res.Edits = append(res.Edits, TextEdit{Target: target, Inserted: ins, Deleted: del})
	}
	skip := func(collection, id string) {
		ref := collection + ":" + id
		config.DebugLog.Info("[Report] skipping update for unknown id", zap.String("ref", ref), zap.String("report_id", rc.Report.ID))
		res.Skipped = append(res.Skipped, ref)
	}

	for _, ch := range cs.Sections {
		idx := indexOf(rc.Sections, func(s Section) string { return s.ID }, ch.ID)
		if idx < 0 {
			skip("sections", ch.ID)
			continue
		}
		s := &rc.Sections[idx]
		ref := "sections:" + ch.ID
		if ch.Title != nil {
			s.Title = *ch.Title
		}
		if ch.Content != nil {
			record(ref, s.Content, *ch.Content)
			s.Content = *ch.Content
		}
		res.Updated = append(res.Updated, ref)
	}

	applyTable := func(collection string, ch TableChange, appendix bool) {
		idx := indexOf(rc.Tables, func(t Table) string { return t.ID }, ch.ID)
		if idx < 0 {
			skip(collection, ch.ID)
			return
		}
		t := &rc.Tables[idx]
		ref := collection + ":" + ch.ID
		if ch.Title != nil {
			t.Title = *ch.Title
		}
		if ch.Caption != nil {
			record(ref+"/caption", t.Caption, *ch.Caption)
			t.Caption = *ch.Caption
		}
		if ch.Headers != nil {
			t.Headers = ch.Headers
		}
		if ch.Rows != nil {
			record(ref+"/rows", renderRows(t.Rows), renderRows(ch.Rows))
			t.Rows = ch.Rows
		}
		if ch.Footnotes != nil {
			t.Footnotes = ch.Footnotes
		}
		if appendix {
			t.Appendix = true
		}
		res.Updated = append(res.Updated, ref)
	}
	for _, ch := range cs.Tables {
		applyTable("tables", ch, false)
	}
	for _, ch := range cs.AppendixTables {
		applyTable("appendixTables", ch, true)
	}

	for _, t := range cs.NewTables {
		if t.ID == "" || indexOf(rc.Tables, func(x Table) string { return x.ID }, t.ID) >= 0 {
			t.ID = uuid.New().String()
		}
		if t.Order == 0 {
			t.Order = len(rc.Tables) + 1
		}
		rc.Tables = append(rc.Tables, t)
		res.Added = append(res.Added, "newTables:"+t.ID)
	}

	for _, ch := range cs.Figures {
		idx := indexOf(rc.Figures, func(f Figure) string { return f.ID }, ch.ID)
		if idx < 0 {
			skip("figures", ch.ID)
			continue
		}
		f := &rc.Figures[idx]
		if ch.Title != nil {
			f.Title = *ch.Title
		}
		if ch.Caption != nil {
			record("figures:"+ch.ID, f.Caption, *ch.Caption)
			f.Caption = *ch.Caption
		}
		res.Updated = append(res.Updated, "figures:"+ch.ID)
	}

	for _, f := range cs.NewFigures {
		if f.ID == "" || indexOf(rc.Figures, func(x Figure) string { return x.ID }, f.ID) >= 0 {
			f.ID = uuid.New().String()
		}
		if f.Order == 0 {
			f.Order = len(rc.Figures) + 1
		}
		rc.Figures = append(rc.Figures, f)
		res.Added = append(res.Added, "newFigures:"+f.ID)
	}

	return res
}

func indexOf[T any](items []T, id func(T) string, want string) int {
	if want == "" {
		return -1
	}
	for i, it := range items {
		if id(it) == want {
			return i
		}
	}
	return -1
}

func diffSize(dmp *diffmatchpatch.DiffMatchPatch, before, after string) (inserted, deleted int) {
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			deleted += len([]rune(d.Text))
		}
	}
	return inserted, deleted
}

func renderRows(rows [][]Cell) string {
	var out []byte
	for _, row := range rows {
		for i, c := range row {
			if i > 0 {
				out = append(out, '\t')
			}
			out = append(out, c...)
		}
		out = append(out, '\n')
	}
	return string(out)
}
