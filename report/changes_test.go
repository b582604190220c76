package report

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func sampleContext() *Context {
	return &Context{
		Report: Report{ID: "r1", Title: "TK of Compound X in Rats", Species: "rat"},
		Sections: []Section{
			{ID: "s1", Type: "summary", Title: "Summary", Content: "Exposure increased in Rats.", Order: 1},
			{ID: "s2", Type: "methods", Title: "Methods", Content: "NCA was used.", Order: 2},
		},
		Tables: []Table{
			{ID: "t1", Title: "Cmax", Headers: []string{"Dose", "Cmax"}, Rows: [][]Cell{{"10", "1.2"}}, Order: 1},
		},
		Figures: []Figure{{ID: "f1", Title: "Mean concentration", Order: 1}},
	}
}

func TestApplyChangesUpdatesAndSkips(t *testing.T) {
	rc := sampleContext()
	cs := ChangeSet{
		Sections: []SectionChange{
			{ID: "s1", Content: ptr("Exposure increased in rats.")},
			{ID: "missing", Content: ptr("ignored")},
		},
		Tables:     []TableChange{{ID: "t1", Rows: [][]Cell{{"10", "1.25"}}}},
		Figures:    []FigureChange{{ID: "f9", Caption: ptr("nope")}},
		NewFigures: []Figure{{Title: "Individual profiles"}},
	}

	res := ApplyChanges(rc, cs)

	assert.Equal(t, "Exposure increased in rats.", rc.Sections[0].Content)
	assert.Equal(t, "NCA was used.", rc.Sections[1].Content)
	assert.Equal(t, Cell("1.25"), rc.Tables[0].Rows[0][1])
	require.Len(t, rc.Figures, 2)
	assert.NotEmpty(t, rc.Figures[1].ID)
	assert.Equal(t, 2, rc.Figures[1].Order)

	assert.Equal(t, []string{"sections:s1", "tables:t1"}, res.Updated)
	assert.Equal(t, []string{"sections:missing", "figures:f9"}, res.Skipped)
	require.Len(t, res.Added, 1)

	require.Len(t, res.Edits, 2)
	assert.Equal(t, "sections:s1", res.Edits[0].Target)
	assert.Equal(t, 1, res.Edits[0].Inserted)
	assert.Equal(t, 1, res.Edits[0].Deleted)
}

func TestApplyChangesAppendixMarksTable(t *testing.T) {
	rc := sampleContext()
	res := ApplyChanges(rc, ChangeSet{AppendixTables: []TableChange{{ID: "t1", Caption: ptr("Appendix 1")}}})

	assert.True(t, rc.Tables[0].Appendix)
	assert.Equal(t, "Appendix 1", rc.Tables[0].Caption)
	assert.Equal(t, []string{"appendixTables:t1"}, res.Updated)
}

func TestApplyChangesNewTableKeepsFreshID(t *testing.T) {
	rc := sampleContext()
	ApplyChanges(rc, ChangeSet{NewTables: []Table{{ID: "t-new", Title: "AUC"}, {ID: "t1", Title: "Clash"}}})

	require.Len(t, rc.Tables, 3)
	assert.Equal(t, "t-new", rc.Tables[1].ID)
	assert.NotEqual(t, "t1", rc.Tables[2].ID, "colliding id must be reassigned")
}

func TestChangeSetDecodesNumericCells(t *testing.T) {
	var cs ChangeSet
	payload := `{"tables":[{"id":"t1","rows":[[10, "1.2", null, true]]}],"sections":[{"id":"s1","content":"x"}]}`
	require.NoError(t, json.Unmarshal([]byte(payload), &cs))

	want := ChangeSet{
		Tables:   []TableChange{{ID: "t1", Rows: [][]Cell{{"10", "1.2", "", "true"}}}},
		Sections: []SectionChange{{ID: "s1", Content: ptr("x")}},
	}
	if diff := cmp.Diff(want, cs); diff != "" {
		t.Errorf("ChangeSet mismatch (-want +got):\n%s", diff)
	}
}

func TestChangeSetIsEmpty(t *testing.T) {
	var nilSet *ChangeSet
	assert.True(t, nilSet.IsEmpty())
	assert.True(t, (&ChangeSet{}).IsEmpty())
	assert.False(t, (&ChangeSet{NewFigures: []Figure{{}}}).IsEmpty())
}

func TestApplyResultSummary(t *testing.T) {
	res := ApplyResult{
		Added:   []string{"newTables:t2"},
		Skipped: []string{"sections:x"},
		Edits:   []TextEdit{{Target: "sections:s1", Inserted: 3, Deleted: 1}},
	}
	assert.Equal(t, []string{
		"Updated sections:s1 (+3/-1 chars)",
		"Added newTables:t2",
		"Skipped sections:x: no such id in this report",
	}, res.Summary())
}
