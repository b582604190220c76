package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/husain-clintel/Pharmascribe-sub000/report"
	"github.com/husain-clintel/Pharmascribe-sub000/tools"
)

func sampleContext() *report.Context {
	return &report.Context{
		Report: report.Report{ID: "r1", Title: "TK of XY-101 in rats", Species: "rat", StudyType: "repeat_dose"},
		Sections: []report.Section{
			{ID: "s2", Type: "results", Title: "Results", Content: "Exposure increased with dose.", Order: 2},
			{ID: "s1", Type: "summary", Title: "Summary", Content: strings.Repeat("long text ", 500), Order: 1},
		},
		Tables: []report.Table{{
			ID: "t1", Title: "Mean Cmax", Headers: []string{"Dose", "Cmax"},
			Rows: [][]report.Cell{{"10", "1520"}, {"30", "4210"}},
		}},
	}
}

func TestBuildOrder(t *testing.T) {
	out := Build(Input{
		Action:     ActionChat,
		ReportID:   "r1",
		Message:    "fix species casing",
		Context:    sampleContext(),
		QCFindings: []report.QCIssue{{Severity: report.SeverityWarning, Category: "terminology", Message: "Lowercase species"}},
		History:    []report.ConversationMessage{{Role: "user", Content: "hello"}},
		Answer:     &Answer{QuestionID: "q1", Values: []string{"ng/mL"}},
	})

	markers := []string{
		thoroughness,
		"## Answer to your previous question",
		"## Report",
		"#### Summary [id: s1",
		"#### Results [id: s2",
		"| 30 | 4210 |",
		"## QC findings to address",
		"## Recent conversation",
		"## Task",
		"User message: fix species casing",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(out, m)
		require.GreaterOrEqual(t, idx, 0, "missing %q", m)
		assert.Greater(t, idx, last, "%q out of order", m)
		last = idx
	}
	assert.Contains(t, out, strings.Repeat("long text ", 499), "section content must not be truncated")
}

func TestBuildIsDeterministic(t *testing.T) {
	in := Input{Action: ActionGenerate, ReportID: "r1", Section: "toxicokinetics", Context: sampleContext()}
	assert.Equal(t, Build(in), Build(in))
}

func TestBuildOmitsOptionalSections(t *testing.T) {
	out := Build(Input{Action: ActionChat, ReportID: "r9"})

	assert.NotContains(t, out, "## Answer to your previous question")
	assert.NotContains(t, out, "## QC findings")
	assert.NotContains(t, out, "## Recent conversation")
	assert.Contains(t, out, "Report id: r9")
}

func TestBuildHistoryWindow(t *testing.T) {
	var history []report.ConversationMessage
	for i := 0; i < 15; i++ {
		history = append(history, report.ConversationMessage{Role: "user", Content: string(rune('a' + i))})
	}

	out := Build(Input{Action: ActionChat, ReportID: "r1", History: history})
	assert.NotContains(t, out, "user: e\n")
	assert.Contains(t, out, "user: f\n")
	assert.Contains(t, out, "user: o\n")

	out = Build(Input{Action: ActionChat, ReportID: "r1", History: history, HistoryWindow: 3})
	assert.NotContains(t, out, "user: l\n")
	assert.Contains(t, out, "user: m\n")
}

func TestBuildActionBlocks(t *testing.T) {
	gen := Build(Input{Action: ActionGenerate, ReportID: "r1", Section: "methods"})
	assert.Contains(t, gen, `Generate the "methods" section`)

	regen := Build(Input{Action: ActionRegenerate, ReportID: "r1", Section: "summary"})
	assert.Contains(t, regen, `Rewrite the existing "summary" section`)

	chat := Build(Input{Action: ActionChat, ReportID: "r1"})
	assert.Contains(t, chat, "Respond to the user's message")
}

func TestBuildMultiSelectAnswer(t *testing.T) {
	out := Build(Input{Action: ActionChat, ReportID: "r1", Answer: &Answer{Values: []string{"Cmax", "AUC"}}})
	assert.Contains(t, out, "The user selected:\n- Cmax\n- AUC\n")
}

func TestSystemPromptTerminologyPassesQC(t *testing.T) {
	var line string
	for _, l := range strings.Split(SystemPrompt, "\n") {
		if strings.Contains(l, "established terminology") {
			line = l
		}
	}
	require.NotEmpty(t, line)

	res, err := tools.RunQC(line, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
	assert.Equal(t, 100, res.Score)
}
