package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/husain-clintel/Pharmascribe-sub000/agent"
	"github.com/husain-clintel/Pharmascribe-sub000/prompt"
	"github.com/husain-clintel/Pharmascribe-sub000/provider/testutil"
	"github.com/husain-clintel/Pharmascribe-sub000/report"
	"github.com/husain-clintel/Pharmascribe-sub000/storage"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"chat"},
		{"report", "import"},
		{"report", "show"},
		{"memory", "list"},
		{"memory", "clear"},
		{"memory", "delete"},
		{"mcp"},
		{"config", "set-key"},
		{"config", "set"},
		{"config", "check"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestChatModelFlag(t *testing.T) {
	cmd, _, err := newRootCmd().Find([]string{"chat"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{"--model", "qwen3:14b"}))
	v, err := cmd.Flags().GetString("model")
	require.NoError(t, err)
	assert.Equal(t, "qwen3:14b", v)
}

func TestPrepareProvider(t *testing.T) {
	p := testutil.NewMockProvider("llama3.1:latest")
	var pinged int
	p.PingFunc = func(ctx context.Context) error {
		pinged++
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	}

	require.NoError(t, prepareProvider(context.Background(), p, ""))
	assert.Equal(t, "llama3.1:latest", p.GetModel())

	require.NoError(t, prepareProvider(context.Background(), p, "qwen3:14b"))
	assert.Equal(t, "qwen3:14b", p.GetModel())
	assert.Equal(t, 2, pinged)
}

func TestPrepareProviderUnreachable(t *testing.T) {
	p := testutil.NewMockProvider("claude-sonnet-4-5-20250929")
	p.PingFunc = func(context.Context) error { return errors.New("dial tcp: connection refused") }

	err := prepareProvider(context.Background(), p, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errProviderUnreachable)
	assert.Contains(t, err.Error(), "claude-sonnet-4-5-20250929")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestExchangeTurns(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		req  agent.Request
		res  agent.Result
		want []report.ConversationMessage
	}{
		{
			name: "message and response",
			req:  agent.Request{ReportID: "r1", Message: "Tighten the summary."},
			res:  agent.Result{Success: true, Response: "Done."},
			want: []report.ConversationMessage{
				{Role: "user", Content: "Tighten the summary.", Timestamp: now},
				{Role: "assistant", Content: "Done.", Timestamp: now},
			},
		},
		{
			name: "answer replaces message",
			req: agent.Request{ReportID: "r1", Message: "ignored",
				QuestionResponse: &agent.QuestionResponse{QuestionID: "q1", Answer: agent.Answer{"ng/mL", "nM"}}},
			res: agent.Result{Success: true, Response: "Using ng/mL."},
			want: []report.ConversationMessage{
				{Role: "user", Content: "ng/mL, nM", Timestamp: now},
				{Role: "assistant", Content: "Using ng/mL.", Timestamp: now},
			},
		},
		{
			name: "generate without message",
			req:  agent.Request{ReportID: "r1", Action: prompt.ActionGenerate, Section: "methods"},
			res:  agent.Result{Success: false, Error: "Request cancelled"},
			want: []report.ConversationMessage{
				{Role: "user", Content: "[generate methods]", Timestamp: now},
				{Role: "assistant", Content: "Error: Request cancelled", Timestamp: now},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exchangeTurns(tt.req, tt.res, now))
		})
	}
}

func TestRecordExchangePersistsPendingQuestion(t *testing.T) {
	cs, err := storage.NewConversationStorage(t.TempDir())
	require.NoError(t, err)

	q := &report.PendingQuestion{ID: "q1", Question: "Which units?", Options: []report.QuestionOption{{ID: "a", Label: "ng/mL"}}}
	req := agent.Request{ReportID: "r1", Message: "Write the results."}
	res := agent.Result{Success: true, Response: q.Question, Question: q, RequiresInput: true}
	require.NoError(t, recordExchange(cs, req, res, time.Now()))

	conv, err := cs.Load("r1")
	require.NoError(t, err)
	require.NotNil(t, conv.PendingQuestion)
	assert.Equal(t, "q1", conv.PendingQuestion.ID)
	assert.Len(t, conv.Messages, 2)

	answered := agent.Request{ReportID: "r1", QuestionResponse: answerPending(conv.PendingQuestion, []string{"a"})}
	assert.Equal(t, "q1", answered.QuestionResponse.QuestionID)
	assert.Equal(t, agent.Answer{"ng/mL"}, answered.QuestionResponse.Answer)

	require.NoError(t, recordExchange(cs, answered, agent.Result{Success: true, Response: "Done."}, time.Now()))
	conv, err = cs.Load("r1")
	require.NoError(t, err)
	assert.Nil(t, conv.PendingQuestion, "answered question is cleared")
	assert.Len(t, conv.Messages, 4)
}

func TestMergeApplyResult(t *testing.T) {
	res := agent.Result{Success: true}
	mergeApplyResult(&res, report.ApplyResult{
		Updated: []string{"sections:s1"},
		Skipped: []string{"tables:t9"},
		Edits:   []report.TextEdit{{Target: "sections:s1", Inserted: 4, Deleted: 2}},
	})

	require.NotNil(t, res.StepSummary)
	assert.Equal(t, []string{"Updated sections:s1 (+4/-2 chars)"}, res.StepSummary.StepsCompleted)
	assert.Equal(t, []string{"tables:t9"}, res.StepSummary.SkippedUpdates)

	untouched := agent.Result{Success: true}
	mergeApplyResult(&untouched, report.ApplyResult{})
	assert.Nil(t, untouched.StepSummary)
}

func TestReadRequestAcceptsStringAnswer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"action": "chat",
		"reportId": "r1",
		"message": "Use the answer.",
		"questionResponse": {"questionId": "q1", "answer": "ng/mL"}
	}`), 0600))

	req, err := readRequest(path)
	require.NoError(t, err)
	assert.Equal(t, "r1", req.ReportID)
	require.NotNil(t, req.QuestionResponse)
	assert.Equal(t, agent.Answer{"ng/mL"}, req.QuestionResponse.Answer)

	_, err = readRequest(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReportMarkdownOrdersSections(t *testing.T) {
	rc := &report.Context{
		Report: report.Report{Title: "TK of X in rats", Species: "Rat"},
		Sections: []report.Section{
			{ID: "s2", Title: "Results", Content: "Exposure increased.", Order: 2},
			{ID: "s1", Title: "Methods", Content: "Blood was sampled.", Order: 1},
		},
		Tables: []report.Table{{Title: "Cmax", Headers: []string{"Dose", "Cmax"}, Rows: [][]report.Cell{{"10", "12.1"}}}},
	}

	md := reportMarkdown(rc)

	assert.Contains(t, md, "# TK of X in rats")
	assert.Contains(t, md, "**Species:** Rat")
	assert.Less(t, strings.Index(md, "## Methods"), strings.Index(md, "## Results"))
	assert.Contains(t, md, "| Dose | Cmax |\n| --- | --- |\n| 10 | 12.1 |")
}
