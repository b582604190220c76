package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/husain-clintel/Pharmascribe-sub000/agent"
	"github.com/husain-clintel/Pharmascribe-sub000/config"
	"github.com/husain-clintel/Pharmascribe-sub000/prompt"
	"github.com/husain-clintel/Pharmascribe-sub000/report"
	"github.com/husain-clintel/Pharmascribe-sub000/storage"
	"github.com/husain-clintel/Pharmascribe-sub000/ui"
)

type chatOptions struct {
	reportID    string
	model       string
	action      string
	section     string
	message     string
	requestFile string
	answers     []string
	apply       bool
	jsonOut     bool
	interactive bool
	copy        bool
}

func newChatCmd() *cobra.Command {
	var opts chatOptions

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run the report agent once",
		Long: `Run the report agent for one request and print its result.

The report context and conversation history are loaded from the data
directory unless a request file supplies them. When the agent asks a
question, answer it with --answer on the next call, or pass --interactive
to be prompted right away.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.reportID, "report", "r", "", "report id")
	f.StringVar(&opts.model, "model", "", "model to use instead of the configured one")
	f.StringVarP(&opts.action, "action", "a", string(prompt.ActionChat), "chat, generate or regenerate")
	f.StringVarP(&opts.section, "section", "s", "", "section to generate or regenerate")
	f.StringVarP(&opts.message, "message", "m", "", "message to the agent")
	f.StringVar(&opts.requestFile, "request", "", "read the full request as JSON from a file (- for stdin)")
	f.StringArrayVar(&opts.answers, "answer", nil, "answer to the pending question: option id, option number or free text (repeatable)")
	f.BoolVar(&opts.apply, "apply", false, "apply proposed changes to the stored report")
	f.BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "prompt for answers to agent questions")
	f.BoolVar(&opts.copy, "copy", false, "copy the agent response to the clipboard")
	return cmd
}

func runChat(ctx context.Context, out io.Writer, opts chatOptions) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.newProvider()
	if err != nil {
		return err
	}
	if err := prepareProvider(ctx, p, opts.model); err != nil {
		return err
	}
	svc := a.service(p)

	req, err := buildRequest(ctx, a, opts)
	if err != nil {
		return err
	}

	for {
		res := svc.Handle(ctx, req)

		if err := recordExchange(a.conversations, req, res, time.Now()); err != nil {
			config.DebugLog.Warn("[App] failed to save conversation", zap.Error(err), zap.String("report_id", req.ReportID))
		}
		if opts.apply && res.Success && !res.Changes.IsEmpty() {
			if err := applyToStore(ctx, a.reports, req.ReportID, &res); err != nil {
				return err
			}
		}

		if err := printResult(out, res, opts.jsonOut); err != nil {
			return err
		}
		if opts.copy && res.Response != "" {
			if err := clipboard.WriteAll(res.Response); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not copy to clipboard: %v\n", err)
			}
		}

		if !opts.interactive || !res.RequiresInput || res.Question == nil {
			if !res.Success {
				return errors.New("agent run failed")
			}
			return nil
		}

		answer, err := ui.AskQuestion(res.Question)
		if err != nil {
			return err
		}
		if req, err = followUp(a, req, res.Question, answer); err != nil {
			return err
		}
	}
}

// buildRequest assembles the request from a request file or from flags and
// fills what the caller left out from the stores.
func buildRequest(ctx context.Context, a *app, opts chatOptions) (agent.Request, error) {
	var req agent.Request
	if opts.requestFile != "" {
		r, err := readRequest(opts.requestFile)
		if err != nil {
			return req, err
		}
		req = r
	}

	if opts.reportID != "" {
		req.ReportID = opts.reportID
	}
	if req.Action == "" {
		req.Action = prompt.Action(opts.action)
	}
	if opts.section != "" {
		req.Section = opts.section
	}
	if opts.message != "" {
		req.Message = opts.message
	}
	if strings.TrimSpace(req.ReportID) == "" {
		return req, errors.New("a report id is required (--report)")
	}

	if req.Context == nil {
		rc, err := a.reports.Load(ctx, req.ReportID)
		switch {
		case err == nil:
			req.Context = rc
		case errors.Is(err, storage.ErrNotFound):
			config.DebugLog.Info("[App] report not in store, running without context", zap.String("report_id", req.ReportID))
		default:
			return req, err
		}
	}

	conv, err := a.conversations.Load(req.ReportID)
	if err != nil {
		return req, err
	}
	if req.ConversationHistory == nil {
		req.ConversationHistory = conv.Messages
	}
	if len(opts.answers) > 0 && req.QuestionResponse == nil {
		req.QuestionResponse = answerPending(conv.PendingQuestion, opts.answers)
	}
	return req, nil
}

func readRequest(path string) (agent.Request, error) {
	var req agent.Request
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("failed to read request: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

func answerPending(q *report.PendingQuestion, values []string) *agent.QuestionResponse {
	qr := &agent.QuestionResponse{Answer: ui.ResolveAnswer(q, values)}
	if q != nil {
		qr.QuestionID = q.ID
	}
	return qr
}

// followUp is the next invocation after the user answered q. The history
// is reloaded so it includes the exchange that asked the question.
func followUp(a *app, prev agent.Request, q *report.PendingQuestion, answer agent.Answer) (agent.Request, error) {
	conv, err := a.conversations.Load(prev.ReportID)
	if err != nil {
		return prev, err
	}
	next := prev
	next.Message = ""
	next.ConversationHistory = conv.Messages
	next.QuestionResponse = &agent.QuestionResponse{QuestionID: q.ID, Answer: answer}
	return next, nil
}

// exchangeTurns renders one invocation as conversation messages.
func exchangeTurns(req agent.Request, res agent.Result, now time.Time) []report.ConversationMessage {
	var user string
	switch {
	case req.QuestionResponse != nil:
		user = strings.Join(req.QuestionResponse.Answer, ", ")
	case req.Message != "":
		user = req.Message
	case req.Action == prompt.ActionGenerate || req.Action == prompt.ActionRegenerate:
		user = fmt.Sprintf("[%s %s]", req.Action, req.Section)
	}

	assistant := res.Response
	if !res.Success {
		assistant = "Error: " + res.Error
	}

	var msgs []report.ConversationMessage
	if user != "" {
		msgs = append(msgs, report.ConversationMessage{Role: "user", Content: user, Timestamp: now})
	}
	if assistant != "" {
		msgs = append(msgs, report.ConversationMessage{Role: "assistant", Content: assistant, Timestamp: now})
	}
	return msgs
}

func recordExchange(cs *storage.ConversationStorage, req agent.Request, res agent.Result, now time.Time) error {
	var pending *report.PendingQuestion
	if res.RequiresInput {
		pending = res.Question
	}
	_, err := cs.Append(req.ReportID, pending, exchangeTurns(req, res, now)...)
	return err
}

func applyToStore(ctx context.Context, rs *storage.ReportStorage, reportID string, res *agent.Result) error {
	rc, err := rs.Load(ctx, reportID)
	if err != nil {
		return fmt.Errorf("cannot apply changes: %w", err)
	}
	ar := report.ApplyChanges(rc, *res.Changes)
	if err := rs.Save(ctx, rc); err != nil {
		return fmt.Errorf("failed to save applied changes: %w", err)
	}
	mergeApplyResult(res, ar)
	return nil
}

// mergeApplyResult adds what ApplyChanges did to the result's step summary.
// Skipped references go to skippedUpdates, everything else to the steps.
func mergeApplyResult(res *agent.Result, ar report.ApplyResult) {
	applied := ar.Summary()[:len(ar.Edits)+len(ar.Added)]
	if len(applied) == 0 && len(ar.Skipped) == 0 {
		return
	}
	if res.StepSummary == nil {
		res.StepSummary = &agent.StepSummary{StepsCompleted: []string{}}
	}
	res.StepSummary.StepsCompleted = append(res.StepSummary.StepsCompleted, applied...)
	res.StepSummary.SkippedUpdates = append(res.StepSummary.SkippedUpdates, ar.Skipped...)
}

func printResult(w io.Writer, res agent.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	styled := ui.IsTerminal(w)
	_, err := io.WriteString(w, ui.RenderResult(res, ui.Width(w), styled))
	return err
}
