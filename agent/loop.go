// Package agent runs the tool-use loop between the language model and the
// report tools and turns its end state into the caller-facing Result.
package agent

import (
	"context"
	"fmt"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/husain-clintel/Pharmascribe-sub000/config"
	"github.com/husain-clintel/Pharmascribe-sub000/model"
	"github.com/husain-clintel/Pharmascribe-sub000/report"
	"github.com/husain-clintel/Pharmascribe-sub000/tools"
)

// Dispatcher is the tool side of the loop. *tools.Registry implements it.
type Dispatcher interface {
	Declarations() []mcptypes.Tool
	Dispatch(ctx context.Context, call model.ToolCall, ec tools.ExecutionContext) model.ToolResult
}

// Config bounds a loop run.
type Config struct {
	MaxTurns         int
	MaxParallelTools int
	ThinkingEnabled  bool
	ThinkingBudget   int
	MaxTokens        int
	SystemPrompt     string
}

func (c Config) withDefaults() Config {
	if c.MaxTurns <= 0 {
		c.MaxTurns = config.DefaultMaxTurns
	}
	if c.MaxParallelTools <= 0 {
		c.MaxParallelTools = config.DefaultParallelTools
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = config.DefaultMaxTokens
	}
	return c
}

type Controller struct {
	provider  model.Provider
	tools     Dispatcher
	extractor BlockExtractor
	cfg       Config
}

func NewController(provider model.Provider, registry Dispatcher, cfg Config) *Controller {
	return &Controller{
		provider:  provider,
		tools:     registry,
		extractor: FenceExtractor{},
		cfg:       cfg.withDefaults(),
	}
}

// SetExtractor replaces the block extractor used on final answers.
func (c *Controller) SetExtractor(x BlockExtractor) {
	c.extractor = x
}

// run is the mutable state of one Run call.
type run struct {
	log       *zap.Logger
	turns     int
	toolsUsed []string
	thinking  []string
	hadThink  bool
	steps     []string
	qcIssues  *int
}

// Run drives the model from the initial user prompt to a terminal state.
// It never returns nil.
func (c *Controller) Run(ctx context.Context, reportID, userPrompt string) *Outcome {
	r := &run{log: config.DebugLog.With(zap.String("report_id", reportID))}
	ec := tools.ExecutionContext{ReportID: reportID}
	decls := c.tools.Declarations()
	transcript := []model.Message{model.UserText(userPrompt)}

	for turn := 1; turn <= c.cfg.MaxTurns; turn++ {
		if ctx.Err() != nil {
			r.log.Info("[Agent] cancelled before turn", zap.Int("turn", turn), zap.Error(ctx.Err()))
			return r.failed(MsgCancelled)
		}
		if err := model.ValidateTranscript(transcript); err != nil {
			r.log.Error("[Agent] invalid transcript", zap.Int("turn", turn), zap.Error(err))
			return r.failed(MsgInvalidTranscript)
		}

		r.turns = turn
		resp, err := c.provider.Invoke(ctx, model.Request{
			SystemPrompt:    c.cfg.SystemPrompt,
			Tools:           decls,
			Transcript:      transcript,
			ThinkingEnabled: c.cfg.ThinkingEnabled,
			ThinkingBudget:  c.cfg.ThinkingBudget,
			MaxTokens:       c.cfg.MaxTokens,
		})
		if err != nil {
			if ctx.Err() != nil {
				r.log.Info("[Agent] cancelled during model call", zap.Int("turn", turn), zap.Error(err))
				return r.failed(MsgCancelled)
			}
			r.log.Error("[Agent] model call failed", zap.Int("turn", turn), zap.Error(err))
			return r.failed(MsgServiceUnavailable)
		}

		assistant := model.Message{Role: model.RoleAssistant, Content: resp.Content, Timestamp: time.Now()}
		r.recordThinking(assistant)
		r.log.Debug("[Agent] model turn",
			zap.Int("turn", turn),
			zap.String("stop_reason", string(resp.StopReason)),
			zap.Int("blocks", len(resp.Content)))

		switch resp.StopReason {
		case model.StopCompleted:
			return r.completed(c.extractor, assistant.Text())

		case model.StopToolUse:
			calls := assistant.ToolCalls()
			if len(calls) == 0 {
				r.log.Error("[Agent] tool_use stop without invocations", zap.Int("turn", turn))
				return r.failed("The model requested tools without naming any.")
			}
			transcript = append(transcript, assistant)

			if q, before, ok := c.findQuestion(calls); ok {
				r.addTools(calls[:before+1])
				// invocations ahead of the question still run; their results are dropped
				if before > 0 {
					r.collect(c.dispatch(ctx, calls[:before], ec))
				}
				r.log.Info("[Agent] paused for question", zap.Int("turn", turn), zap.String("question_id", q.ID))
				return r.awaiting(q)
			}

			r.addTools(calls)
			results := c.dispatch(ctx, calls, ec)
			r.collect(results)

			blocks := make([]model.ContentBlock, len(results))
			for i, res := range results {
				blocks[i] = model.ToolResultBlock(res)
			}
			transcript = append(transcript, model.Message{Role: model.RoleUser, Content: blocks, Timestamp: time.Now()})

		default:
			// should not occur under normal operation
			r.log.Error("[Agent] unexpected stop reason", zap.Int("turn", turn), zap.String("stop_reason", string(resp.StopReason)))
			return r.failed(fmt.Sprintf("The model stopped unexpectedly (%s).", resp.StopReason))
		}
	}

	r.log.Warn("[Agent] turn limit reached", zap.Int("turns", r.turns))
	return r.turnLimit()
}

// findQuestion returns the first well-formed ask_user_question invocation
// and its index. Malformed ones are answered by dispatch like any other tool.
func (c *Controller) findQuestion(calls []model.ToolCall) (*report.PendingQuestion, int, bool) {
	for i, call := range calls {
		if call.Name != tools.AskUserQuestion {
			continue
		}
		if q, err := tools.ParseQuestion(call); err == nil {
			return q, i, true
		}
	}
	return nil, -1, false
}

// dispatch runs calls concurrently and returns results in invocation order.
func (c *Controller) dispatch(ctx context.Context, calls []model.ToolCall, ec tools.ExecutionContext) []model.ToolResult {
	results := make([]model.ToolResult, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxParallelTools)

	for i, call := range calls {
		if call.Name == tools.AskUserQuestion {
			msg := "ask_user_question must be the only pending request"
			if _, err := tools.ParseQuestion(call); err != nil {
				msg = err.Error()
			}
			results[i] = model.ToolResult{ToolCallID: call.ID, IsError: true, Error: msg}
			continue
		}
		g.Go(func() error {
			results[i] = c.tools.Dispatch(gctx, call, ec)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *run) recordThinking(msg model.Message) {
	for _, b := range msg.Content {
		switch b.Type {
		case model.BlockThinking:
			r.hadThink = true
			r.thinking = append(r.thinking, b.Thinking)
			r.log.Debug("[Agent] thinking", zap.Int("turn", r.turns), zap.String("text", b.Thinking))
		case model.BlockRedactedThinking:
			r.hadThink = true
			r.thinking = append(r.thinking, "[redacted]")
		}
	}
}

func (r *run) addTools(calls []model.ToolCall) {
	for _, call := range calls {
		r.toolsUsed = append(r.toolsUsed, call.Name)
	}
}

// collect keeps the step-summary lines and QC issue counts of results.
func (r *run) collect(results []model.ToolResult) {
	for _, res := range results {
		if res.StepSummary != "" {
			r.steps = append(r.steps, res.StepSummary)
		}
		if qc, ok := res.Content.(*tools.QCResult); ok && !res.IsError {
			n := len(qc.Issues)
			if r.qcIssues != nil {
				n += *r.qcIssues
			}
			r.qcIssues = &n
		}
	}
}

func (r *run) outcome(state State) *Outcome {
	return &Outcome{
		State:       state,
		Turns:       r.turns,
		ToolsUsed:   r.toolsUsed,
		HadThinking: r.hadThink,
		Thinking:    r.thinking,
	}
}

// stepSummary merges the tool lines with the model's own summary. Counts
// reported by the model win over the QC tally.
func (r *run) stepSummary(ms *modelStepSummary) *StepSummary {
	s := &StepSummary{StepsCompleted: append([]string(nil), r.steps...), IssuesFound: r.qcIssues}
	if ms != nil {
		s.StepsCompleted = append(s.StepsCompleted, ms.StepsCompleted...)
		if ms.IssuesFound != nil {
			s.IssuesFound = ms.IssuesFound
		}
		s.IssuesResolved = ms.IssuesResolved
	}
	if len(s.StepsCompleted) == 0 && s.IssuesFound == nil && s.IssuesResolved == nil {
		return nil
	}
	if s.StepsCompleted == nil {
		s.StepsCompleted = []string{}
	}
	return s
}

func (r *run) completed(x BlockExtractor, text string) *Outcome {
	ex := Extract(x, text)
	o := r.outcome(StateCompleted)
	o.Response = StripStructuredBlocks(text)
	o.Changes = ex.Changes
	o.StepSummary = r.stepSummary(ex.StepSummary)
	r.log.Info("[Agent] completed", zap.Int("turns", r.turns), zap.Strings("tools", r.toolsUsed), zap.Bool("changes", o.Changes != nil))
	return o
}

func (r *run) awaiting(q *report.PendingQuestion) *Outcome {
	o := r.outcome(StateAwaitingQuestion)
	o.Question = q
	o.StepSummary = r.stepSummary(nil)
	return o
}

func (r *run) failed(reason string) *Outcome {
	o := r.outcome(StateFailed)
	o.Reason = reason
	return o
}

func (r *run) turnLimit() *Outcome {
	o := r.outcome(StateTurnLimitExceeded)
	o.Reason = MsgTurnLimit
	o.StepSummary = r.stepSummary(nil)
	return o
}
