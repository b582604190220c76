package agent

import (
	"github.com/husain-clintel/Pharmascribe-sub000/report"
)

// State is the terminal state of a loop run.
type State string

const (
	StateCompleted         State = "completed"
	StateAwaitingQuestion  State = "awaiting_question"
	StateFailed            State = "failed"
	StateTurnLimitExceeded State = "turn_limit_exceeded"
)

// User-facing failure messages. Collaborator errors are logged, never shown.
const (
	MsgServiceUnavailable = "The language model service is unavailable. Please try again."
	MsgCancelled          = "Request cancelled"
	MsgTurnLimit          = "Maximum turns reached. The task may be too complex; consider breaking the request into smaller parts."
	MsgInvalidTranscript  = "The conversation reached an invalid state and was stopped."
)

// Outcome is produced once per loop run and not modified afterwards.
type Outcome struct {
	State State

	Response    string
	Changes     *report.ChangeSet
	StepSummary *StepSummary
	Question    *report.PendingQuestion
	Reason      string

	Turns       int
	ToolsUsed   []string
	HadThinking bool
	// Thinking holds every thinking block of the run for diagnostics.
	Thinking []string
}

// Result maps the outcome onto the caller contract.
func (o *Outcome) Result() Result {
	toolsUsed := o.ToolsUsed
	if toolsUsed == nil {
		toolsUsed = []string{}
	}
	res := Result{
		StepSummary: o.StepSummary,
		Metadata: &Metadata{
			Turns:               o.Turns,
			ToolsUsed:           toolsUsed,
			HadExtendedThinking: o.HadThinking,
		},
	}

	switch o.State {
	case StateCompleted:
		res.Success = true
		res.Response = o.Response
		res.Changes = o.Changes
	case StateAwaitingQuestion:
		res.Success = true
		res.Question = o.Question
		res.RequiresInput = true
		res.Metadata.PausedForQuestion = true
		if o.Question != nil {
			res.Response = o.Question.Question
		}
	case StateTurnLimitExceeded:
		res.Error = MsgTurnLimit
	default:
		res.Error = o.Reason
		if res.Error == "" {
			res.Error = MsgServiceUnavailable
		}
	}
	return res
}
