package agent

import (
	"encoding/json"
	"fmt"

	"github.com/husain-clintel/Pharmascribe-sub000/prompt"
	"github.com/husain-clintel/Pharmascribe-sub000/report"
)

// Request is one invocation of the agent.
type Request struct {
	Action              prompt.Action                `json:"action"`
	ReportID            string                       `json:"reportId"`
	Message             string                       `json:"message,omitempty"`
	Section             string                       `json:"section,omitempty"`
	Context             *report.Context              `json:"context,omitempty"`
	QCFindings          []report.QCIssue             `json:"qcFindings,omitempty"`
	ConversationHistory []report.ConversationMessage `json:"conversationHistory,omitempty"`
	QuestionResponse    *QuestionResponse            `json:"questionResponse,omitempty"`
}

// QuestionResponse answers the PendingQuestion of an earlier invocation.
type QuestionResponse struct {
	QuestionID string `json:"questionId"`
	Answer     Answer `json:"answer"`
}

// Answer is either a single string or a list of selected options on the
// wire.
type Answer []string

func (a *Answer) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*a = Answer{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("answer must be a string or an array of strings: %w", err)
	}
	*a = many
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// Result is what the caller receives for every invocation.
type Result struct {
	Success       bool                    `json:"success"`
	Response      string                  `json:"response,omitempty"`
	Changes       *report.ChangeSet       `json:"changes,omitempty"`
	Question      *report.PendingQuestion `json:"question,omitempty"`
	RequiresInput bool                    `json:"requiresInput,omitempty"`
	StepSummary   *StepSummary            `json:"stepSummary,omitempty"`
	Error         string                  `json:"error,omitempty"`
	Metadata      *Metadata               `json:"metadata,omitempty"`
}

type StepSummary struct {
	StepsCompleted []string `json:"stepsCompleted"`
	IssuesFound    *int     `json:"issuesFound,omitempty"`
	IssuesResolved *int     `json:"issuesResolved,omitempty"`
	// SkippedUpdates lists "collection:id" references of updates whose target
	// did not exist when the changes were applied.
	SkippedUpdates []string `json:"skippedUpdates,omitempty"`
}

// Metadata describes how an invocation ran.
type Metadata struct {
	Turns               int      `json:"turns"`
	ToolsUsed           []string `json:"toolsUsed"`
	HadExtendedThinking bool     `json:"hadExtendedThinking"`
	PausedForQuestion   bool     `json:"pausedForQuestion,omitempty"`
}
