// Package report holds the regulatory report domain: report metadata, its
// sections, tables and figures, QC findings, and the ChangeSet the agent
// proposes against them.
package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Report is the metadata of one PK/TK study report.
type Report struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	StudyNumber string    `json:"studyNumber,omitempty"`
	StudyType   string    `json:"studyType,omitempty"`
	Species     string    `json:"species,omitempty"`
	Compound    string    `json:"compound,omitempty"`
	Route       string    `json:"route,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Section struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// Cell is a table cell. Models and uploaded files emit numbers as often as
// strings, so both decode into the same representation.
type Cell string

func (c *Cell) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Cell(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Cell(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*c = Cell(strconv.FormatBool(b))
		return nil
	}
	return fmt.Errorf("table cell must be a string, number or boolean: %s", data)
}

type Table struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Caption   string   `json:"caption,omitempty"`
	Headers   []string `json:"headers"`
	Rows      [][]Cell `json:"rows"`
	Footnotes []string `json:"footnotes,omitempty"`
	Appendix  bool     `json:"appendix,omitempty"`
	Order     int      `json:"order"`
}

type Figure struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Caption string `json:"caption,omitempty"`
	Path    string `json:"path,omitempty"`
	Order   int    `json:"order"`
}

// Context is everything the agent sees about a report.
type Context struct {
	Report   Report    `json:"report"`
	Sections []Section `json:"sections,omitempty"`
	Tables   []Table   `json:"tables,omitempty"`
	Figures  []Figure  `json:"figures,omitempty"`
}

type Severity string

const (
	SeverityError      Severity = "error"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// QCIssue is one quality-control finding.
type QCIssue struct {
	Severity   Severity `json:"severity"`
	Category   string   `json:"category"`
	Location   string   `json:"location"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// ConversationMessage is one prior exchange shown to the agent.
type ConversationMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// QuestionOption is one selectable answer of a PendingQuestion.
type QuestionOption struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// PendingQuestion is a clarification the agent needs answered before it can
// continue. The caller answers it in a new invocation.
type PendingQuestion struct {
	ID          string           `json:"id"`
	Question    string           `json:"question"`
	Options     []QuestionOption `json:"options"`
	AllowCustom bool             `json:"allowCustom"`
	Category    string           `json:"category,omitempty"`
}
