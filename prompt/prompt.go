// Package prompt assembles the user turn that starts an agent invocation.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/husain-clintel/Pharmascribe-sub000/report"
)

type Action string

const (
	ActionChat       Action = "chat"
	ActionGenerate   Action = "generate"
	ActionRegenerate Action = "regenerate"
)

// Valid reports whether a is one of the supported actions.
func (a Action) Valid() bool {
	switch a {
	case ActionChat, ActionGenerate, ActionRegenerate:
		return true
	}
	return false
}

// DefaultHistoryWindow is the number of prior conversation messages included
// when Input.HistoryWindow is not set.
const DefaultHistoryWindow = 10

// Answer is the user's reply to a question the agent asked in an earlier
// invocation.
type Answer struct {
	QuestionID string
	Values     []string
}

// Input is everything the assembled prompt depends on.
type Input struct {
	Action        Action
	ReportID      string
	Message       string
	Section       string
	Context       *report.Context
	QCFindings    []report.QCIssue
	History       []report.ConversationMessage
	HistoryWindow int
	Answer        *Answer
}

const thoroughness = `Work thoroughly. Read the complete report content below before answering, check every number you quote against the tables, and keep terminology, units and abbreviations consistent across all sections. Use the available tools when they help: recall stored decisions before writing, store new decisions the user makes, run check_qc on any text you produce, and use calculate_statistics instead of computing summary statistics yourself.`

// Build returns the prompt text for in. The output depends only on in.
func Build(in Input) string {
	var b strings.Builder

	b.WriteString(thoroughness)
	b.WriteString("\n\n")

	if in.Answer != nil {
		writeAnswer(&b, in.Answer)
	}

	writeReport(&b, in.ReportID, in.Context)

	if len(in.QCFindings) > 0 {
		writeQCFindings(&b, in.QCFindings)
	}

	window := in.HistoryWindow
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if len(in.History) > 0 {
		writeHistory(&b, in.History, window)
	}

	writeAction(&b, in)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeAnswer(b *strings.Builder, a *Answer) {
	b.WriteString("## Answer to your previous question\n\n")
	if a.QuestionID != "" {
		fmt.Fprintf(b, "Question id: %s\n", a.QuestionID)
	}
	switch len(a.Values) {
	case 0:
		b.WriteString("The user did not choose an answer.\n")
	case 1:
		fmt.Fprintf(b, "The user answered: %s\n", a.Values[0])
	default:
		b.WriteString("The user selected:\n")
		for _, v := range a.Values {
			fmt.Fprintf(b, "- %s\n", v)
		}
	}
	b.WriteString("Acknowledge this answer, apply it, and do not ask the same question again.\n\n")
}

func writeReport(b *strings.Builder, reportID string, rc *report.Context) {
	b.WriteString("## Report\n\n")
	if rc == nil {
		fmt.Fprintf(b, "Report id: %s\nNo report content is available.\n\n", reportID)
		return
	}

	r := rc.Report
	id := r.ID
	if id == "" {
		id = reportID
	}
	fmt.Fprintf(b, "Report id: %s\n", id)
	field(b, "Title", r.Title)
	field(b, "Study number", r.StudyNumber)
	field(b, "Study type", r.StudyType)
	field(b, "Species", r.Species)
	field(b, "Compound", r.Compound)
	field(b, "Route", r.Route)
	field(b, "Status", r.Status)
	b.WriteString("\n")

	sections := append([]report.Section(nil), rc.Sections...)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Order < sections[j].Order })
	b.WriteString("### Sections\n\n")
	if len(sections) == 0 {
		b.WriteString("(none)\n\n")
	}
	for _, s := range sections {
		fmt.Fprintf(b, "#### %s [id: %s, type: %s]\n\n", s.Title, s.ID, s.Type)
		if strings.TrimSpace(s.Content) == "" {
			b.WriteString("(empty)\n\n")
			continue
		}
		b.WriteString(strings.TrimRight(s.Content, "\n"))
		b.WriteString("\n\n")
	}

	tables := append([]report.Table(nil), rc.Tables...)
	sort.SliceStable(tables, func(i, j int) bool { return tables[i].Order < tables[j].Order })
	b.WriteString("### Tables\n\n")
	if len(tables) == 0 {
		b.WriteString("(none)\n\n")
	}
	for _, t := range tables {
		writeTable(b, t)
	}

	figures := append([]report.Figure(nil), rc.Figures...)
	sort.SliceStable(figures, func(i, j int) bool { return figures[i].Order < figures[j].Order })
	if len(figures) > 0 {
		b.WriteString("### Figures\n\n")
		for _, f := range figures {
			fmt.Fprintf(b, "- %s [id: %s]", f.Title, f.ID)
			if f.Caption != "" {
				fmt.Fprintf(b, ": %s", f.Caption)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
}

func field(b *strings.Builder, name, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", name, value)
	}
}

func writeTable(b *strings.Builder, t report.Table) {
	kind := "table"
	if t.Appendix {
		kind = "appendix table"
	}
	fmt.Fprintf(b, "#### %s [id: %s, %s]\n\n", t.Title, t.ID, kind)
	if t.Caption != "" {
		fmt.Fprintf(b, "%s\n\n", t.Caption)
	}
	if len(t.Headers) > 0 {
		fmt.Fprintf(b, "| %s |\n", strings.Join(t.Headers, " | "))
		b.WriteString("|" + strings.Repeat(" --- |", len(t.Headers)) + "\n")
	}
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(string(c), "|", `\|`)
		}
		fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
	}
	for _, fn := range t.Footnotes {
		fmt.Fprintf(b, "\n%s", fn)
	}
	b.WriteString("\n\n")
}

func writeQCFindings(b *strings.Builder, issues []report.QCIssue) {
	b.WriteString("## QC findings to address\n\n")
	for i, issue := range issues {
		fmt.Fprintf(b, "%d. [%s/%s] %s", i+1, issue.Severity, issue.Category, issue.Message)
		if issue.Location != "" {
			fmt.Fprintf(b, " (%s)", issue.Location)
		}
		if issue.Suggestion != "" {
			fmt.Fprintf(b, " Suggestion: %s", issue.Suggestion)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeHistory(b *strings.Builder, history []report.ConversationMessage, window int) {
	if len(history) > window {
		history = history[len(history)-window:]
	}
	b.WriteString("## Recent conversation\n\n")
	for _, m := range history {
		fmt.Fprintf(b, "%s: %s\n\n", m.Role, strings.TrimSpace(m.Content))
	}
}

const changesFormat = "When you change the report, end your reply with a ```json fenced block of the form " +
	`{"changes": {"sections": [{"id": "...", "content": "..."}], "tables": [...], "newTables": [...], "figures": [...], "newFigures": [...], "appendixTables": [...]}, ` +
	`"stepSummary": {"stepsCompleted": ["..."], "issuesFound": 0, "issuesResolved": 0}}. ` +
	"Updates must use ids shown above. Omit collections you do not change."

func writeAction(b *strings.Builder, in Input) {
	b.WriteString("## Task\n\n")
	switch in.Action {
	case ActionGenerate:
		fmt.Fprintf(b, "Generate the %q section of this report from the study data above.", sectionName(in.Section))
		b.WriteString(" Call get_template for the section type first and follow its guidelines.")
		b.WriteString(" Return the new section text in the changes block.\n")
	case ActionRegenerate:
		fmt.Fprintf(b, "Rewrite the existing %q section of this report.", sectionName(in.Section))
		b.WriteString(" Keep every value that is correct, fix what is not, and keep the section id unchanged.\n")
	default:
		b.WriteString("Respond to the user's message. Only propose changes when the user asks for them.\n")
	}
	if in.Message != "" {
		fmt.Fprintf(b, "\nUser message: %s\n", in.Message)
	}
	b.WriteString("\n")
	b.WriteString(changesFormat)
	b.WriteString("\n")
}

func sectionName(s string) string {
	if s == "" {
		return "requested"
	}
	return s
}
