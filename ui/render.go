package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/husain-clintel/Pharmascribe-sub000/agent"
	"github.com/husain-clintel/Pharmascribe-sub000/report"
	"github.com/husain-clintel/Pharmascribe-sub000/storage"
)

const defaultWidth = 100

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the column count of w, or a default when w is not a
// terminal.
func Width(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// RenderMarkdown renders content for a terminal of the given width. Plain
// URLs are left alone so the terminal can make them clickable.
func RenderMarkdown(content string, width int) string {
	ext := markdown.Extensions() &^ parser.Autolink
	doc := parser.NewWithExtensions(ext).Parse([]byte(content))
	r := markdown.NewRenderer(max(width-4, 20), 0)
	return strings.TrimRight(string(gomarkdown.Render(doc, r)), "\n")
}

// RenderResult renders an agent Result for humans. When styled is false
// the output carries no ANSI sequences.
func RenderResult(res agent.Result, width int, styled bool) string {
	st := styles(styled)
	var b strings.Builder

	if !res.Success {
		b.WriteString(st.err.Render("Error: " + res.Error))
		b.WriteString("\n")
		writeMetadata(&b, st, res.Metadata)
		return b.String()
	}

	if res.RequiresInput && res.Question != nil {
		b.WriteString(RenderQuestion(res.Question, width, styled))
		b.WriteString("\n")
	} else if res.Response != "" {
		if styled {
			b.WriteString(RenderMarkdown(res.Response, width))
		} else {
			b.WriteString(res.Response)
		}
		b.WriteString("\n")
	}

	if cs := res.Changes; !cs.IsEmpty() {
		b.WriteString("\n" + st.title.Render("Proposed changes") + "\n")
		for _, line := range describeChanges(cs) {
			b.WriteString("  • " + line + "\n")
		}
	}

	if ss := res.StepSummary; ss != nil {
		b.WriteString("\n" + st.title.Render("Steps") + "\n")
		for _, step := range ss.StepsCompleted {
			b.WriteString("  " + st.ok.Render("✓") + " " + step + "\n")
		}
		if ss.IssuesFound != nil || ss.IssuesResolved != nil {
			b.WriteString("  " + issueLine(ss) + "\n")
		}
		for _, ref := range ss.SkippedUpdates {
			b.WriteString("  " + st.warn.Render("! skipped "+ref+": no such id in this report") + "\n")
		}
	}

	writeMetadata(&b, st, res.Metadata)
	return b.String()
}

// RenderQuestion renders a pending question with its options.
func RenderQuestion(q *report.PendingQuestion, width int, styled bool) string {
	st := styles(styled)
	var b strings.Builder
	b.WriteString(st.accent.Render(q.Question))
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, opt.Label)
		if opt.Description != "" {
			b.WriteString(st.dim.Render(" - " + opt.Description))
		}
		b.WriteString(st.dim.Render(" [" + opt.ID + "]"))
	}
	if q.AllowCustom {
		b.WriteString("\n" + st.dim.Render("  or answer in your own words"))
	}
	if !styled {
		return b.String()
	}
	return QuestionBoxStyle.Width(max(width-4, 20)).Render(b.String())
}

// RenderMemories lists memories one per line, truncated to width.
func RenderMemories(records []storage.MemoryRecord, width int) string {
	if len(records) == 0 {
		return DimStyle.Render("No memories stored for this report.")
	}

	var b strings.Builder
	for _, m := range records {
		prefix := fmt.Sprintf("%-10s %2d  %-14s ", m.Kind, m.Importance, m.Category)
		content := strings.Join(strings.Fields(string(m.Content)), " ")
		avail := width - runewidth.StringWidth(prefix)
		if avail < 10 {
			avail = 10
		}
		b.WriteString(prefix + runewidth.Truncate(content, avail, "…") + "\n")
		b.WriteString(DimStyle.Render("  "+m.Key+"  expires "+m.ExpiresAt.Format("2006-01-02")) + "\n")
	}
	return b.String()
}

func describeChanges(cs *report.ChangeSet) []string {
	var lines []string
	for _, s := range cs.Sections {
		lines = append(lines, "update section "+s.ID)
	}
	for _, t := range cs.Tables {
		lines = append(lines, "update table "+t.ID)
	}
	for _, t := range cs.AppendixTables {
		lines = append(lines, "update appendix table "+t.ID)
	}
	for _, f := range cs.Figures {
		lines = append(lines, "update figure "+f.ID)
	}
	for _, t := range cs.NewTables {
		lines = append(lines, "add table "+quoteOr(t.Title, t.ID))
	}
	for _, f := range cs.NewFigures {
		lines = append(lines, "add figure "+quoteOr(f.Title, f.ID))
	}
	return lines
}

func quoteOr(title, id string) string {
	if title != "" {
		return fmt.Sprintf("%q", title)
	}
	return id
}

func issueLine(ss *agent.StepSummary) string {
	var parts []string
	if ss.IssuesFound != nil {
		parts = append(parts, fmt.Sprintf("%d issue(s) found", *ss.IssuesFound))
	}
	if ss.IssuesResolved != nil {
		parts = append(parts, fmt.Sprintf("%d resolved", *ss.IssuesResolved))
	}
	return strings.Join(parts, ", ")
}

func writeMetadata(b *strings.Builder, st renderStyles, md *agent.Metadata) {
	if md == nil {
		return
	}
	thinking := ""
	if md.HadExtendedThinking {
		thinking = "yes"
	}
	line := FormatFields(
		"turns", fmt.Sprint(md.Turns),
		"tools", strings.Join(md.ToolsUsed, ", "),
		"thinking", thinking,
	)
	if !st.styled {
		line = plainFields(md, thinking)
	}
	b.WriteString("\n" + line + "\n")
}

func plainFields(md *agent.Metadata, thinking string) string {
	line := fmt.Sprintf("turns %d", md.Turns)
	if len(md.ToolsUsed) > 0 {
		line += "  tools " + strings.Join(md.ToolsUsed, ", ")
	}
	if thinking != "" {
		line += "  thinking " + thinking
	}
	return line
}

type renderStyles struct {
	styled bool
	title  renderer
	accent renderer
	dim    renderer
	ok     renderer
	warn   renderer
	err    renderer
}

type renderer interface {
	Render(strs ...string) string
}

type plain struct{}

func (plain) Render(strs ...string) string { return strings.Join(strs, " ") }

func styles(styled bool) renderStyles {
	if !styled {
		return renderStyles{title: plain{}, accent: plain{}, dim: plain{}, ok: plain{}, warn: plain{}, err: plain{}}
	}
	return renderStyles{
		styled: true,
		title:  TitleStyle,
		accent: AccentStyle,
		dim:    DimStyle,
		ok:     SuccessStyle,
		warn:   WarningStyle,
		err:    ErrorStyle,
	}
}
