package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimColor     = lipgloss.Color("7")
	accentColor  = lipgloss.Color("12")
	successColor = lipgloss.Color("10")
	warningColor = lipgloss.Color("11")
	dangerColor  = lipgloss.Color("9")

	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	// Agent response headings and question text
	AccentStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	QuestionBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(accentColor).
				Padding(0, 1)
)

// FormatFields formats alternating labels and values on one line, e.g.
// FormatFields("turns", "3", "tools", "check_qc") gives
// "turns 3  tools check_qc" with the labels dimmed.
func FormatFields(parts ...string) string {
	var result []string
	for i := 0; i+1 < len(parts); i += 2 {
		if parts[i+1] == "" {
			continue
		}
		result = append(result, DimStyle.Render(parts[i])+" "+parts[i+1])
	}
	return strings.Join(result, "  ")
}
