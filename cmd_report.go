package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/husain-clintel/Pharmascribe-sub000/report"
	"github.com/husain-clintel/Pharmascribe-sub000/ui"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Manage stored reports",
	}

	var asJSON bool
	show := &cobra.Command{
		Use:   "show ID",
		Short: "Print a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			rc, err := a.reports.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rc)
			}
			md := reportMarkdown(rc)
			if ui.IsTerminal(out) {
				md = ui.RenderMarkdown(md, ui.Width(out))
			}
			_, err = fmt.Fprintln(out, md)
			return err
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print the report context as JSON")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "import FILE",
			Short: "Store a report context read from a JSON file (- for stdin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rc, err := readReportContext(args[0])
				if err != nil {
					return err
				}

				a, err := openApp()
				if err != nil {
					return err
				}
				defer a.Close()

				id, err := a.reports.Create(cmd.Context(), rc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			},
		},
		show,
		&cobra.Command{
			Use:   "list",
			Short: "List stored reports",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp()
				if err != nil {
					return err
				}
				defer a.Close()

				reports, err := a.reports.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(reports) == 0 {
					fmt.Fprintln(out, ui.DimStyle.Render("No reports stored."))
					return nil
				}
				for _, r := range reports {
					fmt.Fprintf(out, "%s  %-8s %s\n", r.ID, r.Status, r.Title)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a stored report and its conversation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp()
				if err != nil {
					return err
				}
				defer a.Close()

				if err := a.reports.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				_ = a.conversations.Delete(args[0])
				return nil
			},
		},
	)
	return cmd
}

func readReportContext(path string) (*report.Context, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var rc report.Context
	if err := json.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if strings.TrimSpace(rc.Report.Title) == "" {
		return nil, fmt.Errorf("report title is required")
	}
	return &rc, nil
}

// reportMarkdown renders the report body in section order.
func reportMarkdown(rc *report.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rc.Report.Title)

	var meta []string
	for _, kv := range [][2]string{
		{"Study", rc.Report.StudyNumber},
		{"Type", rc.Report.StudyType},
		{"Species", rc.Report.Species},
		{"Compound", rc.Report.Compound},
		{"Route", rc.Report.Route},
	} {
		if kv[1] != "" {
			meta = append(meta, fmt.Sprintf("**%s:** %s", kv[0], kv[1]))
		}
	}
	if len(meta) > 0 {
		b.WriteString(strings.Join(meta, "  \n") + "\n\n")
	}

	sections := append([]report.Section(nil), rc.Sections...)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Order < sections[j].Order })
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Title, strings.TrimSpace(s.Content))
	}

	tables := append([]report.Table(nil), rc.Tables...)
	sort.SliceStable(tables, func(i, j int) bool { return tables[i].Order < tables[j].Order })
	for _, t := range tables {
		fmt.Fprintf(&b, "**%s**\n\n", t.Title)
		if len(t.Headers) > 0 {
			b.WriteString("| " + strings.Join(t.Headers, " | ") + " |\n")
			b.WriteString("|" + strings.Repeat(" --- |", len(t.Headers)) + "\n")
		}
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for i, c := range row {
				cells[i] = string(c)
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
