package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/husain-clintel/Pharmascribe-sub000/storage"
	"github.com/husain-clintel/Pharmascribe-sub000/ui"
)

func newMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and remove the agent's long-term memory for a report",
	}

	var (
		asJSON        bool
		minImportance int
		kinds         []string
	)
	list := &cobra.Command{
		Use:   "list REPORT_ID",
		Short: "List unexpired memories, most important first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			q := storage.RecallQuery{MinImportance: minImportance}
			for _, k := range kinds {
				kind := storage.MemoryKind(k)
				if !kind.Valid() {
					return fmt.Errorf("unknown memory kind: %s", k)
				}
				q.Kinds = append(q.Kinds, kind)
			}

			records, err := a.memory.Recall(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if records == nil {
					records = []storage.MemoryRecord{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			fmt.Fprint(out, ui.RenderMemories(records, ui.Width(out)))
			return nil
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print memories as JSON")
	list.Flags().IntVar(&minImportance, "min-importance", 1, "only list memories at or above this importance")
	list.Flags().StringSliceVar(&kinds, "kind", nil, "only list these kinds (decision, preference, fact, summary)")

	cmd.AddCommand(
		list,
		&cobra.Command{
			Use:   "clear REPORT_ID",
			Short: "Delete every memory of a report",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp()
				if err != nil {
					return err
				}
				defer a.Close()

				n, err := a.memory.DeleteAll(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d memories.\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete REPORT_ID KEY",
			Short: "Delete one memory",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp()
				if err != nil {
					return err
				}
				defer a.Close()

				return a.memory.DeleteOne(cmd.Context(), args[0], args[1])
			},
		},
	)
	return cmd
}
