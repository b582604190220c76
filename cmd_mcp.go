package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/husain-clintel/Pharmascribe-sub000/mcp"
)

func newMCPCmd() *cobra.Command {
	var reportID string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the report tools to MCP clients over stdio",
		Long: `Serve recall_memory, store_memory, check_qc, get_template and
calculate_statistics over the Model Context Protocol on stdin/stdout.
Memory tools read and write the memories of the given report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reportID == "" {
				return errors.New("a report id is required (--report)")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return mcp.NewServer(a.registry(), reportID, Version).ServeStdio()
		},
	}
	cmd.Flags().StringVarP(&reportID, "report", "r", "", "report whose memories the tools use")
	return cmd
}
