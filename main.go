package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/husain-clintel/Pharmascribe-sub000/config"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	config.CloseDebugLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pharmascribe",
		Short:         "Draft, revise and check PK/TK regulatory report sections with an LLM agent",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newChatCmd(),
		newReportCmd(),
		newMemoryCmd(),
		newMCPCmd(),
		newConfigCmd(),
	)
	return root
}
