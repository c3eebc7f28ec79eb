package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := serveCmd()

	root := &cobra.Command{
		Use:          "supportdesk",
		Short:        "Customer email triage with human review",
		Long:         "supportdesk receives customer email, drafts replies with an LLM and either sends them or queues them for review.",
		SilenceUsage: true,
		// Running without a subcommand starts the server.
		RunE: serve.RunE,
	}

	root.AddCommand(serve)
	root.AddCommand(migrateCmd())
	root.AddCommand(tokenCmd())
	return root
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
