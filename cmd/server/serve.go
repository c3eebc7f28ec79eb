package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mythictransfers/supportdesk/internal/app"
	"github.com/mythictransfers/supportdesk/internal/config"
	"github.com/mythictransfers/supportdesk/internal/logger"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and, when configured, the mailbox poller",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log, err := logger.New(cfg.Environment)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.Serve(ctx, cfg, log)
		},
	}
}
