package main

import (
	"fmt"

	"github.com/mythictransfers/supportdesk/internal/config"
	"github.com/mythictransfers/supportdesk/internal/db"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending PostgreSQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.StoreDriver != config.StorePostgres {
				return fmt.Errorf("migrate needs SUPPORTDESK_STORE=postgres, got %q", cfg.StoreDriver)
			}

			pool, err := db.NewConnection(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.CloseConnection(pool)

			applied, err := db.Migrate(cmd.Context(), pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				printf(cmd, "Database is up to date\n")
				return nil
			}
			for _, name := range applied {
				printf(cmd, "Applied %s\n", name)
			}
			return nil
		},
	}
}
