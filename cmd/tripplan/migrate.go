package main

import (
	"github.com/spf13/cobra"

	"tripplan/internal/backend"
	"tripplan/internal/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations to the configured database",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := backend.NewFactory(cfg, logger).Migrate(); err != nil {
			return err
		}
		logger.Info("Migrations applied", log.FieldOperation, log.OpMigrate, "backend", cfg.DataBackend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
