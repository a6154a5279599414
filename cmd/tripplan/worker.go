package main

import (
	"github.com/spf13/cobra"

	"tripplan/internal/backend"
	"tripplan/internal/cli"
	"tripplan/internal/log"
	"tripplan/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume expense events from the broker and mirror them to Google Sheets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.ValidateWorker(); err != nil {
			return err
		}
		ctx, stop := cli.SignalContext(cmd.Context())
		defer stop()

		f := backend.NewFactory(cfg, logger)
		mirror, err := f.OpenMirror(ctx)
		if err != nil {
			return err
		}
		ev, err := f.OpenEvents()
		if err != nil {
			return err
		}
		if c, ok := ev.Publisher.(interface{ Close() error }); ok {
			defer c.Close()
		}

		logger.Info("Starting tripplan worker", log.FieldOperation, log.OpStartup, "queue", cfg.AMQPQueue)
		if err := worker.NewMirrorWorker(mirror, logger, nil).Run(ctx, ev.Source); err != nil {
			return err
		}
		logger.Info("Worker shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
