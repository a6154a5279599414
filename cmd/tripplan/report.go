package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tripplan/internal/auth"
	"tripplan/internal/backend"
	"tripplan/internal/cli"
	"tripplan/internal/export"
	"tripplan/internal/services"
)

var (
	reportOwner  string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report <plan-id>",
	Short: "Print a saved plan with its spending breakdown",
	Long: `Print a saved plan with its spots and spending breakdown.
With --format the plan is written in an export format instead (md, json, yaml).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportOwner == "" {
			return errors.New("--owner is required")
		}
		ctx := auth.WithSession(cmd.Context(), auth.Authenticated(auth.User{ID: reportOwner}))

		repo, err := backend.NewFactory(cfg, logger).OpenRepository(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		d, err := services.NewPlanService(repo, services.Deps{Logger: logger}).Detail(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load plan %s: %w", args[0], err)
		}

		if reportFormat == "" {
			fmt.Print(cli.RenderReport(d))
			return nil
		}
		format, err := export.ParseFormat(reportFormat)
		if err != nil {
			return err
		}
		if format == export.XLSX {
			return errors.New("xlsx cannot be written to a terminal, use the export endpoint")
		}
		return export.Write(os.Stdout, format, export.Document{Plan: d.Plan, Spots: d.Spots, Expenses: d.Expenses})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportOwner, "owner", "", "User ID that owns the plan")
	reportCmd.Flags().StringVar(&reportFormat, "format", "", "Write as md, json or yaml instead of a table")
}
