package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tripplan/internal/cli"
	"tripplan/internal/config"
	"tripplan/internal/log"
)

var (
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tripplan",
	Short: "AI-assisted travel planner with saved itineraries, map spots and expenses",
	Long: `tripplan serves the travel planning web application and its JSON API.
Itineraries and budget estimates come from an LLM; addresses are resolved by
a geocoding service. Plans, spots and expenses are stored per user.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.LoadEnvFile()
		if configPath == "" {
			configPath = os.Getenv("TRIPPLAN_CONFIG")
		}
		var err error
		cfg, err = cli.LoadConfig(configPath)
		if err != nil {
			return err
		}
		logger = cli.NewLogger(cfg, verbose)
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file (env: TRIPPLAN_CONFIG)")
}
