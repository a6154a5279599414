// Package cli holds the process bootstrap shared by the tripplan subcommands:
// environment loading, configuration, logging and signal handling.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"tripplan/internal/config"
	"tripplan/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the optional TOML file and the environment, then validates.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and makes
// it the slog default. verbose forces debug level.
func NewLogger(cfg *config.Config, verbose bool) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	if verbose {
		lc.Level = slog.LevelDebug
	}
	if f := strings.ToLower(strings.TrimSpace(cfg.LogFormat)); f != "" {
		lc.Format = f
	}
	lc.Output = os.Stderr

	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Fatal logs err and exits with status 1.
func Fatal(logger *log.Logger, msg string, err error) {
	if logger == nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	} else {
		logger.Error(msg, log.FieldError, err)
	}
	os.Exit(1)
}
