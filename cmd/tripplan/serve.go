package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tripplan/internal/auth"
	"tripplan/internal/backend"
	"tripplan/internal/cli"
	"tripplan/internal/geocode"
	apphttp "tripplan/internal/http"
	"tripplan/internal/llm"
	"tripplan/internal/log"
	"tripplan/internal/metrics"
	"tripplan/internal/proxy"
	"tripplan/internal/services"
	"tripplan/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Run the web server. When no broker is configured and a spreadsheet is,
expenses are mirrored to Google Sheets from inside this process.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	b, err := backend.NewFactory(cfg, logger).Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("Closing backends failed", log.FieldError, err)
		}
	}()

	m := metrics.New()
	deps := services.Deps{Events: b.Events.Publisher, Logger: logger, Metrics: m}
	px := proxy.New(
		llm.NewClient(cfg.LLMBaseURL, cfg.UpstreamTimeout),
		geocode.NewClient(cfg.GeocodeBaseURL, cfg.UpstreamTimeout),
		proxy.Credentials{LLMKey: cfg.LLMAPIKey, LLMModel: cfg.LLMModel, GeocodeKey: cfg.GeocodeAPIKey},
		proxy.WithLogger(logger),
		proxy.WithMetrics(m),
	)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Verifier:           auth.NewVerifier(cfg.JWTSecret),
		Logger:             logger,
		Metrics:            m,
		Ready:              b.Repo.Ping,
	}, apphttp.Services{
		Plans:    services.NewPlanService(b.Repo, deps),
		Spots:    services.NewSpotService(b.Repo, px, deps),
		Expenses: services.NewExpenseService(b.Repo, px, deps),
		Proxy:    px,
	})
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting tripplan server",
			"port", cfg.Port,
			"backend", b.Type,
			"amqp_enabled", b.Events.Remote,
			"mirror_enabled", b.Mirror != nil)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if b.Mirror != nil && !b.Events.Remote {
		w := worker.NewMirrorWorker(b.Mirror, logger, m)
		g.Go(func() error { return w.Run(gctx, b.Events.Source) })
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
