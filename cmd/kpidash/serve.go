package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kpidash/internal/amqp"
	"kpidash/internal/backend"
	"kpidash/internal/cache"
	"kpidash/internal/cli"
	"kpidash/internal/config"
	apphttp "kpidash/internal/http"
	applog "kpidash/internal/log"
	"kpidash/internal/page"
	"kpidash/internal/session"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	Long: `Serve the dashboard over HTTP. Configuration is read from the environment
and an optional .env file; see PORT, DATA_BACKEND, AMQP_URL and SESSION_TTL.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(logLevel(cfg.LogLevel), os.Stdout)

	ctx, stop := cli.SignalContext(cmd.Context(), logger.Slog())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	composer := page.NewComposer(res.Store, page.DefaultContent(), logger.WithComponent(applog.ComponentPage).Slog())
	registry := session.NewRegistry(composer, session.Config{
		MaxSessions: cfg.SessionMax,
		TTL:         cfg.SessionTTL,
	}, logger.WithComponent(applog.ComponentSession).Slog())

	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	caches.Register("sessions", registry.Cache())
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	publisher := newPublisher(ctx, cfg, logger)
	defer publisher.Close()

	var ready func(context.Context) error
	if p, ok := res.Store.(backend.Pinger); ok {
		ready = p.Ping
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Registry:           registry,
		Composer:           composer,
		Publisher:          publisher,
		Ready:              ready,
		Theme:              cfg.Theme,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SessionTTL:         cfg.SessionTTL,
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting kpidash server",
			"port", cfg.Port,
			applog.FieldBackend, res.Type.String(),
			"amqp", cfg.AMQPURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// newPublisher connects to the broker when AMQP_URL is set. A broker that
// cannot be reached at startup disables publishing instead of failing.
func newPublisher(ctx context.Context, cfg *config.Config, logger *applog.Logger) amqp.Publisher {
	if cfg.AMQPURL == "" {
		logger.Info("Selection events disabled - no AMQP_URL provided")
		return amqp.NoopPublisher{}
	}
	amqpLogger := logger.WithComponent(applog.ComponentAMQP)
	client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, amqpLogger.Slog())
	if err != nil {
		amqpLogger.Warn("Selection events disabled - broker unreachable", applog.FieldError, err)
		return amqp.NoopPublisher{}
	}
	amqpLogger.Info("Publishing selection events", "exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)
	return client
}
