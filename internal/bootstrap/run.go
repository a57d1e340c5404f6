package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/cvboard/admin/config"
)

// RunConfig groups what RunWithShutdown needs.
type RunConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunWithShutdown serves HTTP until ctx is cancelled, SIGINT/SIGTERM arrives, or the listener
// fails, then shuts the server down gracefully.
func RunWithShutdown(ctx context.Context, cfg *RunConfig) error {
	if cfg == nil {
		return errors.New("run config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server, errCh, err := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-sigCtx.Done():
		logger.Info("shutting down services...")
	case serveErr = <-errCh:
		logger.Error("service error", "error", serveErr)
	}

	// The parent context may already be cancelled; shutdown gets its own deadline.
	if stopErr := ShutdownHTTPServer(ShutdownConfig{
		Context: context.WithoutCancel(ctx),
		Server:  server,
		Logger:  logger,
	}); stopErr != nil {
		return errors.Join(serveErr, fmt.Errorf("graceful stop: %w", stopErr))
	}
	return serveErr
}
