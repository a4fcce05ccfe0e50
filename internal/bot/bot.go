package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/piumal/stingraybot/internal/config"
)

// Bot ties together the webhook server and the scheduler and manages their
// lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	server    *echo.Echo
	scheduler *Scheduler
}

// NewBot creates the bot application from its assembled components.
func NewBot(logger *slog.Logger, cfg *config.Config, server *echo.Echo, scheduler *Scheduler) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot"),
		cfg:       cfg,
		server:    server,
		scheduler: scheduler,
	}
}

// Run starts the webhook server and scheduler and blocks until the context is
// cancelled or a component fails. Shutdown is graceful: in-flight requests
// get the configured shutdown timeout to complete.
func (b *Bot) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting webhook server", "addr", b.cfg.Server.ListenAddr)
		if err := b.server.Start(b.cfg.Server.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping webhook server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), b.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := b.server.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("Error shutting down webhook server", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot stopped gracefully")
	return nil
}
