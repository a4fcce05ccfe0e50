// Package main contains the entrypoint for the WhatsApp relay bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/piumal/stingraybot/internal/ai"
	"github.com/piumal/stingraybot/internal/bot"
	"github.com/piumal/stingraybot/internal/bot/tasks"
	"github.com/piumal/stingraybot/internal/config"
	"github.com/piumal/stingraybot/internal/dedup"
	"github.com/piumal/stingraybot/internal/identity"
	"github.com/piumal/stingraybot/internal/logger"
	"github.com/piumal/stingraybot/internal/session"
	"github.com/piumal/stingraybot/internal/whatsapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all application components (config, logger, store, dedup
// gate, AI client, webhook transport), starts the bot, and returns an exit
// code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	hasher, err := identity.NewHasher(cfg.Session.KeySalt)
	if err != nil {
		log.Error("Failed to initialize identity hasher", "error", err)
		return 1
	}

	rdb, err := session.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Error("Failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		return 1
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("Error closing redis client", "error", err)
		}
	}()

	store := session.NewRedisStore(rdb, hasher, cfg.Session.IdleTimeout, log)
	gate := dedup.NewGate(cfg.Dedup.MaxEntries, cfg.Dedup.Window)

	aiClient, err := ai.NewClient(ctx, cfg.AI, log)
	if err != nil {
		log.Error("Failed to initialize AI client", "error", err)
		return 1
	}

	waClient := whatsapp.NewClient(cfg.WhatsApp, log)

	orchestrator := bot.NewOrchestrator(log, store, gate, aiClient, cfg.AI.Timeout, cfg.Messages.AIError)
	handler := bot.NewWebhookHandler(log, orchestrator, waClient, cfg.WhatsApp.VerifyToken)
	server := bot.NewServer(log, handler)

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Gate:   gate,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, server, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
