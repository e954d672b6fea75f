package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/MenuEditor/internal/config"
	"github.com/JonMunkholm/MenuEditor/internal/core"
	"github.com/JonMunkholm/MenuEditor/internal/logging"
	"github.com/JonMunkholm/MenuEditor/internal/scrape"
	"github.com/JonMunkholm/MenuEditor/internal/web"
)

func main() {
	// Load .env file if it exists; variables already set win
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"scrape_max_concurrent", cfg.Scrape.MaxConcurrent,
		"session_idle_timeout", cfg.Session.IdleTimeout,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	for _, def := range core.All() {
		slog.Debug("platform registered", "platform", def.Key, "label", def.Label, "toppings", def.Toppings)
	}

	client := scrape.NewClient(cfg.Scrape.URL, scrape.Options{
		Timeout:          cfg.Scrape.Timeout,
		MaxResponseBytes: cfg.Scrape.MaxResponseBytes,
	})
	limiter := scrape.NewLimiter(cfg.Scrape.MaxConcurrent, cfg.Scrape.MaxWait)

	server := web.NewServer(cfg, client, limiter)

	// Run returns after a signal once shutdown has drained
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
