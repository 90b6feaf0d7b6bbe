package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"seerr_bot/internal/bot"
	"seerr_bot/internal/config"
	"seerr_bot/internal/coordinator"
	"seerr_bot/internal/enrich"
	"seerr_bot/internal/jellyseerr"
	"seerr_bot/internal/rules"
	"seerr_bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := jellyseerr.New(http.DefaultClient, cfg.JellyseerrHost, cfg.JellyseerrPort, cfg.JellyseerrSSL, cfg.JellyseerrAPIKey)

	// Bad credentials are fatal; an unreachable server is not, the
	// refresh loop keeps retrying on its interval.
	ok, err := client.TestConnection(ctx)
	var authErr *jellyseerr.AuthError
	switch {
	case errors.As(err, &authErr):
		log.Error("authentication failed", "url", client.BaseURL())
		os.Exit(1)
	case err != nil || !ok:
		log.Warn("server unreachable, will retry", "url", client.BaseURL(), "error", err)
	default:
		if info, err := client.ServerInfo(ctx); err == nil && info != nil {
			log.Info("connected", "url", client.BaseURL(), "version", info.Version)
		}
	}

	enricher := enrich.New(client, log)
	coord := coordinator.New(client, enricher, time.Duration(cfg.RefreshSeconds)*time.Second, cfg.PageSize, log)

	engine := rules.NewEngine(client, coord, store, log)
	for _, rule := range rules.StandardRules(cfg.RatingThreshold, cfg.TrustedUsers) {
		engine.AddRule(rule)
	}
	if err := engine.Restore(ctx); err != nil {
		log.Error("restore rule states", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	b, err := bot.New(cfg.TelegramBotToken, coord, engine, client, store, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	coord.Subscribe(b.NotifyNewPending)
	engine.OnAudit(b.NotifyAutoApproved)

	log.Info("starting seerr bot", "refresh_interval", cfg.RefreshSeconds, "page_size", cfg.PageSize)

	go coord.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
