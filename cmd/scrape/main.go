// Command scrape runs a one-shot ingestion of the upstream architecture
// catalog into the local database.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/cloudarch/advisor/internal/config"
	"github.com/cloudarch/advisor/internal/openai"
	"github.com/cloudarch/advisor/internal/repository"
	"github.com/cloudarch/advisor/internal/scraper"
	"github.com/cloudarch/advisor/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL,
		database.WithAfterConnect(pgxvec.RegisterTypes))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	s := scraper.New(
		cfg.ScrapeBaseURL,
		openai.NewClient(cfg.OpenAIAPIKey),
		repository.NewArchitecturesRepository(db),
		slog.Default(),
	)

	if err := s.Run(ctx); err != nil {
		slog.Error("Scrape failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}
