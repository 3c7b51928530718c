package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"golang.org/x/time/rate"

	"github.com/cloudarch/advisor/internal/config"
	"github.com/cloudarch/advisor/internal/jobs"
	"github.com/cloudarch/advisor/internal/openai"
	"github.com/cloudarch/advisor/internal/repository"
	"github.com/cloudarch/advisor/internal/service"
	"github.com/cloudarch/advisor/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	ctx := context.Background()

	// The worker typically starts alongside the database in a compose stack,
	// so retry the initial connection instead of failing fast.
	db, err := connectWithRetry(ctx, cfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)

	queriesRepo := repository.NewQueriesRepository(db)
	architecturesRepo := repository.NewArchitecturesRepository(db)

	resolverSvc := service.NewResolverService(service.ResolverServiceParams{
		Queries:     queriesRepo,
		Retriever:   service.NewLinearRetriever(architecturesRepo),
		Embeddings:  openaiClient,
		Completions: openaiClient,
		TopK:        cfg.RetrievalTopK,
	})

	limiter := rate.NewLimiter(rate.Limit(cfg.CompletionRateLimit), 1)

	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewResolverWorker(resolverSvc, limiter))

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.ResolverWorkers},
		},
		Workers:      workers,
		ErrorHandler: &jobs.ErrorHandler{},
		MaxAttempts:  cfg.ResolverMaxAttempts,
	})
	if err != nil {
		slog.Error("Failed to create job queue client", "error", err)
		os.Exit(1)
	}

	if err := riverClient.Start(ctx); err != nil {
		slog.Error("Failed to start job queue client", "error", err)
		os.Exit(1)
	}

	slog.Info("Worker started",
		"max_workers", cfg.ResolverWorkers,
		"max_attempts", cfg.ResolverMaxAttempts,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down worker...")

	stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := riverClient.Stop(stopCtx); err != nil {
		slog.Error("Worker forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Worker exited")
}

func connectWithRetry(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	var (
		db  *pgxpool.Pool
		err error
	)

	for attempt := 1; attempt <= cfg.DBConnectAttempts; attempt++ {
		db, err = database.NewPostgresPool(ctx, cfg.DatabaseURL,
			database.WithAfterConnect(pgxvec.RegisterTypes))
		if err == nil {
			return db, nil
		}

		slog.Warn("Database not ready, retrying",
			"attempt", attempt,
			"max_attempts", cfg.DBConnectAttempts,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.DBConnectBackoff):
		}
	}

	return nil, err
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
