package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/cloudarch/advisor/internal/api/handlers"
	"github.com/cloudarch/advisor/internal/api/middleware"
	"github.com/cloudarch/advisor/internal/config"
	"github.com/cloudarch/advisor/internal/jobs"
	"github.com/cloudarch/advisor/internal/openai"
	"github.com/cloudarch/advisor/internal/repository"
	"github.com/cloudarch/advisor/internal/service"
	"github.com/cloudarch/advisor/pkg/database"
)

const embeddingCacheSize = 1000

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL,
		database.WithAfterConnect(pgxvec.RegisterTypes))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Insert-only River client: the API enqueues resolve tasks but never works them.
	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{})
	if err != nil {
		slog.Error("Failed to create job queue client", "error", err)
		os.Exit(1)
	}

	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)

	embeddingCache, err := lru.New[string, []float32](embeddingCacheSize)
	if err != nil {
		slog.Error("Failed to create embedding cache", "error", err)
		os.Exit(1)
	}

	queriesRepo := repository.NewQueriesRepository(db)
	architecturesRepo := repository.NewArchitecturesRepository(db)

	gatewaySvc := service.NewGatewayService(service.GatewayServiceParams{
		Queries:        queriesRepo,
		Embeddings:     openaiClient,
		Inserter:       jobs.NewRiverTaskInserter(riverClient),
		MatchThreshold: cfg.MatchThreshold,
		QueryCache:     embeddingCache,
	})
	architecturesSvc := service.NewArchitecturesService(architecturesRepo)

	queryHandler := handlers.NewQueryHandler(gatewaySvc)
	architecturesHandler := handlers.NewArchitecturesHandler(architecturesSvc)
	healthHandler := handlers.NewHealthHandler()

	protected := http.NewServeMux()
	protected.HandleFunc("POST /query", queryHandler.Submit)
	protected.HandleFunc("GET /queries", queryHandler.List)
	protected.HandleFunc("GET /queries/{id}", queryHandler.Get)
	protected.HandleFunc("GET /architectures", architecturesHandler.List)

	var apiRoutes http.Handler = protected
	if cfg.APIKey != "" {
		apiRoutes = middleware.Auth(cfg.APIKey)(protected)
	} else {
		slog.Warn("API_KEY not set, authentication disabled")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Check)
	mux.Handle("/", apiRoutes)

	handler := middleware.RequestID(middleware.Logging(middleware.CORS(mux)))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting API server", "port", cfg.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
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
