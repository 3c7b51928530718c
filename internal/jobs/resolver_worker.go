package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"golang.org/x/time/rate"

	"github.com/cloudarch/advisor/internal/apperrors"
)

// QueryResolver resolves a pending query into a completed record.
type QueryResolver interface {
	Resolve(ctx context.Context, queryID uuid.UUID, question string) error
}

// ResolverWorker processes query resolution tasks. A task is acknowledged
// (Work returns nil) only after the query record update attempt, so a crash
// mid-processing causes redelivery and a safe re-resolution of the same id.
type ResolverWorker struct {
	river.WorkerDefaults[ResolveQueryArgs]

	resolver QueryResolver
	limiter  *rate.Limiter
}

// NewResolverWorker creates a worker that resolves queued questions.
// limiter may be nil (no provider rate limiting).
func NewResolverWorker(resolver QueryResolver, limiter *rate.Limiter) *ResolverWorker {
	return &ResolverWorker{
		resolver: resolver,
		limiter:  limiter,
	}
}

const resolveTimeout = 2 * time.Minute

// Timeout limits how long a single resolve job can run.
func (w *ResolverWorker) Timeout(*river.Job[ResolveQueryArgs]) time.Duration {
	return resolveTimeout
}

// Work resolves one queued question.
func (w *ResolverWorker) Work(ctx context.Context, job *river.Job[ResolveQueryArgs]) error {
	args := job.Args

	slog.Info("resolve: received task",
		"query_id", args.QueryID,
		"attempt", job.Attempt,
	)

	// Wait for a rate limit token if configured
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	if err := w.resolver.Resolve(ctx, args.QueryID, args.Question); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Record was deleted between enqueue and delivery; nothing to resolve.
			slog.Warn("resolve: query record not found, dropping task",
				"query_id", args.QueryID,
			)

			return nil
		}

		return fmt.Errorf("resolve query %s: %w", args.QueryID, err)
	}

	slog.Info("resolve: query completed", "query_id", args.QueryID)

	return nil
}
