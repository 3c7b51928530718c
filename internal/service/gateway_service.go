package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/cloudarch/advisor/internal/apperrors"
	"github.com/cloudarch/advisor/internal/jobs"
	"github.com/cloudarch/advisor/internal/models"
	"github.com/cloudarch/advisor/internal/similarity"
)

// Default and maximum page sizes for list endpoints.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// QueriesRepository provides the query record operations needed by the gateway.
type QueriesRepository interface {
	Insert(ctx context.Context, question string, embedding []float32) (*models.Query, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Query, error)
	ListEmbedded(ctx context.Context) ([]models.QueryEmbedding, error)
	List(ctx context.Context, limit, offset int) ([]models.Query, error)
	Count(ctx context.Context) (int64, error)
}

// GatewayService accepts new questions, short-circuits semantic duplicates
// against previously asked questions, and otherwise enqueues resolution work.
type GatewayService struct {
	queries        QueriesRepository
	embeddings     EmbeddingClient
	inserter       jobs.TaskInserter
	matchThreshold float64
	queryCache     *lru.Cache[string, []float32]
	queryLoadGroup singleflight.Group
	logger         *slog.Logger
}

// GatewayServiceParams configures GatewayService. QueryCache may be nil (no caching).
type GatewayServiceParams struct {
	Queries        QueriesRepository
	Embeddings     EmbeddingClient
	Inserter       jobs.TaskInserter
	MatchThreshold float64
	QueryCache     *lru.Cache[string, []float32]
	Logger         *slog.Logger
}

// NewGatewayService creates a GatewayService.
func NewGatewayService(p GatewayServiceParams) *GatewayService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GatewayService{
		queries:        p.Queries,
		embeddings:     p.Embeddings,
		inserter:       p.Inserter,
		matchThreshold: p.MatchThreshold,
		queryCache:     p.QueryCache,
		logger:         logger,
	}
}

// SubmitQuestion handles a new question. When a stored question's embedding
// exceeds the match threshold, the existing record is returned synchronously
// and nothing is enqueued. Otherwise a pending record is persisted, a resolve
// task is published, and a pending handle is returned.
//
// Two near-duplicate concurrent submissions can both pass the match check
// before either is persisted, producing two records and two tasks. Both
// resolve correctly; this race is accepted.
func (s *GatewayService) SubmitQuestion(ctx context.Context, question string) (*models.SubmitQueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperrors.NewValidationError("question", "question is required and must be non-empty")
	}

	embedding, err := s.questionEmbedding(ctx, question)
	if err != nil {
		s.logger.Error("submit: create embedding failed", "error", err)

		return nil, apperrors.NewUnavailableError("embedding provider", err)
	}

	candidates, err := s.queries.ListEmbedded(ctx)
	if err != nil {
		return nil, fmt.Errorf("list embedded queries: %w", err)
	}

	vectors := make([][]float32, len(candidates))
	for i := range candidates {
		vectors[i] = candidates[i].Embedding
	}

	// The match check must complete before the enqueue decision.
	if idx, score, ok := similarity.BestMatch(embedding, vectors, s.matchThreshold); ok {
		matched, err := s.queries.GetByID(ctx, candidates[idx].ID)
		if err != nil {
			return nil, fmt.Errorf("get matched query: %w", err)
		}

		s.logger.Info("submit: matched existing query",
			"query_id", matched.ID,
			"score", score,
		)

		return &models.SubmitQueryResult{
			QueryID:  matched.ID,
			Status:   models.SubmitStatusMatched,
			Response: matched.Response,
		}, nil
	}

	record, err := s.queries.Insert(ctx, question, embedding)
	if err != nil {
		return nil, fmt.Errorf("insert query: %w", err)
	}

	if err := s.inserter.InsertResolveQuery(ctx, jobs.ResolveQueryArgs{
		QueryID:  record.ID,
		Question: question,
	}); err != nil {
		// The pending record remains; reconciliation is external tooling's job.
		s.logger.Error("submit: enqueue failed, record left pending",
			"query_id", record.ID,
			"error", err,
		)

		return nil, apperrors.NewQueueError(err)
	}

	s.logger.Info("submit: queued new query", "query_id", record.ID)

	return &models.SubmitQueryResult{
		QueryID: record.ID,
		Status:  models.SubmitStatusQueued,
	}, nil
}

// GetQuery returns a single query record.
func (s *GatewayService) GetQuery(ctx context.Context, id uuid.UUID) (*models.Query, error) {
	return s.queries.GetByID(ctx, id)
}

// ListQueries returns a page of query records, newest first. page is 1-based;
// size defaults to DefaultPageSize and is capped at MaxPageSize.
func (s *GatewayService) ListQueries(ctx context.Context, page, size int) (*models.ListQueriesResponse, error) {
	page, size = normalizePage(page, size)

	records, err := s.queries.List(ctx, size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}

	total, err := s.queries.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count queries: %w", err)
	}

	return &models.ListQueriesResponse{
		Data: records,
		Meta: paginationMeta(page, size, total),
	}, nil
}

// questionEmbedding returns the question's embedding, served from the LRU
// cache when present; concurrent misses for the same question are coalesced.
func (s *GatewayService) questionEmbedding(ctx context.Context, question string) ([]float32, error) {
	if s.queryCache == nil {
		return s.embeddings.CreateEmbedding(ctx, question)
	}

	if vec, ok := s.queryCache.Get(question); ok {
		return vec, nil
	}

	val, err, _ := s.queryLoadGroup.Do(question, func() (any, error) {
		vec, loadErr := s.embeddings.CreateEmbedding(ctx, question)
		if loadErr != nil {
			return nil, loadErr
		}

		s.queryCache.Add(question, vec)

		return vec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("question embedding: %w", err)
	}

	return val.([]float32), nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}

	if size <= 0 {
		size = DefaultPageSize
	}

	if size > MaxPageSize {
		size = MaxPageSize
	}

	return page, size
}

func paginationMeta(page, size int, total int64) models.PaginationMeta {
	totalPages := int((total + int64(size) - 1) / int64(size))

	return models.PaginationMeta{
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
	}
}
