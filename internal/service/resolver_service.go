package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/cloudarch/advisor/internal/models"
)

const (
	resolverSystemPrompt = "You are a cloud architecture assistant."

	// fallbackSuggestion completes a record when the completion provider fails;
	// a query is never left permanently pending because of a provider error.
	fallbackSuggestion = "Sorry, there was an error generating a response."

	noArchitecturesPlaceholder = "No relevant architectures found."

	completionMaxTokens   = 600
	completionTemperature = 0.5
)

// ResolverQueriesRepository provides the query record operations needed by the resolver.
type ResolverQueriesRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Query, error)
	Complete(ctx context.Context, id uuid.UUID, response *models.QueryResponse) error
}

// ResolverService turns a queued question into a completed query record:
// retrieve similar architectures, generate a grounded suggestion, persist.
type ResolverService struct {
	queries     ResolverQueriesRepository
	retriever   ArchitectureRetriever
	embeddings  EmbeddingClient
	completions CompletionClient
	topK        int
	logger      *slog.Logger
}

// ResolverServiceParams configures ResolverService.
type ResolverServiceParams struct {
	Queries     ResolverQueriesRepository
	Retriever   ArchitectureRetriever
	Embeddings  EmbeddingClient
	Completions CompletionClient
	TopK        int
	Logger      *slog.Logger
}

// NewResolverService creates a ResolverService.
func NewResolverService(p ResolverServiceParams) *ResolverService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ResolverService{
		queries:     p.Queries,
		retriever:   p.Retriever,
		embeddings:  p.Embeddings,
		completions: p.Completions,
		topK:        p.TopK,
		logger:      logger,
	}
}

// Resolve loads the query record, retrieves grounding architectures, invokes
// the completion provider, and completes the record. A completion provider
// failure degrades to the fallback suggestion with the retrieved references
// still attached; embedding or store failures are returned so the task is
// redelivered.
func (s *ResolverService) Resolve(ctx context.Context, queryID uuid.UUID, question string) error {
	record, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		return err
	}

	embedding := record.Embedding
	if len(embedding) == 0 {
		// Gateway-written records always carry an embedding; recompute only
		// for records written by other tooling.
		embedding, err = s.embeddings.CreateEmbedding(ctx, record.Question)
		if err != nil {
			return fmt.Errorf("create question embedding: %w", err)
		}
	}

	retrieved, err := s.retriever.Nearest(ctx, embedding, s.topK)
	if err != nil {
		return fmt.Errorf("retrieve architectures: %w", err)
	}

	references := make([]models.ReferenceArchitecture, 0, len(retrieved))
	for _, c := range retrieved {
		references = append(references, models.ReferenceArchitecture{
			Title:   c.Title,
			Summary: c.Summary,
			URL:     c.URL,
		})
	}

	userPrompt := fmt.Sprintf(
		"Here are some reference Azure architectures:\n%s\n\nNow suggest one for: %s",
		groundingContext(retrieved), record.Question,
	)

	suggestion, err := s.completions.CreateCompletion(
		ctx, resolverSystemPrompt, userPrompt, completionMaxTokens, completionTemperature,
	)
	if err != nil {
		s.logger.Error("resolve: completion failed, using fallback",
			"query_id", queryID,
			"error", err,
		)

		suggestion = fallbackSuggestion
	}

	response := &models.QueryResponse{
		AISuggestion:           suggestion,
		ReferenceArchitectures: references,
	}

	if err := s.queries.Complete(ctx, queryID, response); err != nil {
		return fmt.Errorf("complete query: %w", err)
	}

	return nil
}

// groundingContext formats retrieved architectures as prompt context lines.
func groundingContext(retrieved []models.RetrievalCandidate) string {
	if len(retrieved) == 0 {
		return noArchitecturesPlaceholder
	}

	lines := make([]string, 0, len(retrieved))
	for _, c := range retrieved {
		lines = append(lines, fmt.Sprintf("%s: %s", c.Title, c.Summary))
	}

	return strings.Join(lines, "\n")
}
