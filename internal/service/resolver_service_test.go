package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudarch/advisor/internal/apperrors"
	"github.com/cloudarch/advisor/internal/models"
)

type mockResolverRepo struct {
	getByIDFunc  func(ctx context.Context, id uuid.UUID) (*models.Query, error)
	completeFunc func(ctx context.Context, id uuid.UUID, response *models.QueryResponse) error
	completed    []*models.QueryResponse
}

func (m *mockResolverRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Query, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockResolverRepo) Complete(ctx context.Context, id uuid.UUID, response *models.QueryResponse) error {
	m.completed = append(m.completed, response)
	if m.completeFunc != nil {
		return m.completeFunc(ctx, id, response)
	}
	return nil
}

type mockRetriever struct {
	nearestFunc func(ctx context.Context, embedding []float32, limit int) ([]models.RetrievalCandidate, error)
}

func (m *mockRetriever) Nearest(ctx context.Context, embedding []float32, limit int) ([]models.RetrievalCandidate, error) {
	return m.nearestFunc(ctx, embedding, limit)
}

type mockCompleter struct {
	completeFunc func(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

func (m *mockCompleter) CreateCompletion(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	return m.completeFunc(ctx, systemPrompt, userPrompt, maxTokens, temperature)
}

func pendingQuery(id uuid.UUID, question string) *models.Query {
	return &models.Query{
		ID:        id,
		Question:  question,
		Embedding: []float32{1, 0, 0},
		Status:    models.QueryStatusPending,
	}
}

func TestResolverService_Resolve(t *testing.T) {
	ctx := context.Background()
	queryID := uuid.New()

	candidates := []models.RetrievalCandidate{
		{Title: "Web app hosting", Summary: "App Service with SQL", URL: "https://example.com/a"},
		{Title: "Event pipeline", Summary: "Event Hubs and Functions", URL: "https://example.com/b"},
	}

	t.Run("completes record with suggestion and references", func(t *testing.T) {
		repo := &mockResolverRepo{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Query, error) {
				return pendingQuery(id, "How do I host a web app?"), nil
			},
		}
		retriever := &mockRetriever{
			nearestFunc: func(ctx context.Context, embedding []float32, limit int) ([]models.RetrievalCandidate, error) {
				assert.Equal(t, 5, limit)
				return candidates, nil
			},
		}
		completer := &mockCompleter{
			completeFunc: func(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
				assert.Equal(t, "You are a cloud architecture assistant.", systemPrompt)
				assert.Contains(t, userPrompt, "Web app hosting: App Service with SQL")
				assert.Contains(t, userPrompt, "Now suggest one for: How do I host a web app?")
				assert.Equal(t, 600, maxTokens)
				assert.InDelta(t, 0.5, temperature, 1e-9)
				return "Use App Service.", nil
			},
		}

		svc := NewResolverService(ResolverServiceParams{
			Queries:     repo,
			Retriever:   retriever,
			Completions: completer,
			TopK:        5,
		})

		err := svc.Resolve(ctx, queryID, "How do I host a web app?")

		require.NoError(t, err)
		require.Len(t, repo.completed, 1)
		assert.Equal(t, "Use App Service.", repo.completed[0].AISuggestion)
		require.Len(t, repo.completed[0].ReferenceArchitectures, 2)
		assert.Equal(t, "https://example.com/a", repo.completed[0].ReferenceArchitectures[0].URL)
	})

	t.Run("completion failure degrades to fallback suggestion", func(t *testing.T) {
		repo := &mockResolverRepo{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Query, error) {
				return pendingQuery(id, "How do I host a web app?"), nil
			},
		}
		retriever := &mockRetriever{
			nearestFunc: func(ctx context.Context, embedding []float32, limit int) ([]models.RetrievalCandidate, error) {
				return candidates, nil
			},
		}
		completer := &mockCompleter{
			completeFunc: func(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
				return "", errors.New("model overloaded")
			},
		}

		svc := NewResolverService(ResolverServiceParams{
			Queries:     repo,
			Retriever:   retriever,
			Completions: completer,
			TopK:        5,
		})

		err := svc.Resolve(ctx, queryID, "How do I host a web app?")

		require.NoError(t, err, "completion failure must not fail the task")
		require.Len(t, repo.completed, 1)
		assert.Equal(t, "Sorry, there was an error generating a response.", repo.completed[0].AISuggestion)
		assert.Len(t, repo.completed[0].ReferenceArchitectures, 2,
			"references are kept even when the suggestion falls back")
	})

	t.Run("empty catalog uses placeholder grounding", func(t *testing.T) {
		repo := &mockResolverRepo{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Query, error) {
				return pendingQuery(id, "How do I host a web app?"), nil
			},
		}
		retriever := &mockRetriever{
			nearestFunc: func(ctx context.Context, embedding []float32, limit int) ([]models.RetrievalCandidate, error) {
				return nil, nil
			},
		}

		var gotPrompt string
		completer := &mockCompleter{
			completeFunc: func(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
				gotPrompt = userPrompt
				return "Start with a simple App Service plan.", nil
			},
		}

		svc := NewResolverService(ResolverServiceParams{
			Queries:     repo,
			Retriever:   retriever,
			Completions: completer,
			TopK:        5,
		})

		err := svc.Resolve(ctx, queryID, "How do I host a web app?")

		require.NoError(t, err)
		assert.True(t, strings.Contains(gotPrompt, "No relevant architectures found."))
		require.Len(t, repo.completed, 1)
		assert.Empty(t, repo.completed[0].ReferenceArchitectures)
	})

	t.Run("recomputes embedding when record has none", func(t *testing.T) {
		repo := &mockResolverRepo{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Query, error) {
				return &models.Query{ID: id, Question: "q", Status: models.QueryStatusPending}, nil
			},
		}
		embedder := &mockEmbedder{
			createFunc: func(ctx context.Context, input string) ([]float32, error) {
				return []float32{0, 1, 0}, nil
			},
		}
		retriever := &mockRetriever{
			nearestFunc: func(ctx context.Context, embedding []float32, limit int) ([]models.RetrievalCandidate, error) {
				assert.Equal(t, []float32{0, 1, 0}, embedding)
				return nil, nil
			},
		}
		completer := &mockCompleter{
			completeFunc: func(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
				return "ok", nil
			},
		}

		svc := NewResolverService(ResolverServiceParams{
			Queries:     repo,
			Retriever:   retriever,
			Embeddings:  embedder,
			Completions: completer,
			TopK:        5,
		})

		require.NoError(t, svc.Resolve(ctx, queryID, "q"))
		assert.Equal(t, 1, embedder.calls)
	})

	t.Run("missing record propagates not found", func(t *testing.T) {
		repo := &mockResolverRepo{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Query, error) {
				return nil, apperrors.NewNotFoundError("query", "query not found")
			},
		}

		svc := NewResolverService(ResolverServiceParams{Queries: repo, TopK: 5})

		err := svc.Resolve(ctx, queryID, "q")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Empty(t, repo.completed)
	})

	t.Run("store failure surfaces for redelivery", func(t *testing.T) {
		repo := &mockResolverRepo{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Query, error) {
				return pendingQuery(id, "q"), nil
			},
			completeFunc: func(ctx context.Context, id uuid.UUID, response *models.QueryResponse) error {
				return errors.New("db down")
			},
		}
		retriever := &mockRetriever{
			nearestFunc: func(ctx context.Context, embedding []float32, limit int) ([]models.RetrievalCandidate, error) {
				return nil, nil
			},
		}
		completer := &mockCompleter{
			completeFunc: func(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
				return "ok", nil
			},
		}

		svc := NewResolverService(ResolverServiceParams{
			Queries:     repo,
			Retriever:   retriever,
			Completions: completer,
			TopK:        5,
		})

		assert.Error(t, svc.Resolve(ctx, queryID, "q"))
	})
}

func TestLinearRetriever_Nearest(t *testing.T) {
	ctx := context.Background()

	lister := &mockCandidatesLister{
		candidates: []models.RetrievalCandidate{
			{Title: "orthogonal", Embedding: []float32{0, 1}},
			{Title: "identical", Embedding: []float32{1, 0}},
			{Title: "diagonal", Embedding: []float32{1, 1}},
		},
	}

	retriever := NewLinearRetriever(lister)

	nearest, err := retriever.Nearest(ctx, []float32{1, 0}, 2)

	require.NoError(t, err)
	require.Len(t, nearest, 2)
	assert.Equal(t, "identical", nearest[0].Title)
	assert.Equal(t, "diagonal", nearest[1].Title)
}

type mockCandidatesLister struct {
	candidates []models.RetrievalCandidate
	err        error
}

func (m *mockCandidatesLister) ListEmbedded(ctx context.Context) ([]models.RetrievalCandidate, error) {
	return m.candidates, m.err
}
