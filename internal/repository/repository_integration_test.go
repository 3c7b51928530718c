package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudarch/advisor/internal/apperrors"
	"github.com/cloudarch/advisor/internal/models"
)

// testPool connects to the database named by TEST_DATABASE_URL, which must
// have the pgvector extension and the schema from migrations/ applied.
// Tests are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration tests")
	}

	ctx := context.Background()

	cfg, err := pgxpool.ParseConfig(databaseURL)
	require.NoError(t, err)
	cfg.AfterConnect = pgxvec.RegisterTypes

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE architectures, queries`)
	require.NoError(t, err)

	return pool
}

func testEmbedding(fill float32) []float32 {
	emb := make([]float32, 1536)
	for i := range emb {
		emb[i] = fill
	}
	return emb
}

func TestQueriesRepository_Integration(t *testing.T) {
	pool := testPool(t)
	repo := NewQueriesRepository(pool)
	ctx := context.Background()

	t.Run("insert and get round-trip", func(t *testing.T) {
		record, err := repo.Insert(ctx, "How do I host a web app?", testEmbedding(0.1))
		require.NoError(t, err)
		assert.Equal(t, models.QueryStatusPending, record.Status)

		got, err := repo.GetByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "How do I host a web app?", got.Question)
		assert.Len(t, got.Embedding, 1536)
		assert.Nil(t, got.Response)
	})

	t.Run("complete sets status and response", func(t *testing.T) {
		record, err := repo.Insert(ctx, "Design a data lake", testEmbedding(0.2))
		require.NoError(t, err)

		response := &models.QueryResponse{
			AISuggestion: "Use Data Lake Storage with Synapse.",
			ReferenceArchitectures: []models.ReferenceArchitecture{
				{Title: "Data lake", Summary: "s", URL: "https://example.com"},
			},
		}
		require.NoError(t, repo.Complete(ctx, record.ID, response))

		got, err := repo.GetByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, models.QueryStatusComplete, got.Status)
		require.NotNil(t, got.Response)
		assert.Equal(t, response.AISuggestion, got.Response.AISuggestion)
		require.Len(t, got.Response.ReferenceArchitectures, 1)
	})

	t.Run("get unknown id is not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("list embedded returns every stored embedding", func(t *testing.T) {
		embedded, err := repo.ListEmbedded(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(embedded), 2)

		for _, e := range embedded {
			assert.Len(t, e.Embedding, 1536)
		}
	})
}

func TestArchitecturesRepository_Integration(t *testing.T) {
	pool := testPool(t)
	repo := NewArchitecturesRepository(pool)
	ctx := context.Background()

	arch := &models.Architecture{
		URL:              "https://example.com/azure/architecture/web-apps/basic/",
		Title:            "Basic web application",
		Summary:          "A basic web app on App Service.",
		AzureServices:    []string{"App Service"},
		Categories:       []string{"Web"},
		Tags:             []string{"web"},
		CategorySlug:     "web-apps",
		ArchitectureType: models.ArchitectureTypeApplication,
		Industries:       []string{"General"},
		Compliance:       []string{"None"},
		CostTier:         "moderate",
		Complexity:       models.ComplexityLow,
		Keywords:         []string{"basic", "web"},
		SearchTags:       []string{"app-service"},
		SourceType:       "microsoft-official",
		Embedding:        testEmbedding(0.3),
		ScrapedAt:        time.Now().UTC(),
	}

	t.Run("upsert by url does not duplicate", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, arch))
		firstID := arch.ID

		arch.Title = "Basic web application (updated)"
		require.NoError(t, repo.Upsert(ctx, arch))
		assert.Equal(t, firstID, arch.ID)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		listed, err := repo.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "Basic web application (updated)", listed[0].Title)
	})

	t.Run("record without embedding is stored but not retrievable", func(t *testing.T) {
		noEmbedding := *arch
		noEmbedding.URL = "https://example.com/azure/architecture/other/"
		noEmbedding.Embedding = nil
		require.NoError(t, repo.Upsert(ctx, &noEmbedding))

		candidates, err := repo.ListEmbedded(ctx)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, arch.URL, candidates[0].URL)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}
