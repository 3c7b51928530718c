// Package repository provides data access for architectures and queries.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloudarch/advisor/internal/models"
)

// ArchitecturesRepository handles data access for scraped reference architectures.
type ArchitecturesRepository struct {
	db *pgxpool.Pool
}

// NewArchitecturesRepository creates a new architectures repository.
func NewArchitecturesRepository(db *pgxpool.Pool) *ArchitecturesRepository {
	return &ArchitecturesRepository{db: db}
}

// Upsert inserts or updates an architecture keyed by URL. Re-scraping the same
// URL overwrites every field including the embedding (which may be NULL when
// generation failed).
func (r *ArchitecturesRepository) Upsert(ctx context.Context, arch *models.Architecture) error {
	var embedding any
	if arch.Embedding != nil {
		embedding = pgvector.NewVector(arch.Embedding)
	}

	query := `
		INSERT INTO architectures (
			url, title, summary, thumbnail_url,
			azure_services, categories, tags, category_slug, architecture_type,
			industries, compliance, cost_tier, complexity,
			keywords, search_tags, source_type, embedding, scraped_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			thumbnail_url = EXCLUDED.thumbnail_url,
			azure_services = EXCLUDED.azure_services,
			categories = EXCLUDED.categories,
			tags = EXCLUDED.tags,
			category_slug = EXCLUDED.category_slug,
			architecture_type = EXCLUDED.architecture_type,
			industries = EXCLUDED.industries,
			compliance = EXCLUDED.compliance,
			cost_tier = EXCLUDED.cost_tier,
			complexity = EXCLUDED.complexity,
			keywords = EXCLUDED.keywords,
			search_tags = EXCLUDED.search_tags,
			source_type = EXCLUDED.source_type,
			embedding = EXCLUDED.embedding,
			scraped_at = EXCLUDED.scraped_at
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		arch.URL, arch.Title, arch.Summary, arch.ThumbnailURL,
		arch.AzureServices, arch.Categories, arch.Tags, arch.CategorySlug, arch.ArchitectureType,
		arch.Industries, arch.Compliance, arch.CostTier, arch.Complexity,
		arch.Keywords, arch.SearchTags, arch.SourceType, embedding, arch.ScrapedAt,
	).Scan(&arch.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert architecture: %w", err)
	}

	return nil
}

// ListEmbedded returns retrieval candidates for every architecture that has an
// embedding. Records without one are excluded from similarity search.
func (r *ArchitecturesRepository) ListEmbedded(ctx context.Context) ([]models.RetrievalCandidate, error) {
	query := `
		SELECT title, summary, url, embedding
		FROM architectures
		WHERE embedding IS NOT NULL
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded architectures: %w", err)
	}
	defer rows.Close()

	var candidates []models.RetrievalCandidate

	for rows.Next() {
		var (
			c   models.RetrievalCandidate
			emb nullableEmbedding
		)

		if err := rows.Scan(&c.Title, &c.Summary, &c.URL, &emb); err != nil {
			return nil, fmt.Errorf("failed to scan retrieval candidate: %w", err)
		}

		c.Embedding = emb

		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embedded architectures: %w", err)
	}

	return candidates, nil
}

// List retrieves architectures ordered by most recent scrape.
func (r *ArchitecturesRepository) List(ctx context.Context, limit, offset int) ([]models.Architecture, error) {
	query := `
		SELECT id, url, title, summary, thumbnail_url,
			azure_services, categories, tags, category_slug, architecture_type,
			industries, compliance, cost_tier, complexity,
			keywords, search_tags, source_type, scraped_at
		FROM architectures
		ORDER BY scraped_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list architectures: %w", err)
	}
	defer rows.Close()

	records := []models.Architecture{} // Initialize as empty slice, not nil

	for rows.Next() {
		var record models.Architecture

		err := rows.Scan(
			&record.ID, &record.URL, &record.Title, &record.Summary, &record.ThumbnailURL,
			&record.AzureServices, &record.Categories, &record.Tags, &record.CategorySlug, &record.ArchitectureType,
			&record.Industries, &record.Compliance, &record.CostTier, &record.Complexity,
			&record.Keywords, &record.SearchTags, &record.SourceType, &record.ScrapedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan architecture: %w", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating architectures: %w", err)
	}

	return records, nil
}

// Count returns the total count of stored architectures.
func (r *ArchitecturesRepository) Count(ctx context.Context) (int64, error) {
	var count int64

	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM architectures`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count architectures: %w", err)
	}

	return count, nil
}
