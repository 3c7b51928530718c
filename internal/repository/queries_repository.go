package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloudarch/advisor/internal/apperrors"
	"github.com/cloudarch/advisor/internal/models"
)

// QueriesRepository handles data access for query records.
type QueriesRepository struct {
	db *pgxpool.Pool
}

// NewQueriesRepository creates a new queries repository.
func NewQueriesRepository(db *pgxpool.Pool) *QueriesRepository {
	return &QueriesRepository{db: db}
}

// Insert persists a new pending query record with its question embedding.
func (r *QueriesRepository) Insert(ctx context.Context, question string, embedding []float32) (*models.Query, error) {
	query := `
		INSERT INTO queries (question, embedding, status, response, created_at)
		VALUES ($1, $2, $3, NULL, $4)
		RETURNING id, question, status, created_at
	`

	record := models.Query{Embedding: embedding}

	err := r.db.QueryRow(ctx, query,
		question, pgvector.NewVector(embedding), models.QueryStatusPending, time.Now(),
	).Scan(&record.ID, &record.Question, &record.Status, &record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert query: %w", err)
	}

	return &record, nil
}

// GetByID retrieves a single query record by ID.
func (r *QueriesRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Query, error) {
	query := `
		SELECT id, question, embedding, status, response, created_at
		FROM queries
		WHERE id = $1
	`

	var (
		record   models.Query
		emb      nullableEmbedding
		respJSON []byte
	)

	err := r.db.QueryRow(ctx, query, id).Scan(
		&record.ID, &record.Question, &emb, &record.Status, &respJSON, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("query", "query not found")
		}

		return nil, fmt.Errorf("failed to get query: %w", err)
	}

	record.Embedding = emb

	if len(respJSON) > 0 {
		var resp models.QueryResponse
		if err := json.Unmarshal(respJSON, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode query response: %w", err)
		}

		record.Response = &resp
	}

	return &record, nil
}

// ListEmbedded returns the id and embedding of every query record that has an
// embedding, for duplicate-question matching.
func (r *QueriesRepository) ListEmbedded(ctx context.Context) ([]models.QueryEmbedding, error) {
	rows, err := r.db.Query(ctx, `SELECT id, embedding FROM queries WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded queries: %w", err)
	}
	defer rows.Close()

	var records []models.QueryEmbedding

	for rows.Next() {
		var (
			record models.QueryEmbedding
			emb    nullableEmbedding
		)

		if err := rows.Scan(&record.ID, &emb); err != nil {
			return nil, fmt.Errorf("failed to scan query embedding: %w", err)
		}

		record.Embedding = emb

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embedded queries: %w", err)
	}

	return records, nil
}

// List retrieves query records ordered by newest first.
func (r *QueriesRepository) List(ctx context.Context, limit, offset int) ([]models.Query, error) {
	query := `
		SELECT id, question, status, response, created_at
		FROM queries
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer rows.Close()

	records := []models.Query{} // Initialize as empty slice, not nil

	for rows.Next() {
		var (
			record   models.Query
			respJSON []byte
		)

		if err := rows.Scan(&record.ID, &record.Question, &record.Status, &respJSON, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}

		if len(respJSON) > 0 {
			var resp models.QueryResponse
			if err := json.Unmarshal(respJSON, &resp); err != nil {
				return nil, fmt.Errorf("failed to decode query response: %w", err)
			}

			record.Response = &resp
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queries: %w", err)
	}

	return records, nil
}

// Count returns the total count of query records.
func (r *QueriesRepository) Count(ctx context.Context) (int64, error) {
	var count int64

	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM queries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count queries: %w", err)
	}

	return count, nil
}

// Complete transitions a query record to complete with the resolved response.
// Completing the same id again overwrites the previous response (safe under
// at-least-once task redelivery).
func (r *QueriesRepository) Complete(ctx context.Context, id uuid.UUID, response *models.QueryResponse) error {
	respJSON, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to encode query response: %w", err)
	}

	result, err := r.db.Exec(ctx,
		`UPDATE queries SET status = $1, response = $2::jsonb WHERE id = $3`,
		models.QueryStatusComplete, respJSON, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete query: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("query", "query not found")
	}

	return nil
}
