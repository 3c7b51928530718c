package models

import (
	"time"

	"github.com/google/uuid"
)

// Query lifecycle statuses.
const (
	QueryStatusPending  = "pending"
	QueryStatusComplete = "complete"
)

// Submission outcomes returned by the gateway.
const (
	SubmitStatusMatched = "matched"
	SubmitStatusQueued  = "queued"
)

// Query represents a submitted question and its resolution state.
// Once status is complete the record is only ever overwritten by a
// re-delivered resolve task for the same id (last write wins).
type Query struct {
	ID        uuid.UUID      `json:"id"`
	Question  string         `json:"question"`
	Embedding []float32      `json:"-"`
	Status    string         `json:"status"`
	Response  *QueryResponse `json:"response"`
	CreatedAt time.Time      `json:"created_at"`
}

// QueryResponse is the resolved answer persisted on a completed query.
type QueryResponse struct {
	AISuggestion           string                  `json:"ai_suggestion"`
	ReferenceArchitectures []ReferenceArchitecture `json:"reference_architectures"`
}

// QueryEmbedding is the projection used for duplicate-question matching.
type QueryEmbedding struct {
	ID        uuid.UUID
	Embedding []float32
}

// SubmitQueryRequest is the body of POST /query.
type SubmitQueryRequest struct {
	Question string `json:"question"`
}

// SubmitQueryResult is the gateway's answer to a submitted question: either a
// synchronous match against an existing record or a queued pending handle.
type SubmitQueryResult struct {
	QueryID  uuid.UUID      `json:"query_id"`
	Status   string         `json:"status"`
	Response *QueryResponse `json:"response,omitempty"`
}

// PaginationMeta describes a page of results.
type PaginationMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ListQueriesResponse is the paginated envelope for listing queries.
type ListQueriesResponse struct {
	Data []Query        `json:"data"`
	Meta PaginationMeta `json:"meta"`
}
