package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/cloudarch/advisor/internal/apperrors"
	"github.com/cloudarch/advisor/internal/models"
)

// GatewayService defines the interface for query intake and listing.
type GatewayService interface {
	SubmitQuestion(ctx context.Context, question string) (*models.SubmitQueryResult, error)
	GetQuery(ctx context.Context, id uuid.UUID) (*models.Query, error)
	ListQueries(ctx context.Context, page, size int) (*models.ListQueriesResponse, error)
}

// QueryHandler handles HTTP requests for the query pipeline.
type QueryHandler struct {
	service GatewayService
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(service GatewayService) *QueryHandler {
	return &QueryHandler{service: service}
}

// Submit handles POST /query. Returns status "matched" with the stored
// response when a semantically equivalent question already exists, otherwise
// "queued" with a pending query id.
func (h *QueryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondBadRequest(w, "Invalid request body")
		return
	}

	result, err := h.service.SubmitQuestion(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			RespondBadRequest(w, err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrUnavailable) {
			RespondServiceUnavailable(w, "Embedding provider unavailable, retry later")
			return
		}
		if errors.Is(err, apperrors.ErrQueue) {
			RespondBadGateway(w, "Failed to enqueue query for resolution, retry later")
			return
		}
		RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// Get handles GET /queries/{id}
func (h *QueryHandler) Get(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	if idStr == "" {
		RespondBadRequest(w, "Query ID is required")
		return
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		RespondBadRequest(w, "Invalid UUID format")
		return
	}

	record, err := h.service.GetQuery(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			RespondNotFound(w, "Query not found")
			return
		}
		RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	RespondJSON(w, http.StatusOK, record)
}

// List handles GET /queries with 1-based page/size pagination.
func (h *QueryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, ok := parsePagination(w, r)
	if !ok {
		return
	}

	result, err := h.service.ListQueries(r.Context(), page, size)
	if err != nil {
		RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// parsePagination reads optional page and size query parameters.
// Writes a 400 response and returns ok=false on invalid input.
func parsePagination(w http.ResponseWriter, r *http.Request) (page, size int, ok bool) {
	query := r.URL.Query()

	if pageStr := query.Get("page"); pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			RespondBadRequest(w, "Invalid page parameter")
			return 0, 0, false
		}
		page = p
	}

	if sizeStr := query.Get("size"); sizeStr != "" {
		s, err := strconv.Atoi(sizeStr)
		if err != nil || s <= 0 {
			RespondBadRequest(w, "Invalid size parameter")
			return 0, 0, false
		}
		size = s
	}

	return page, size, true
}
