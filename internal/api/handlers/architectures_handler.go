package handlers

import (
	"context"
	"net/http"

	"github.com/cloudarch/advisor/internal/models"
)

// ArchitecturesService defines the interface for browsing the scraped catalog.
type ArchitecturesService interface {
	ListArchitectures(ctx context.Context, page, size int) (*models.ListArchitecturesResponse, error)
}

// ArchitecturesHandler handles HTTP requests for the architecture catalog.
type ArchitecturesHandler struct {
	service ArchitecturesService
}

// NewArchitecturesHandler creates a new architectures handler.
func NewArchitecturesHandler(service ArchitecturesService) *ArchitecturesHandler {
	return &ArchitecturesHandler{service: service}
}

// List handles GET /architectures with 1-based page/size pagination.
func (h *ArchitecturesHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, ok := parsePagination(w, r)
	if !ok {
		return
	}

	result, err := h.service.ListArchitectures(r.Context(), page, size)
	if err != nil {
		RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	RespondJSON(w, http.StatusOK, result)
}
