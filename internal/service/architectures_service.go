package service

import (
	"context"
	"fmt"

	"github.com/cloudarch/advisor/internal/models"
)

// ArchitecturesRepository provides the architecture reads needed for listing.
type ArchitecturesRepository interface {
	List(ctx context.Context, limit, offset int) ([]models.Architecture, error)
	Count(ctx context.Context) (int64, error)
}

// ArchitecturesService exposes read access to the scraped architecture catalog.
type ArchitecturesService struct {
	architectures ArchitecturesRepository
}

// NewArchitecturesService creates an ArchitecturesService.
func NewArchitecturesService(architectures ArchitecturesRepository) *ArchitecturesService {
	return &ArchitecturesService{architectures: architectures}
}

// ListArchitectures returns a page of architectures, most recently scraped first.
func (s *ArchitecturesService) ListArchitectures(ctx context.Context, page, size int) (*models.ListArchitecturesResponse, error) {
	page, size = normalizePage(page, size)

	records, err := s.architectures.List(ctx, size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("list architectures: %w", err)
	}

	total, err := s.architectures.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count architectures: %w", err)
	}

	return &models.ListArchitecturesResponse{
		Data: records,
		Meta: paginationMeta(page, size, total),
	}, nil
}
