package models

import (
	"time"

	"github.com/google/uuid"
)

// Architecture type values.
const (
	ArchitectureTypeApplication = "Application"
	ArchitectureTypeGeneral     = "General"
)

// Complexity values, derived from the number of services an architecture uses.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// Architecture represents a scraped reference architecture.
// Records are keyed by URL: re-scraping upserts rather than duplicates.
type Architecture struct {
	ID               uuid.UUID `json:"id"`
	URL              string    `json:"url"`
	Title            string    `json:"title"`
	Summary          string    `json:"summary"`
	ThumbnailURL     string    `json:"thumbnail_url,omitempty"`
	AzureServices    []string  `json:"azure_services"`
	Categories       []string  `json:"categories"`
	Tags             []string  `json:"tags"`
	CategorySlug     string    `json:"category_slug"`
	ArchitectureType string    `json:"architecture_type"`
	Industries       []string  `json:"industries"`
	Compliance       []string  `json:"compliance"`
	CostTier         string    `json:"cost_tier"`
	Complexity       string    `json:"complexity"`
	Keywords         []string  `json:"keywords"`
	SearchTags       []string  `json:"search_tags"`
	SourceType       string    `json:"source_type"`
	// Embedding is nil when generation failed at scrape time; such records are
	// stored but excluded from similarity search.
	Embedding []float32 `json:"-"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// EstimateComplexity classifies an architecture by its service count:
// 0-2 low, 3-5 medium, 6+ high.
func EstimateComplexity(serviceCount int) string {
	switch {
	case serviceCount <= 2:
		return ComplexityLow
	case serviceCount <= 5:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}

// RetrievalCandidate is the projection of an architecture used for similarity
// retrieval: just enough to rank it and cite it in a response.
type RetrievalCandidate struct {
	Title     string
	Summary   string
	URL       string
	Embedding []float32
}

// ReferenceArchitecture is an architecture citation attached to a completed query.
type ReferenceArchitecture struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// ListArchitecturesResponse is the paginated envelope for listing architectures.
type ListArchitecturesResponse struct {
	Data []Architecture `json:"data"`
	Meta PaginationMeta `json:"meta"`
}
