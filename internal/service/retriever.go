package service

import (
	"context"
	"fmt"

	"github.com/cloudarch/advisor/internal/models"
	"github.com/cloudarch/advisor/internal/similarity"
)

// ArchitectureRetriever finds stored architectures relevant to a question
// vector. The linear-scan implementation below is a correctness-first
// placeholder; an indexed nearest-neighbor structure can be substituted
// without changing callers.
type ArchitectureRetriever interface {
	Nearest(ctx context.Context, embedding []float32, limit int) ([]models.RetrievalCandidate, error)
}

// RetrievalCandidatesLister provides the embedded-architecture read needed for retrieval.
type RetrievalCandidatesLister interface {
	ListEmbedded(ctx context.Context) ([]models.RetrievalCandidate, error)
}

// LinearRetriever ranks all embedded architectures by cosine similarity.
// O(n·d) per query, acceptable at reference-architecture corpus scale.
type LinearRetriever struct {
	architectures RetrievalCandidatesLister
}

// NewLinearRetriever creates a retriever backed by a full similarity scan.
func NewLinearRetriever(architectures RetrievalCandidatesLister) *LinearRetriever {
	return &LinearRetriever{architectures: architectures}
}

// Nearest returns up to limit architectures by descending similarity to embedding.
func (r *LinearRetriever) Nearest(ctx context.Context, embedding []float32, limit int) ([]models.RetrievalCandidate, error) {
	candidates, err := r.architectures.ListEmbedded(ctx)
	if err != nil {
		return nil, fmt.Errorf("list embedded architectures: %w", err)
	}

	vectors := make([][]float32, len(candidates))
	for i := range candidates {
		vectors[i] = candidates[i].Embedding
	}

	ranked := similarity.TopK(embedding, vectors, limit)

	nearest := make([]models.RetrievalCandidate, 0, len(ranked))
	for _, s := range ranked {
		nearest = append(nearest, candidates[s.Index])
	}

	return nearest, nil
}
