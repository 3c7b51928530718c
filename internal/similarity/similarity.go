// Package similarity implements in-process cosine similarity ranking over
// embedding vectors. The corpus is small (reference architectures, not
// web-scale), so a linear scan is deliberate; callers depend on interfaces so
// an indexed nearest-neighbor implementation can replace it.
package similarity

import (
	"math"
	"sort"
)

// Scored pairs a candidate's original index with its similarity score.
type Scored struct {
	Index int
	Score float64
}

// Cosine returns the cosine similarity of a and b: their dot product divided
// by the product of their norms. Returns NaN for zero-norm or
// mismatched-length inputs; callers must treat NaN as non-matching.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK returns up to k candidates ranked by descending cosine similarity to
// query. Candidates with an undefined (NaN) score are excluded. Ties keep the
// candidates' original order.
func TopK(query []float32, candidates [][]float32, k int) []Scored {
	if k <= 0 {
		return nil
	}

	scored := make([]Scored, 0, len(candidates))

	for i, c := range candidates {
		score := Cosine(query, c)
		if math.IsNaN(score) {
			continue
		}

		scored = append(scored, Scored{Index: i, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}

	return scored
}

// BestMatch returns the index and score of the candidate with the highest
// cosine similarity to query, but only when that score strictly exceeds
// threshold. A score exactly at the threshold does not match. Candidates with
// an undefined (NaN) score never match.
func BestMatch(query []float32, candidates [][]float32, threshold float64) (int, float64, bool) {
	bestIdx := -1
	bestScore := math.Inf(-1)

	for i, c := range candidates {
		score := Cosine(query, c)
		if math.IsNaN(score) {
			continue
		}

		if score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	if bestIdx < 0 || bestScore <= threshold {
		return -1, 0, false
	}

	return bestIdx, bestScore, true
}
