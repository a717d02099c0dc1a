package retriever

import (
	"sort"

	"studyrag/internal/adapter/vectorizer"
	"studyrag/internal/domain"
)

// Hit is a ranked row of the weight matrix.
type Hit struct {
	Position   int
	Similarity float64
}

// Rank scores every row of matrix against query and returns the k best,
// highest similarity first. Equal scores keep matrix order.
func Rank(query domain.SparseVector, matrix []domain.SparseVector, k int) []Hit {
	if k <= 0 || len(matrix) == 0 {
		return nil
	}

	hits := make([]Hit, len(matrix))
	for i, row := range matrix {
		hits[i] = Hit{Position: i, Similarity: vectorizer.Cosine(query, row)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// FilterByThreshold drops hits scoring below min.
func FilterByThreshold(hits []Hit, min float64) []Hit {
	filtered := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Similarity >= min {
			filtered = append(filtered, h)
		}
	}
	return filtered
}
