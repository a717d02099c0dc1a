package port

import (
	"context"

	"studyrag/internal/domain"
)

// ContextRetriever is the read side of the corpus index.
type ContextRetriever interface {
	RetrieveContext(ctx context.Context, query string, topK int, minSimilarity float64) (domain.RetrievalResult, error)

	FullContext(maxChunks int) string

	HasDocuments() bool
}

// QueryCache memoises retrieval results.
type QueryCache interface {
	Get(key string) (domain.RetrievalResult, bool)
	Add(key string, result domain.RetrievalResult)
	Purge()
}
