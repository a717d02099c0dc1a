package usecase

import (
	"strings"

	"studyrag/internal/adapter/retriever"
	"studyrag/internal/domain"
)

const (
	DefaultTopK              = 3
	DefaultMinSimilarity     = 0.1
	DefaultFullContextChunks = 20
)

const chunkSeparator = "\n\n"

// Retrieve ranks the chunks of ix against query. An index that is not ready
// yields an empty result rather than an error, whatever the query.
func (ix *CorpusIndex) Retrieve(query string, topK int, minSimilarity float64) (domain.RetrievalResult, error) {
	if !ix.Ready {
		return domain.EmptyResult(domain.OutcomeNotIndexed), nil
	}
	if strings.TrimSpace(query) == "" || !ix.Model.HasTerms(query) {
		return domain.RetrievalResult{}, domain.ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	hits := retriever.Rank(ix.Model.Transform(query), ix.Matrix, topK)
	hits = retriever.FilterByThreshold(hits, minSimilarity)
	if len(hits) == 0 {
		return domain.EmptyResult(domain.OutcomeNoMatch), nil
	}

	res := domain.RetrievalResult{
		Sources:      make([]domain.Source, len(hits)),
		Similarities: make([]float64, len(hits)),
		Outcome:      domain.OutcomeMatched,
	}
	texts := make([]string, len(hits))
	sum := 0.0
	for i, h := range hits {
		doc, local := ix.Locate(h.Position)
		res.Sources[i] = domain.Source{
			Filename:   doc.Filename,
			DocID:      doc.ID,
			ChunkIndex: local,
			Similarity: h.Similarity,
		}
		res.Similarities[i] = h.Similarity
		texts[i] = ix.Chunks[h.Position]
		sum += h.Similarity
	}
	res.Context = strings.Join(texts, chunkSeparator)
	res.AvgSimilarity = sum / float64(len(hits))
	return res, nil
}

// FullContext samples the leading chunks of every document, in document
// order, up to maxChunks in total.
func (ix *CorpusIndex) FullContext(maxChunks int) string {
	if len(ix.Documents) == 0 {
		return ""
	}
	if maxChunks <= 0 {
		maxChunks = DefaultFullContextChunks
	}

	perDoc := maxChunks / len(ix.Documents)
	if perDoc < 1 {
		perDoc = 1
	}

	picked := make([]string, 0, maxChunks)
	for _, doc := range ix.Documents {
		n := perDoc
		if n > len(doc.Chunks) {
			n = len(doc.Chunks)
		}
		picked = append(picked, doc.Chunks[:n]...)
	}
	if len(picked) > maxChunks {
		picked = picked[:maxChunks]
	}
	return strings.Join(picked, chunkSeparator)
}
