package usecase

import (
	"fmt"
	"time"

	"studyrag/internal/adapter/store"
	"studyrag/internal/adapter/vectorizer"
	"studyrag/internal/domain"
	"studyrag/internal/port"
)

// CorpusIndex is one fully built state of the corpus. It is never modified
// after construction; a rebuild produces a new CorpusIndex.
type CorpusIndex struct {
	Generation uint64
	Documents  []domain.Document
	Chunks     []string
	// ChunkToDoc maps a global chunk position to its document id.
	ChunkToDoc []string
	// Offsets[d] is the global position of document d's first chunk.
	Offsets    []int
	Model      *vectorizer.Model
	Matrix     []domain.SparseVector
	Ready      bool
	ConfigHash string

	ordinal map[string]int
}

func emptyIndex(gen uint64) *CorpusIndex {
	return &CorpusIndex{
		Generation: gen,
		ordinal:    map[string]int{},
	}
}

// flatten lays out the chunks of docs in document order and builds the
// reverse map and prefix sums over it.
func flatten(docs []domain.Document) *CorpusIndex {
	ix := &CorpusIndex{
		Documents: docs,
		Offsets:   make([]int, len(docs)),
		ordinal:   make(map[string]int, len(docs)),
	}
	for d, doc := range docs {
		ix.Offsets[d] = len(ix.Chunks)
		ix.ordinal[doc.ID] = d
		for _, c := range doc.Chunks {
			ix.Chunks = append(ix.Chunks, c)
			ix.ChunkToDoc = append(ix.ChunkToDoc, doc.ID)
		}
	}
	return ix
}

// Locate resolves a global chunk position to its document and the chunk's
// index within that document.
func (ix *CorpusIndex) Locate(pos int) (domain.Document, int) {
	d := ix.ordinal[ix.ChunkToDoc[pos]]
	return ix.Documents[d], pos - ix.Offsets[d]
}

// Lookup finds a document by id.
func (ix *CorpusIndex) Lookup(docID string) (domain.Document, bool) {
	d, ok := ix.ordinal[docID]
	if !ok {
		return domain.Document{}, false
	}
	return ix.Documents[d], true
}

func (ix *CorpusIndex) DocumentCount() int {
	return len(ix.Documents)
}

func (ix *CorpusIndex) ChunkCount() int {
	return len(ix.Chunks)
}

func (ix *CorpusIndex) VocabularySize() int {
	if ix.Model == nil {
		return 0
	}
	return ix.Model.Size()
}

func (ix *CorpusIndex) Stats() domain.Stats {
	return domain.Stats{
		Documents:  ix.DocumentCount(),
		Chunks:     ix.ChunkCount(),
		Vocabulary: ix.VocabularySize(),
		Indexed:    ix.Ready,
		Generation: ix.Generation,
	}
}

// Snapshot converts a ready index into its persisted form.
func (ix *CorpusIndex) Snapshot(savedAt time.Time) *domain.Snapshot {
	return &domain.Snapshot{
		SchemaVersion: store.CurrentSchemaVersion,
		ConfigHash:    ix.ConfigHash,
		Ready:         ix.Ready,
		Documents:     ix.Documents,
		ChunkToDoc:    ix.ChunkToDoc,
		Vocabulary:    ix.Model.Terms(),
		IDF:           ix.Model.IDF(),
		Matrix:        ix.Matrix,
		SavedAt:       savedAt,
	}
}

// FromSnapshot restores an index from a validated snapshot without refitting.
func FromSnapshot(snap *domain.Snapshot, analyzer port.Analyzer, params vectorizer.Params) (*CorpusIndex, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	model, err := vectorizer.NewModel(analyzer, params, snap.Vocabulary, snap.IDF)
	if err != nil {
		return nil, fmt.Errorf("failed to restore model: %w", err)
	}

	ix := flatten(snap.Documents)
	for i, id := range snap.ChunkToDoc {
		if ix.ChunkToDoc[i] != id {
			return nil, fmt.Errorf("reverse map disagrees with documents at %d", i)
		}
	}
	ix.Model = model
	ix.Matrix = snap.Matrix
	ix.Ready = true
	ix.ConfigHash = snap.ConfigHash
	return ix, nil
}
