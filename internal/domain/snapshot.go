package domain

import (
	"fmt"
	"time"
)

// SparseVector holds the non-zero weights of a row, indices ascending.
type SparseVector struct {
	Indices []int     `json:"i"`
	Values  []float64 `json:"v"`
}

// Snapshot is the persisted form of a built corpus index.
type Snapshot struct {
	SchemaVersion int
	ConfigHash    string
	Ready         bool
	Documents     []Document
	ChunkToDoc    []string
	Vocabulary    []string
	IDF           []float64
	Matrix        []SparseVector
	SavedAt       time.Time
}

// TotalChunks sums the chunk counts of all documents.
func (s *Snapshot) TotalChunks() int {
	n := 0
	for _, d := range s.Documents {
		n += d.ChunkCount()
	}
	return n
}

// Validate checks that documents, reverse map, vocabulary and matrix agree
// with each other. A snapshot that fails validation must not be used.
func (s *Snapshot) Validate() error {
	if !s.Ready {
		return fmt.Errorf("snapshot not marked ready")
	}
	if len(s.Documents) == 0 {
		return fmt.Errorf("snapshot has no documents")
	}
	if len(s.Vocabulary) == 0 || len(s.Vocabulary) != len(s.IDF) {
		return fmt.Errorf("vocabulary size %d does not match idf size %d", len(s.Vocabulary), len(s.IDF))
	}
	for i := 1; i < len(s.Vocabulary); i++ {
		if s.Vocabulary[i-1] >= s.Vocabulary[i] {
			return fmt.Errorf("vocabulary not strictly sorted at %d", i)
		}
	}

	total := s.TotalChunks()
	if len(s.ChunkToDoc) != total {
		return fmt.Errorf("reverse map has %d entries, want %d", len(s.ChunkToDoc), total)
	}
	if len(s.Matrix) != total {
		return fmt.Errorf("matrix has %d rows, want %d", len(s.Matrix), total)
	}

	seen := make(map[string]struct{}, len(s.Documents))
	pos := 0
	for _, d := range s.Documents {
		if d.ID == "" {
			return fmt.Errorf("document with empty id")
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("duplicate document id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.ChunkCount() == 0 {
			return fmt.Errorf("document %q has no chunks", d.ID)
		}
		for range d.Chunks {
			if s.ChunkToDoc[pos] != d.ID {
				return fmt.Errorf("reverse map entry %d is %q, want %q", pos, s.ChunkToDoc[pos], d.ID)
			}
			pos++
		}
	}

	for row, v := range s.Matrix {
		if len(v.Indices) != len(v.Values) {
			return fmt.Errorf("row %d: %d indices but %d values", row, len(v.Indices), len(v.Values))
		}
		prev := -1
		for _, idx := range v.Indices {
			if idx <= prev || idx >= len(s.Vocabulary) {
				return fmt.Errorf("row %d: column %d out of order or range", row, idx)
			}
			prev = idx
		}
	}
	return nil
}
