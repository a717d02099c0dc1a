package memstore

import (
	"errors"
	"sync"

	"studyrag/internal/domain"
)

// MemoryStore holds a snapshot in process memory. It backs ephemeral runs
// and tests; nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	snap  *domain.Snapshot
	saves int

	// FailSaves makes every Save return an error.
	FailSaves bool
}

var errSaveFailed = errors.New("memstore: save failed")

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return errSaveFailed
	}
	s.snap = copySnapshot(snap)
	s.saves++
	return nil
}

func (s *MemoryStore) Load() (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, nil
	}
	return copySnapshot(s.snap), nil
}

func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
	return nil
}

// Saves reports how many snapshots have been written.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func copySnapshot(in *domain.Snapshot) *domain.Snapshot {
	out := *in
	out.Documents = make([]domain.Document, len(in.Documents))
	for i, d := range in.Documents {
		d.Chunks = append([]string(nil), d.Chunks...)
		out.Documents[i] = d
	}
	out.ChunkToDoc = append([]string(nil), in.ChunkToDoc...)
	out.Vocabulary = append([]string(nil), in.Vocabulary...)
	out.IDF = append([]float64(nil), in.IDF...)
	out.Matrix = make([]domain.SparseVector, len(in.Matrix))
	for i, row := range in.Matrix {
		out.Matrix[i] = domain.SparseVector{
			Indices: append([]int(nil), row.Indices...),
			Values:  append([]float64(nil), row.Values...),
		}
	}
	return &out
}
