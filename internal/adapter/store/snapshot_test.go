package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/config"
	"studyrag/internal/domain"
)

func sampleSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		SchemaVersion: CurrentSchemaVersion,
		ConfigHash:    "abc123",
		Ready:         true,
		Documents: []domain.Document{
			{ID: "bio", Filename: "bio.txt", Chunks: []string{"cells divide", "mitochondria make energy"}, TextLength: 40, AddedAt: time.Unix(1700000000, 123456789)},
			{ID: "hist", Filename: "hist.txt", Chunks: []string{"rome fell"}, TextLength: 9, AddedAt: time.Unix(1700000100, 0)},
		},
		ChunkToDoc: []string{"bio", "bio", "hist"},
		Vocabulary: []string{"cells", "energy", "fell", "rome"},
		IDF:        []float64{1.5, 1.7, 1.2, 1.1},
		Matrix: []domain.SparseVector{
			{Indices: []int{0}, Values: []float64{1}},
			{Indices: []int{1}, Values: []float64{1}},
			{Indices: []int{2, 3}, Values: []float64{0.6, 0.8}},
		},
		SavedAt: time.Unix(1700000200, 0),
	}
}

func TestBoltSnapshotStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag_index.db")
	s := NewBoltSnapshotStore(path, nil)

	want := sampleSnapshot()
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, want.SchemaVersion, got.SchemaVersion)
	assert.Equal(t, want.ConfigHash, got.ConfigHash)
	assert.True(t, got.Ready)
	assert.Equal(t, want.ChunkToDoc, got.ChunkToDoc)
	assert.Equal(t, want.Vocabulary, got.Vocabulary)
	assert.Equal(t, want.IDF, got.IDF)
	assert.Equal(t, want.Matrix, got.Matrix)
	assert.True(t, want.SavedAt.Equal(got.SavedAt))

	require.Len(t, got.Documents, 2)
	assert.Equal(t, "bio", got.Documents[0].ID)
	assert.Equal(t, "bio.txt", got.Documents[0].Filename)
	assert.Equal(t, want.Documents[0].Chunks, got.Documents[0].Chunks)
	assert.Equal(t, 40, got.Documents[0].TextLength)
	assert.True(t, want.Documents[0].AddedAt.Equal(got.Documents[0].AddedAt), "added_at keeps nanoseconds")
	assert.Equal(t, "hist", got.Documents[1].ID)

	assert.NoError(t, got.Validate())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should not remain")
}

func TestBoltSnapshotStore_LoadMissing(t *testing.T) {
	s := NewBoltSnapshotStore(filepath.Join(t.TempDir(), "rag_index.db"), nil)

	snap, err := s.Load()
	assert.NoError(t, err)
	assert.Nil(t, snap)
}

func TestBoltSnapshotStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag_index.db")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a bolt file"), 0600))

	s := NewBoltSnapshotStore(path, nil)
	snap, err := s.Load()
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestBoltSnapshotStore_SaveReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag_index.db")
	s := NewBoltSnapshotStore(path, nil)

	require.NoError(t, s.Save(sampleSnapshot()))

	smaller := sampleSnapshot()
	smaller.Documents = smaller.Documents[1:]
	smaller.ChunkToDoc = []string{"hist"}
	smaller.Matrix = smaller.Matrix[2:]
	require.NoError(t, s.Save(smaller))

	got, err := s.Load()
	require.NoError(t, err)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "hist", got.Documents[0].ID)
	assert.Len(t, got.Matrix, 1)
}

func TestBoltSnapshotStore_Delete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag_index.db")
	s := NewBoltSnapshotStore(path, nil)

	require.NoError(t, s.Save(sampleSnapshot()))
	require.NoError(t, s.Delete())

	snap, err := s.Load()
	assert.NoError(t, err)
	assert.Nil(t, snap)

	// Deleting again is not an error.
	assert.NoError(t, s.Delete())
}

func TestCheckSnapshot(t *testing.T) {
	t.Run("current", func(t *testing.T) {
		res := CheckSnapshot(sampleSnapshot(), "abc123")
		assert.True(t, res.Usable)
		assert.False(t, res.NeedsRebuild)
	})

	t.Run("config changed", func(t *testing.T) {
		res := CheckSnapshot(sampleSnapshot(), "other")
		assert.True(t, res.Usable)
		assert.True(t, res.NeedsRebuild)
		assert.Equal(t, "index configuration changed", res.Reason)
	})

	t.Run("newer schema", func(t *testing.T) {
		snap := sampleSnapshot()
		snap.SchemaVersion = CurrentSchemaVersion + 1
		res := CheckSnapshot(snap, "abc123")
		assert.False(t, res.Usable)
	})

	t.Run("inconsistent", func(t *testing.T) {
		snap := sampleSnapshot()
		snap.ChunkToDoc = snap.ChunkToDoc[:2]
		res := CheckSnapshot(snap, "abc123")
		assert.False(t, res.Usable)
		assert.NotEmpty(t, res.Reason)
	})

	t.Run("not ready", func(t *testing.T) {
		snap := sampleSnapshot()
		snap.Ready = false
		assert.False(t, CheckSnapshot(snap, "abc123").Usable)
	})
}

func TestComputeConfigHash(t *testing.T) {
	a := config.DefaultConfig()
	b := config.DefaultConfig()
	assert.Equal(t, ComputeConfigHash(a), ComputeConfigHash(b))

	b.Retrieve.TopK = 9
	assert.Equal(t, ComputeConfigHash(a), ComputeConfigHash(b), "retrieval settings do not affect the index")

	b.Vectorizer.MaxFeatures = 50
	assert.NotEqual(t, ComputeConfigHash(a), ComputeConfigHash(b))
}

func TestCheckSnapshot_OlderSchema(t *testing.T) {
	snap := sampleSnapshot()
	snap.SchemaVersion = 0
	res := CheckSnapshot(snap, "abc123")
	assert.False(t, res.Usable)
	assert.Equal(t, 0, res.OldVersion)
}
