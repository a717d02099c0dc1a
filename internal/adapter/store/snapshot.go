package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"studyrag/internal/domain"
)

var (
	bucketMeta    = []byte("meta")
	bucketDocs    = []byte("docs")
	bucketVocab   = []byte("vocab")
	bucketVectors = []byte("vectors")

	keySchemaVersion = []byte("schema_version")
	keyConfigHash    = []byte("config_hash")
	keyReady         = []byte("ready")
	keyChunkToDoc    = []byte("chunk_to_doc")
	keySavedAt       = []byte("saved_at")
)

// ErrCorruptSnapshot marks a snapshot that exists but cannot be trusted.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// BoltSnapshotStore keeps one index snapshot in a bbolt file. Every save
// writes a fresh file next to the old one and renames it into place, so
// another process opening the path sees either the old or the new snapshot.
type BoltSnapshotStore struct {
	path    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewBoltSnapshotStore creates a store for the snapshot file at path.
func NewBoltSnapshotStore(path string, logger *zap.Logger) *BoltSnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoltSnapshotStore{
		path:    path,
		timeout: time.Second,
		logger:  logger,
	}
}

// Path returns the snapshot file location.
func (s *BoltSnapshotStore) Path() string {
	return s.path
}

type docRecord struct {
	ID         string   `json:"doc_id"`
	Filename   string   `json:"filename"`
	Chunks     []string `json:"chunks"`
	ChunkCount int      `json:"chunk_count"`
	TextLength int      `json:"text_length"`
	AddedAt    int64    `json:"added_at_ns"`
}

// Save writes snap, replacing any existing snapshot.
func (s *BoltSnapshotStore) Save(snap *domain.Snapshot) error {
	tmp := s.path + ".tmp"
	_ = os.Remove(tmp)

	db, err := bbolt.Open(tmp, 0600, &bbolt.Options{Timeout: s.timeout})
	if err != nil {
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		return writeSnapshot(tx, snap)
	})
	if closeErr := db.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	s.logger.Debug("snapshot saved",
		zap.String("path", s.path),
		zap.Int("documents", len(snap.Documents)),
		zap.Int("chunks", len(snap.ChunkToDoc)),
		zap.Int("vocabulary", len(snap.Vocabulary)),
	)
	return nil
}

func writeSnapshot(tx *bbolt.Tx, snap *domain.Snapshot) error {
	buckets := make(map[string]*bbolt.Bucket, 4)
	for _, name := range [][]byte{bucketMeta, bucketDocs, bucketVocab, bucketVectors} {
		b, err := tx.CreateBucketIfNotExists(name)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", name, err)
		}
		buckets[string(name)] = b
	}

	meta := buckets[string(bucketMeta)]
	if err := meta.Put(keySchemaVersion, []byte(strconv.Itoa(snap.SchemaVersion))); err != nil {
		return err
	}
	if err := meta.Put(keyConfigHash, []byte(snap.ConfigHash)); err != nil {
		return err
	}
	if err := meta.Put(keyReady, []byte(strconv.FormatBool(snap.Ready))); err != nil {
		return err
	}
	if err := meta.Put(keySavedAt, []byte(strconv.FormatInt(snap.SavedAt.Unix(), 10))); err != nil {
		return err
	}
	reverse, err := json.Marshal(snap.ChunkToDoc)
	if err != nil {
		return err
	}
	if err := meta.Put(keyChunkToDoc, reverse); err != nil {
		return err
	}

	docs := buckets[string(bucketDocs)]
	for i, d := range snap.Documents {
		data, err := json.Marshal(docRecord{
			ID:         d.ID,
			Filename:   d.Filename,
			Chunks:     d.Chunks,
			ChunkCount: d.ChunkCount(),
			TextLength: d.TextLength,
			AddedAt:    d.AddedAt.UnixNano(),
		})
		if err != nil {
			return err
		}
		if err := docs.Put(itob(uint64(i)), data); err != nil {
			return err
		}
	}

	// bbolt iterates keys in byte order, which is the vocabulary's column order.
	vocab := buckets[string(bucketVocab)]
	for i, term := range snap.Vocabulary {
		data, err := json.Marshal(snap.IDF[i])
		if err != nil {
			return err
		}
		if err := vocab.Put([]byte(term), data); err != nil {
			return err
		}
	}

	vectors := buckets[string(bucketVectors)]
	for i, row := range snap.Matrix {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if err := vectors.Put(itob(uint64(i)), data); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the snapshot. A missing file yields (nil, nil); an unreadable
// or inconsistent one yields an error wrapping ErrCorruptSnapshot.
func (s *BoltSnapshotStore) Load() (*domain.Snapshot, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	db, err := bbolt.Open(s.path, 0600, &bbolt.Options{Timeout: s.timeout, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	defer db.Close()

	snap := &domain.Snapshot{}
	err = db.View(func(tx *bbolt.Tx) error {
		return readSnapshot(tx, snap)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return snap, nil
}

func readSnapshot(tx *bbolt.Tx, snap *domain.Snapshot) error {
	meta := tx.Bucket(bucketMeta)
	docs := tx.Bucket(bucketDocs)
	vocab := tx.Bucket(bucketVocab)
	vectors := tx.Bucket(bucketVectors)
	if meta == nil || docs == nil || vocab == nil || vectors == nil {
		return fmt.Errorf("missing bucket")
	}

	version, err := strconv.Atoi(string(meta.Get(keySchemaVersion)))
	if err != nil {
		return fmt.Errorf("bad schema version: %w", err)
	}
	snap.SchemaVersion = version
	snap.ConfigHash = string(meta.Get(keyConfigHash))
	snap.Ready, err = strconv.ParseBool(string(meta.Get(keyReady)))
	if err != nil {
		return fmt.Errorf("bad ready flag: %w", err)
	}
	if raw := meta.Get(keySavedAt); raw != nil {
		if ts, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			snap.SavedAt = time.Unix(ts, 0)
		}
	}
	reverse := meta.Get(keyChunkToDoc)
	if reverse == nil {
		return fmt.Errorf("missing reverse map")
	}
	if err := json.Unmarshal(reverse, &snap.ChunkToDoc); err != nil {
		return fmt.Errorf("bad reverse map: %w", err)
	}

	err = docs.ForEach(func(k, v []byte) error {
		var rec docRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("bad document record: %w", err)
		}
		if rec.ChunkCount != len(rec.Chunks) {
			return fmt.Errorf("document %q: chunk_count %d but %d chunks", rec.ID, rec.ChunkCount, len(rec.Chunks))
		}
		snap.Documents = append(snap.Documents, domain.Document{
			ID:         rec.ID,
			Filename:   rec.Filename,
			Chunks:     rec.Chunks,
			TextLength: rec.TextLength,
			AddedAt:    time.Unix(0, rec.AddedAt),
		})
		return nil
	})
	if err != nil {
		return err
	}

	err = vocab.ForEach(func(k, v []byte) error {
		var idf float64
		if err := json.Unmarshal(v, &idf); err != nil {
			return fmt.Errorf("bad idf for %q: %w", k, err)
		}
		snap.Vocabulary = append(snap.Vocabulary, string(k))
		snap.IDF = append(snap.IDF, idf)
		return nil
	})
	if err != nil {
		return err
	}

	return vectors.ForEach(func(k, v []byte) error {
		if len(k) != 8 || btoi(k) != uint64(len(snap.Matrix)) {
			return fmt.Errorf("unexpected vector key %x", k)
		}
		var row domain.SparseVector
		if err := json.Unmarshal(v, &row); err != nil {
			return fmt.Errorf("bad vector row: %w", err)
		}
		snap.Matrix = append(snap.Matrix, row)
		return nil
	})
}

// Delete removes the snapshot file.
func (s *BoltSnapshotStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	s.logger.Debug("snapshot deleted", zap.String("path", s.path))
	return nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
