package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"studyrag/config"
	"studyrag/internal/domain"
)

// CurrentSchemaVersion is the snapshot layout version.
// Increment this when making breaking changes to the bucket layout.
const CurrentSchemaVersion = 2

// ComputeConfigHash computes a hash of index-relevant configuration.
// A different hash means stored vectors no longer match what a fresh build
// would produce.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		MaxChars         int     `json:"max_chars"`
		MinChars         int     `json:"min_chars"`
		FallbackMinChars int     `json:"fallback_min_chars"`
		StopWords        string  `json:"stop_words"`
		MaxFeatures      int     `json:"max_features"`
		NgramMin         int     `json:"ngram_min"`
		NgramMax         int     `json:"ngram_max"`
		MinDF            int     `json:"min_df"`
		MaxDF            float64 `json:"max_df"`
		SublinearTF      bool    `json:"sublinear_tf"`
	}{
		MaxChars:         cfg.Chunk.MaxChars,
		MinChars:         cfg.Chunk.MinChars,
		FallbackMinChars: cfg.Chunk.FallbackMinChars,
		StopWords:        cfg.Vectorizer.StopWords,
		MaxFeatures:      cfg.Vectorizer.MaxFeatures,
		NgramMin:         cfg.Vectorizer.NgramMin,
		NgramMax:         cfg.Vectorizer.NgramMax,
		MinDF:            cfg.Vectorizer.MinDF,
		MaxDF:            cfg.Vectorizer.MaxDF,
		SublinearTF:      cfg.Vectorizer.SublinearTF,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// CheckResult describes whether a loaded snapshot can be used as is.
type CheckResult struct {
	// Usable is false when nothing in the snapshot can be trusted.
	Usable bool
	// NeedsRebuild means the documents are good but the model must be refit.
	NeedsRebuild bool
	OldVersion   int
	NewVersion   int
	Reason       string
}

// CheckSnapshot validates snap against the running schema and configuration.
func CheckSnapshot(snap *domain.Snapshot, configHash string) CheckResult {
	result := CheckResult{
		OldVersion: snap.SchemaVersion,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case snap.SchemaVersion > CurrentSchemaVersion:
		result.Reason = fmt.Sprintf("snapshot created by newer version (v%d > v%d)", snap.SchemaVersion, CurrentSchemaVersion)
		return result
	case snap.SchemaVersion < CurrentSchemaVersion:
		result.Reason = fmt.Sprintf("snapshot schema v%d is no longer supported (want v%d)", snap.SchemaVersion, CurrentSchemaVersion)
		return result
	}

	if err := snap.Validate(); err != nil {
		result.Reason = err.Error()
		return result
	}
	result.Usable = true

	if configHash != "" && snap.ConfigHash != configHash {
		result.NeedsRebuild = true
		result.Reason = "index configuration changed"
	}
	return result
}
