package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunk.MaxChars != 1000 {
		t.Errorf("expected MaxChars=1000, got %d", cfg.Chunk.MaxChars)
	}
	if cfg.Chunk.MinChars != 20 || cfg.Chunk.FallbackMinChars != 5 {
		t.Errorf("unexpected chunk minimums: %+v", cfg.Chunk)
	}
	if cfg.Vectorizer.MaxFeatures != 10000 {
		t.Errorf("expected MaxFeatures=10000, got %d", cfg.Vectorizer.MaxFeatures)
	}
	if cfg.Vectorizer.MaxDF != 0.95 {
		t.Errorf("expected MaxDF=0.95, got %f", cfg.Vectorizer.MaxDF)
	}
	if cfg.Retrieve.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.MinSimilarity != 0.1 {
		t.Errorf("expected MinSimilarity=0.1, got %f", cfg.Retrieve.MinSimilarity)
	}
	if cfg.Retrieve.FullContextMax != 20 {
		t.Errorf("expected FullContextMax=20, got %d", cfg.Retrieve.FullContextMax)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "rag.yaml")

	content := `
chunk:
  max_chars: 500
vectorizer:
  stop_words: none
  sublinear_tf: false
retrieve:
  top_k: 10
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunk.MaxChars != 500 {
		t.Errorf("expected MaxChars=500, got %d", cfg.Chunk.MaxChars)
	}
	if cfg.Chunk.MinChars != 20 {
		t.Errorf("expected unset MinChars to keep default, got %d", cfg.Chunk.MinChars)
	}
	if cfg.Vectorizer.StopWords != "none" || cfg.Vectorizer.SublinearTF {
		t.Errorf("unexpected vectorizer config: %+v", cfg.Vectorizer)
	}
	if cfg.Retrieve.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Retrieve.TopK)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "rag.yaml")
	if err := os.WriteFile(configPath, []byte("chunk: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".rag"), 0755); err != nil {
		t.Fatal(err)
	}

	content := `
cache:
  dir: snapshots
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".rag", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cfg.CacheDir(tmpDir); got != filepath.Join(tmpDir, "snapshots") {
		t.Errorf("unexpected cache dir %s", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag.yaml")

	cfg := DefaultConfig()
	cfg.Retrieve.TopK = 7
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Retrieve.TopK != 7 {
		t.Errorf("expected TopK=7, got %d", loaded.Retrieve.TopK)
	}
}

func TestSnapshotPath(t *testing.T) {
	path := SnapshotPath("/home/user/data")
	expected := filepath.Join("/home/user/data", "rag_index.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg := DefaultConfig()
	cfg.Cache.Dir = "/abs/cache"
	if got := cfg.CacheDir("/root"); got != "/abs/cache" {
		t.Errorf("absolute cache dir should be kept, got %s", got)
	}
}
