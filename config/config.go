package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the study RAG tool.
type Config struct {
	Chunk      ChunkConfig      `yaml:"chunk"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Cache      CacheConfig      `yaml:"cache"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ChunkConfig holds chunking limits, in characters.
type ChunkConfig struct {
	MaxChars         int `yaml:"max_chars"`
	MinChars         int `yaml:"min_chars"`
	FallbackMinChars int `yaml:"fallback_min_chars"`
}

// VectorizerConfig holds TF-IDF model parameters.
type VectorizerConfig struct {
	StopWords   string  `yaml:"stop_words"` // "english" or "none"
	MaxFeatures int     `yaml:"max_features"`
	NgramMin    int     `yaml:"ngram_min"`
	NgramMax    int     `yaml:"ngram_max"`
	MinDF       int     `yaml:"min_df"` // absolute chunk count
	MaxDF       float64 `yaml:"max_df"` // proportion of chunks
	SublinearTF bool    `yaml:"sublinear_tf"`
}

// RetrieveConfig holds query defaults.
type RetrieveConfig struct {
	TopK           int     `yaml:"top_k"`
	MinSimilarity  float64 `yaml:"min_similarity"`
	TopicTopK      int     `yaml:"topic_top_k"`
	FullContextMax int     `yaml:"full_context_max_chunks"`
}

// CacheConfig holds snapshot location and query cache settings.
type CacheConfig struct {
	Dir             string `yaml:"dir"`
	QueryCacheSize  int    `yaml:"query_cache_size"` // 0 disables the cache
	QueryCacheTTLMS int    `yaml:"query_cache_ttl_ms"`
}

// IngestConfig holds directory ingestion patterns.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunk: ChunkConfig{
			MaxChars:         1000,
			MinChars:         20,
			FallbackMinChars: 5,
		},
		Vectorizer: VectorizerConfig{
			StopWords:   "english",
			MaxFeatures: 10000,
			NgramMin:    1,
			NgramMax:    2,
			MinDF:       1,
			MaxDF:       0.95,
			SublinearTF: true,
		},
		Retrieve: RetrieveConfig{
			TopK:           3,
			MinSimilarity:  0.1,
			TopicTopK:      5,
			FullContextMax: 20,
		},
		Cache: CacheConfig{
			Dir:             "data",
			QueryCacheSize:  128,
			QueryCacheTTLMS: 5 * 60 * 1000,
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.txt", "**/*.md"},
			Excludes: []string{"**/.git/**", "**/node_modules/**", "**/.rag/**", "data/**"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for rag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	// Try rag.yaml in the directory
	path := filepath.Join(dir, "rag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Try .rag/config.yaml
	path = filepath.Join(dir, ".rag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CacheDir resolves the snapshot directory against root.
func (c *Config) CacheDir(root string) string {
	if filepath.IsAbs(c.Cache.Dir) {
		return c.Cache.Dir
	}
	return filepath.Join(root, c.Cache.Dir)
}

// SnapshotPath returns the path of the index snapshot inside cacheDir.
func SnapshotPath(cacheDir string) string {
	return filepath.Join(cacheDir, "rag_index.db")
}

// EnsureCacheDir ensures the snapshot directory exists.
func EnsureCacheDir(cacheDir string) error {
	return os.MkdirAll(cacheDir, 0755)
}
