package cli

import (
	"context"
	"fmt"
	"time"

	"studyrag/config"
	"studyrag/internal/adapter/analyzer"
	"studyrag/internal/adapter/cache"
	"studyrag/internal/adapter/chunker"
	"studyrag/internal/adapter/memstore"
	"studyrag/internal/adapter/store"
	"studyrag/internal/adapter/vectorizer"
	"studyrag/internal/port"
	"studyrag/internal/usecase"
)

// engineOptions translates the loaded configuration into engine options.
func engineOptions(cfg *config.Config) []usecase.Option {
	opts := []usecase.Option{
		usecase.WithLogger(GetLogger()),
		usecase.WithChunker(chunker.NewParagraphChunker(
			chunker.WithMaxChars(cfg.Chunk.MaxChars),
			chunker.WithMinChars(cfg.Chunk.MinChars),
			chunker.WithFallbackMinChars(cfg.Chunk.FallbackMinChars),
		)),
		usecase.WithAnalyzer(analyzer.NewTokenizer(
			analyzer.WithNgramRange(cfg.Vectorizer.NgramMin, cfg.Vectorizer.NgramMax),
			analyzer.WithStopwords(cfg.Vectorizer.StopWords),
		)),
		usecase.WithParams(vectorizer.Params{
			MaxFeatures: cfg.Vectorizer.MaxFeatures,
			MinDF:       cfg.Vectorizer.MinDF,
			MaxDF:       cfg.Vectorizer.MaxDF,
			SublinearTF: cfg.Vectorizer.SublinearTF,
		}),
		usecase.WithConfigHash(store.ComputeConfigHash(cfg)),
	}
	if cfg.Cache.QueryCacheSize > 0 {
		ttl := time.Duration(cfg.Cache.QueryCacheTTLMS) * time.Millisecond
		opts = append(opts, usecase.WithQueryCache(cache.NewQueryCache(cfg.Cache.QueryCacheSize, ttl)))
	}
	return opts
}

// openEngine opens the engine backed by the snapshot in the configured
// cache directory, creating the directory if needed. With --ephemeral the
// engine starts empty and nothing is written.
func openEngine(ctx context.Context) (*usecase.Engine, string, error) {
	cfg := GetConfig()

	var (
		st   port.SnapshotStore
		path string
	)
	if ephemeral {
		st, path = memstore.NewMemoryStore(), "(memory)"
	} else {
		cacheDir := cfg.CacheDir(GetRootDir())
		if err := config.EnsureCacheDir(cacheDir); err != nil {
			return nil, "", fmt.Errorf("failed to create cache directory: %w", err)
		}
		path = config.SnapshotPath(cacheDir)
		st = store.NewBoltSnapshotStore(path, GetLogger())
	}

	engine, err := usecase.Open(ctx, st, engineOptions(cfg)...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open index: %w", err)
	}
	return engine, path, nil
}
