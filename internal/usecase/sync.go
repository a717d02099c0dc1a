package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"studyrag/internal/domain"
	"studyrag/internal/port"
)

// FileIDPrefix marks documents that were ingested from a directory, so a
// sync can tell them apart from documents added by hand.
const FileIDPrefix = "file:"

// FileDocID returns the document id used for a file at relPath.
func FileDocID(relPath string) string {
	return FileIDPrefix + relPath
}

// SyncUseCase mirrors a directory of study files into the engine.
type SyncUseCase struct {
	engine *Engine
	walker port.FileWalker
	reader port.FileReader
	logger *zap.Logger
}

func NewSyncUseCase(engine *Engine, walker port.FileWalker, reader port.FileReader, logger *zap.Logger) *SyncUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncUseCase{
		engine: engine,
		walker: walker,
		reader: reader,
		logger: logger,
	}
}

// SyncResult contains the results of a sync.
type SyncResult struct {
	FilesIndexed int
	FilesSkipped int
	FilesDeleted int
	Chunks       int
	Errors       []string
}

// SyncProgress is told about each file as it is read, then about chunking.
type SyncProgress func(stage string, done, total int)

// Sync adds new and modified files under root, removes documents whose files
// are gone, and leaves unchanged files alone. All changes land in a single
// rebuild.
func (u *SyncUseCase) Sync(ctx context.Context, root string, progress SyncProgress) (*SyncResult, error) {
	result := &SyncResult{}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	existing := make(map[string]domain.Document)
	for _, doc := range u.engine.Documents() {
		if strings.HasPrefix(doc.ID, FileIDPrefix) {
			existing[doc.ID] = doc
		}
	}

	var batch Batch
	seen := make(map[string]bool, len(files))
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := FileDocID(file.RelPath)
		seen[id] = true

		// Skip only files last written strictly before they were ingested.
		if doc, ok := existing[id]; ok && doc.AddedAt.UnixNano() > file.ModTime {
			result.FilesSkipped++
			if progress != nil {
				progress("reading", i+1, len(files))
			}
			continue
		}

		text, err := u.reader.ReadFile(file.Path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to read %s: %v", file.RelPath, err))
		} else {
			batch.Add = append(batch.Add, domain.DocumentInput{ID: id, Filename: file.RelPath, Text: text})
		}
		if progress != nil {
			progress("reading", i+1, len(files))
		}
	}

	for id := range existing {
		if !seen[id] {
			batch.Remove = append(batch.Remove, id)
		}
	}

	var chunkProgress ProgressFunc
	if progress != nil {
		chunkProgress = func(done, total int) { progress("chunking", done, total) }
	}

	report, err := u.engine.Apply(ctx, batch, chunkProgress)
	for _, f := range report.Failed {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to index %s", f))
	}
	if err != nil {
		return result, fmt.Errorf("indexing failed: %w", err)
	}

	result.FilesIndexed = len(report.Added)
	result.FilesDeleted = len(report.Removed)
	result.Chunks = u.engine.ChunkCount()

	u.logger.Info("directory synced",
		zap.String("root", root),
		zap.Int("indexed", result.FilesIndexed),
		zap.Int("skipped", result.FilesSkipped),
		zap.Int("deleted", result.FilesDeleted),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}
