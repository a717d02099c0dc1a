package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"studyrag/internal/adapter/analyzer"
	"studyrag/internal/adapter/cache"
	"studyrag/internal/adapter/chunker"
	"studyrag/internal/adapter/store"
	"studyrag/internal/adapter/vectorizer"
	"studyrag/internal/domain"
	"studyrag/internal/port"
)

// Engine owns the corpus index. Mutations are serialised and each one runs
// a full rebuild; readers use whichever index was last published and never
// block on a rebuild in progress.
type Engine struct {
	mu    sync.Mutex
	state atomic.Pointer[CorpusIndex]

	store      port.SnapshotStore
	chunker    port.Chunker
	analyzer   port.Analyzer
	params     vectorizer.Params
	configHash string
	cache      port.QueryCache
	logger     *zap.Logger
	workers    int
	now        func() time.Time
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithChunker(c port.Chunker) Option {
	return func(e *Engine) { e.chunker = c }
}

func WithAnalyzer(a port.Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

func WithParams(p vectorizer.Params) Option {
	return func(e *Engine) { e.params = p }
}

// WithConfigHash tags snapshots with the hash of the settings that shaped
// them. A stored snapshot with a different hash is rebuilt on open.
func WithConfigHash(hash string) Option {
	return func(e *Engine) { e.configHash = hash }
}

// WithQueryCache memoises retrieval results per index generation.
func WithQueryCache(c port.QueryCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithWorkers bounds how many documents are chunked in parallel during bulk ingest.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// Open creates an engine and restores the last snapshot from st, if any.
// A missing, unreadable or inconsistent snapshot leaves the engine empty.
// st may be nil for a purely in-memory engine.
func Open(ctx context.Context, st port.SnapshotStore, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:    st,
		chunker:  chunker.NewParagraphChunker(),
		analyzer: analyzer.NewTokenizer(),
		params:   vectorizer.DefaultParams(),
		logger:   zap.NewNop(),
		workers:  4,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state.Store(emptyIndex(0))

	if err := e.restore(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) restore(ctx context.Context) error {
	if e.store == nil {
		return nil
	}

	snap, err := e.store.Load()
	if err != nil {
		e.logger.Warn("discarding unreadable snapshot", zap.Error(err))
		return nil
	}
	if snap == nil {
		e.logger.Debug("no snapshot found, starting empty")
		return nil
	}

	check := store.CheckSnapshot(snap, e.configHash)
	if !check.Usable {
		e.logger.Warn("discarding snapshot", zap.String("reason", check.Reason))
		return nil
	}

	if check.NeedsRebuild {
		e.logger.Info("rebuilding index from stored documents",
			zap.String("reason", check.Reason),
			zap.Int("documents", len(snap.Documents)),
		)
		e.mu.Lock()
		defer e.mu.Unlock()
		if err := e.rebuild(ctx, snap.Documents); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Warn("rebuild from snapshot failed, starting empty", zap.Error(err))
		}
		return nil
	}

	ix, err := FromSnapshot(snap, e.analyzer, e.params)
	if err != nil {
		e.logger.Warn("discarding snapshot", zap.Error(err))
		return nil
	}
	ix.Generation = 1
	e.state.Store(ix)

	e.logger.Info("index restored",
		zap.Int("documents", ix.DocumentCount()),
		zap.Int("chunks", ix.ChunkCount()),
		zap.Int("vocabulary", ix.VocabularySize()),
	)
	return nil
}

// AddDocument chunks text and adds it to the corpus under docID, then
// rebuilds. An existing document with the same id is replaced in place.
func (e *Engine) AddDocument(ctx context.Context, docID, text, filename string) error {
	doc, err := e.prepare(domain.DocumentInput{ID: docID, Filename: filename, Text: text})
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	docs := upsert(e.state.Load().Documents, doc)
	if err := e.rebuild(ctx, docs); err != nil {
		return err
	}

	e.logger.Info("document added",
		zap.String("doc_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Int("chunks", doc.ChunkCount()),
	)
	return nil
}

// RemoveDocument drops docID from the corpus and rebuilds. Unknown ids are
// ignored.
func (e *Engine) RemoveDocument(ctx context.Context, docID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.state.Load()
	if _, ok := cur.Lookup(docID); !ok {
		return nil
	}

	if err := e.rebuild(ctx, without(cur.Documents, map[string]bool{docID: true})); err != nil {
		return err
	}

	e.logger.Info("document removed", zap.String("doc_id", docID))
	return nil
}

// Batch is a set of changes applied with a single rebuild.
type Batch struct {
	Add    []domain.DocumentInput
	Remove []string
}

// IngestFailure records an input that was rejected before the rebuild.
type IngestFailure struct {
	ID       string
	Filename string
	Err      error
}

func (f IngestFailure) String() string {
	name := f.Filename
	if name == "" {
		name = f.ID
	}
	return fmt.Sprintf("%s: %v", name, f.Err)
}

// IngestReport summarises a batch.
type IngestReport struct {
	Added   []string
	Removed []string
	Failed  []IngestFailure
}

// ProgressFunc is called as each input of a batch has been chunked.
type ProgressFunc func(done, total int)

// AddDocuments ingests many documents with one rebuild.
func (e *Engine) AddDocuments(ctx context.Context, inputs []domain.DocumentInput, progress ProgressFunc) (IngestReport, error) {
	return e.Apply(ctx, Batch{Add: inputs}, progress)
}

// Apply removes and adds documents, then rebuilds once. Inputs that cannot
// be chunked are reported in the result and skipped; only a failed rebuild
// is returned as an error, in which case nothing in the batch takes effect.
func (e *Engine) Apply(ctx context.Context, batch Batch, progress ProgressFunc) (IngestReport, error) {
	var report IngestReport

	prepared, failed, err := e.prepareAll(ctx, batch.Add, progress)
	if err != nil {
		return report, err
	}
	report.Failed = failed

	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.state.Load()
	drop := make(map[string]bool, len(batch.Remove))
	for _, id := range batch.Remove {
		if _, ok := cur.Lookup(id); ok {
			drop[id] = true
			report.Removed = append(report.Removed, id)
		}
	}

	docs := without(cur.Documents, drop)
	for _, doc := range prepared {
		docs = upsert(docs, doc)
		report.Added = append(report.Added, doc.ID)
	}

	if len(report.Added) == 0 && len(report.Removed) == 0 {
		return report, nil
	}

	if err := e.rebuild(ctx, docs); err != nil {
		return IngestReport{Failed: report.Failed}, err
	}

	e.logger.Info("batch applied",
		zap.Int("added", len(report.Added)),
		zap.Int("removed", len(report.Removed)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func (e *Engine) prepareAll(ctx context.Context, inputs []domain.DocumentInput, progress ProgressFunc) ([]domain.Document, []IngestFailure, error) {
	docs := make([]domain.Document, len(inputs))
	errs := make([]error, len(inputs))

	var done atomic.Int64
	var progressMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs[i], errs[i] = e.prepare(inputs[i])
			if progress != nil {
				n := done.Add(1)
				progressMu.Lock()
				progress(int(n), len(inputs))
				progressMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var ok []domain.Document
	var failed []IngestFailure
	for i, in := range inputs {
		if errs[i] != nil {
			failed = append(failed, IngestFailure{ID: in.ID, Filename: in.Filename, Err: errs[i]})
			continue
		}
		ok = append(ok, docs[i])
	}
	return ok, failed, nil
}

// prepare validates and chunks one input. It touches no shared state.
func (e *Engine) prepare(in domain.DocumentInput) (domain.Document, error) {
	if strings.TrimSpace(in.ID) == "" {
		return domain.Document{}, domain.ErrMissingDocumentID
	}
	if strings.TrimSpace(in.Text) == "" {
		return domain.Document{}, domain.ErrEmptyDocument
	}

	chunks, err := e.chunker.Chunk(in.Text)
	if err != nil {
		return domain.Document{}, err
	}

	return domain.Document{
		ID:         in.ID,
		Filename:   in.Filename,
		Chunks:     chunks,
		TextLength: utf8.RuneCountInString(in.Text),
		AddedAt:    e.now(),
	}, nil
}

// rebuild fits a new index over docs and publishes it. The caller must hold
// e.mu. On failure the published index is left untouched.
func (e *Engine) rebuild(ctx context.Context, docs []domain.Document) error {
	start := e.now()
	cur := e.state.Load()

	next, err := Build(ctx, docs, BuildOptions{Analyzer: e.analyzer, Params: e.params})
	if err != nil {
		e.logger.Error("index build failed",
			zap.Int("documents", len(docs)),
			zap.Error(err),
		)
		return err
	}
	next.Generation = cur.Generation + 1
	next.ConfigHash = e.configHash

	e.state.Store(next)
	if e.cache != nil {
		e.cache.Purge()
	}

	e.logger.Debug("index rebuilt",
		zap.Uint64("generation", next.Generation),
		zap.Int("documents", next.DocumentCount()),
		zap.Int("chunks", next.ChunkCount()),
		zap.Int("vocabulary", next.VocabularySize()),
		zap.Duration("took", e.now().Sub(start)),
	)

	e.persist(next)
	return nil
}

// persist writes ix to the store. Failures are logged; the in-memory index
// stays authoritative.
func (e *Engine) persist(ix *CorpusIndex) {
	if e.store == nil {
		return
	}

	if !ix.Ready {
		if err := e.store.Delete(); err != nil {
			e.logger.Warn("failed to delete snapshot", zap.Error(err))
		}
		return
	}

	if err := e.store.Save(ix.Snapshot(e.now())); err != nil {
		e.logger.Warn("failed to save snapshot", zap.Error(err))
	}
}

// RetrieveContext returns the chunks most similar to query. topK <= 0 uses
// DefaultTopK.
func (e *Engine) RetrieveContext(ctx context.Context, query string, topK int, minSimilarity float64) (domain.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.RetrievalResult{}, err
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	ix := e.state.Load()
	if e.cache == nil || !ix.Ready {
		return ix.Retrieve(query, topK, minSimilarity)
	}

	key := cache.Key(ix.Generation, query, topK, minSimilarity)
	if res, ok := e.cache.Get(key); ok {
		return res, nil
	}

	res, err := ix.Retrieve(query, topK, minSimilarity)
	if err != nil {
		return res, err
	}
	e.cache.Add(key, res)
	return res, nil
}

// FullContext returns a sample of every document's leading chunks.
func (e *Engine) FullContext(maxChunks int) string {
	return e.state.Load().FullContext(maxChunks)
}

// HasDocuments reports whether there is an indexed corpus to query.
func (e *Engine) HasDocuments() bool {
	ix := e.state.Load()
	return ix.Ready && ix.DocumentCount() > 0
}

func (e *Engine) DocumentCount() int {
	return e.state.Load().DocumentCount()
}

func (e *Engine) ChunkCount() int {
	return e.state.Load().ChunkCount()
}

// Documents lists the indexed documents in insertion order.
func (e *Engine) Documents() []domain.Document {
	docs := e.state.Load().Documents
	return append([]domain.Document(nil), docs...)
}

// Document returns the document stored under docID.
func (e *Engine) Document(docID string) (domain.Document, bool) {
	return e.state.Load().Lookup(docID)
}

func (e *Engine) Stats() domain.Stats {
	return e.state.Load().Stats()
}

// upsert returns a new slice with doc replacing the document of the same id,
// or appended if there is none.
func upsert(docs []domain.Document, doc domain.Document) []domain.Document {
	out := make([]domain.Document, len(docs), len(docs)+1)
	copy(out, docs)
	for i := range out {
		if out[i].ID == doc.ID {
			out[i] = doc
			return out
		}
	}
	return append(out, doc)
}

func without(docs []domain.Document, drop map[string]bool) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		if !drop[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// IsInputError reports whether err was caused by the caller's input rather
// than by the index.
func IsInputError(err error) bool {
	var unsupported *domain.UnsupportedMaterialError
	return errors.Is(err, domain.ErrEmptyDocument) ||
		errors.Is(err, domain.ErrMissingDocumentID) ||
		errors.Is(err, domain.ErrNoUsableChunks) ||
		errors.Is(err, domain.ErrEmptyQuery) ||
		errors.As(err, &unsupported)
}

var _ port.ContextRetriever = (*Engine)(nil)
