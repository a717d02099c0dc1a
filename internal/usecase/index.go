package usecase

import (
	"context"

	"studyrag/internal/adapter/vectorizer"
	"studyrag/internal/domain"
	"studyrag/internal/port"
)

// BuildOptions selects the analyzer and model parameters for a build.
type BuildOptions struct {
	Analyzer port.Analyzer
	Params   vectorizer.Params
}

// Build fits a fresh vector space over docs. With no documents it returns an
// empty index that is not ready. Fit failures come back as *domain.BuildError.
func Build(ctx context.Context, docs []domain.Document, opts BuildOptions) (*CorpusIndex, error) {
	if len(docs) == 0 {
		return emptyIndex(0), nil
	}

	ix := flatten(docs)

	model, matrix, err := vectorizer.Fit(ctx, opts.Analyzer, opts.Params, ix.Chunks)
	if err != nil {
		return nil, &domain.BuildError{Op: "fit", Err: err}
	}

	ix.Model = model
	ix.Matrix = matrix
	ix.Ready = true
	return ix, nil
}
