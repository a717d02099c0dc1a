// Package vectorizer fits a TF-IDF vector space over a chunk corpus and maps
// text into it.
package vectorizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"studyrag/internal/domain"
	"studyrag/internal/port"
)

var (
	ErrEmptyCorpus     = errors.New("empty corpus")
	ErrEmptyVocabulary = errors.New("empty vocabulary; perhaps the documents only contain stop words")
	ErrPrunedAway      = errors.New("after pruning, no terms remain; try a lower min_df or a higher max_df")
	ErrDFBounds        = errors.New("max_df corresponds to fewer documents than min_df")
)

// Params controls vocabulary selection and weighting.
type Params struct {
	MaxFeatures int
	MinDF       int
	MaxDF       float64
	SublinearTF bool
}

// DefaultParams mirrors the retrieval defaults: 10000 features, min_df 1,
// max_df 95% of chunks, log-dampened term frequencies.
func DefaultParams() Params {
	return Params{
		MaxFeatures: 10000,
		MinDF:       1,
		MaxDF:       0.95,
		SublinearTF: true,
	}
}

// Model is a fitted vocabulary with per-term inverse document frequencies.
// A Model is immutable once fitted and safe for concurrent use.
type Model struct {
	analyzer   port.Analyzer
	params     Params
	vocabulary map[string]int
	terms      []string
	idf        []float64
}

// NewModel rebuilds a fitted model from its persisted vocabulary. terms must
// be sorted ascending and aligned with idf.
func NewModel(analyzer port.Analyzer, params Params, terms []string, idf []float64) (*Model, error) {
	if len(terms) == 0 || len(terms) != len(idf) {
		return nil, fmt.Errorf("vocabulary of %d terms with %d idf values", len(terms), len(idf))
	}
	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		if i > 0 && terms[i-1] >= t {
			return nil, fmt.Errorf("vocabulary not sorted at %q", t)
		}
		vocab[t] = i
	}
	return &Model{
		analyzer:   analyzer,
		params:     params,
		vocabulary: vocab,
		terms:      append([]string(nil), terms...),
		idf:        append([]float64(nil), idf...),
	}, nil
}

// Fit learns the vocabulary and idf weights from corpus and returns the
// model together with the weight vector of every corpus entry.
func Fit(ctx context.Context, analyzer port.Analyzer, params Params, corpus []string) (*Model, []domain.SparseVector, error) {
	if len(corpus) == 0 {
		return nil, nil, ErrEmptyCorpus
	}

	counts, err := countAll(ctx, analyzer, corpus)
	if err != nil {
		return nil, nil, err
	}

	df := make(map[string]int)
	tf := make(map[string]int)
	for _, c := range counts {
		for term, n := range c {
			df[term]++
			tf[term] += n
		}
	}
	if len(df) == 0 {
		return nil, nil, ErrEmptyVocabulary
	}

	n := len(corpus)
	maxDocCount := params.MaxDF * float64(n)
	if params.MaxDF <= 0 || params.MaxDF > 1 {
		maxDocCount = float64(n)
	}
	minDocCount := params.MinDF
	if minDocCount < 1 {
		minDocCount = 1
	}
	if maxDocCount < float64(minDocCount) {
		return nil, nil, ErrDFBounds
	}

	kept := make([]string, 0, len(df))
	for term, d := range df {
		if d >= minDocCount && float64(d) <= maxDocCount {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return nil, nil, ErrPrunedAway
	}

	if params.MaxFeatures > 0 && len(kept) > params.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if tf[kept[i]] != tf[kept[j]] {
				return tf[kept[i]] > tf[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:params.MaxFeatures]
	}
	sort.Strings(kept)

	idf := make([]float64, len(kept))
	for i, term := range kept {
		idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	m, err := NewModel(analyzer, params, kept, idf)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]domain.SparseVector, len(counts))
	for i, c := range counts {
		rows[i] = m.weigh(c)
	}
	return m, rows, nil
}

// countAll analyzes every entry of corpus on a bounded worker pool. Results
// are slotted by position so the output does not depend on scheduling.
func countAll(ctx context.Context, analyzer port.Analyzer, corpus []string) ([]map[string]int, error) {
	counts := make([]map[string]int, len(corpus))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range corpus {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			counts[i] = termCounts(analyzer.Analyze(corpus[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

func termCounts(terms []string) map[string]int {
	c := make(map[string]int, len(terms))
	for _, t := range terms {
		c[t]++
	}
	return c
}

// Transform maps text into the fitted space. Terms outside the vocabulary
// contribute nothing.
func (m *Model) Transform(text string) domain.SparseVector {
	return m.weigh(termCounts(m.analyzer.Analyze(text)))
}

// HasTerms reports whether text produces any terms at all, in or out of
// the vocabulary.
func (m *Model) HasTerms(text string) bool {
	return len(m.analyzer.Analyze(text)) > 0
}

func (m *Model) weigh(counts map[string]int) domain.SparseVector {
	var v domain.SparseVector
	for term, n := range counts {
		idx, ok := m.vocabulary[term]
		if !ok {
			continue
		}
		w := float64(n)
		if m.params.SublinearTF {
			w = 1 + math.Log(w)
		}
		v.Indices = append(v.Indices, idx)
		v.Values = append(v.Values, w*m.idf[idx])
	}
	sortSparse(&v)
	normalize(&v)
	return v
}

// Terms returns the vocabulary in column order.
func (m *Model) Terms() []string {
	return m.terms
}

// IDF returns the idf weight of every column.
func (m *Model) IDF() []float64 {
	return m.idf
}

// Size returns the number of columns.
func (m *Model) Size() int {
	return len(m.terms)
}

func sortSparse(v *domain.SparseVector) {
	sort.Sort(byIndex{v})
}

type byIndex struct{ v *domain.SparseVector }

func (b byIndex) Len() int           { return len(b.v.Indices) }
func (b byIndex) Less(i, j int) bool { return b.v.Indices[i] < b.v.Indices[j] }
func (b byIndex) Swap(i, j int) {
	b.v.Indices[i], b.v.Indices[j] = b.v.Indices[j], b.v.Indices[i]
	b.v.Values[i], b.v.Values[j] = b.v.Values[j], b.v.Values[i]
}

func normalize(v *domain.SparseVector) {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v.Values {
		v.Values[i] /= norm
	}
}

// Cosine returns the cosine similarity of two sparse vectors with ascending
// indices. Zero vectors score 0.
func Cosine(a, b domain.SparseVector) float64 {
	var dot, na, nb float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	if dot == 0 {
		return 0
	}
	for _, x := range a.Values {
		na += x * x
	}
	for _, x := range b.Values {
		nb += x * x
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
