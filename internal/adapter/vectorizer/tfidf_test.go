package vectorizer

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/adapter/analyzer"
	"studyrag/internal/domain"
)

func fit(t *testing.T, params Params, corpus ...string) (*Model, []domain.SparseVector) {
	t.Helper()
	m, rows, err := Fit(context.Background(), analyzer.NewTokenizer(), params, corpus)
	require.NoError(t, err)
	return m, rows
}

func TestFitVocabularySortedWithBigrams(t *testing.T) {
	m, rows := fit(t, DefaultParams(),
		"Mitochondria are the powerhouse of the cell.",
		"Photosynthesis occurs in chloroplasts.",
	)

	assert.Equal(t, []string{
		"cell",
		"chloroplasts",
		"mitochondria",
		"mitochondria powerhouse",
		"occurs",
		"occurs chloroplasts",
		"photosynthesis",
		"photosynthesis occurs",
		"powerhouse",
		"powerhouse cell",
	}, m.Terms())
	require.Len(t, rows, 2)

	// every term appears in exactly one of two chunks
	want := math.Log(3.0/2.0) + 1
	for _, v := range m.IDF() {
		assert.InDelta(t, want, v, 1e-12)
	}
}

func TestFitRowsAreUnitLength(t *testing.T) {
	_, rows := fit(t, DefaultParams(),
		"enzymes enzymes enzymes catalyse reactions",
		"proteins fold into shapes",
		"enzymes are proteins",
	)
	for i, r := range rows {
		var sum float64
		for _, v := range r.Values {
			sum += v * v
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "row %d", i)
		for k := 1; k < len(r.Indices); k++ {
			assert.Less(t, r.Indices[k-1], r.Indices[k])
		}
	}
}

func TestFitSublinearTF(t *testing.T) {
	params := DefaultParams()
	m, _ := fit(t, params, "alpha alpha alpha alpha beta", "gamma delta")

	v := m.Transform("alpha alpha alpha alpha beta")
	var alpha, beta float64
	for i, idx := range v.Indices {
		switch m.Terms()[idx] {
		case "alpha":
			alpha = v.Values[i]
		case "beta":
			beta = v.Values[i]
		}
	}
	require.NotZero(t, beta)
	assert.InDelta(t, 1+math.Log(4), alpha/beta, 1e-9)
}

func TestFitMaxDFPrunesCommonTerms(t *testing.T) {
	m, _ := fit(t, DefaultParams(),
		"cell membrane structure",
		"cell nucleus function",
		"cell wall plants",
	)
	for _, term := range m.Terms() {
		assert.NotEqual(t, "cell", term, "term in every chunk must be pruned")
	}
}

func TestFitMaxFeatures(t *testing.T) {
	params := DefaultParams()
	params.MaxFeatures = 2
	m, _ := fit(t, params,
		"zebra zebra zebra apple",
		"mango mango kiwi",
	)
	assert.Equal(t, []string{"mango", "zebra"}, m.Terms())
}

func TestFitErrors(t *testing.T) {
	tok := analyzer.NewTokenizer()
	ctx := context.Background()

	_, _, err := Fit(ctx, tok, DefaultParams(), nil)
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	_, _, err = Fit(ctx, tok, DefaultParams(), []string{"the and of", "it is what it is"})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)

	_, _, err = Fit(ctx, tok, DefaultParams(), []string{"a single chunk of biology text"})
	assert.ErrorIs(t, err, ErrDFBounds)

	_, _, err = Fit(ctx, tok, DefaultParams(), []string{"osmosis water", "osmosis water"})
	assert.ErrorIs(t, err, ErrPrunedAway)
}

func TestTransformIgnoresUnknownTerms(t *testing.T) {
	m, _ := fit(t, DefaultParams(), "glucose energy", "protein synthesis")

	v := m.Transform("quantum entanglement")
	assert.Empty(t, v.Indices)
	assert.True(t, m.HasTerms("quantum entanglement"))
	assert.False(t, m.HasTerms("what is it"))
}

func TestCosine(t *testing.T) {
	a := domain.SparseVector{Indices: []int{0, 2}, Values: []float64{1, 1}}
	b := domain.SparseVector{Indices: []int{2, 5}, Values: []float64{1, 1}}

	assert.InDelta(t, 0.5, Cosine(a, b), 1e-12)
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-12)
	assert.Zero(t, Cosine(a, domain.SparseVector{}))
}

func TestNewModelRejectsBadVocabulary(t *testing.T) {
	tok := analyzer.NewTokenizer()

	_, err := NewModel(tok, DefaultParams(), []string{"b", "a"}, []float64{1, 1})
	assert.Error(t, err)

	_, err = NewModel(tok, DefaultParams(), []string{"a"}, nil)
	assert.Error(t, err)
}
