package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/domain"
)

func TestRenderer_Answer(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Answer(context.Background(), "What do mitochondria do?", "Mitochondria produce ATP.")
	require.NoError(t, err)

	assert.Contains(t, out, "**CONTEXT:**\nMitochondria produce ATP.")
	assert.Contains(t, out, "**QUESTION:**\nWhat do mitochondria do?")
	assert.Contains(t, out, domain.NotFoundAnswer)
	assert.True(t, strings.HasSuffix(out, "**ANSWER:**"), "prompt should end at the answer marker")
}

func TestRenderer_Material(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	tests := []struct {
		kind   domain.MaterialType
		marker string
	}{
		{domain.MaterialSummary, "**SUMMARY:**"},
		{domain.MaterialFlashcards, "**FLASHCARDS:**"},
		{domain.MaterialQuiz, "**QUIZ:**"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			out, err := r.Material(context.Background(), tt.kind, "Cells divide by mitosis.", "")
			require.NoError(t, err)
			assert.Contains(t, out, tt.marker)
			assert.Contains(t, out, "Cells divide by mitosis.")
			assert.NotContains(t, out, "focusing on")
		})
	}
}

func TestRenderer_MaterialTopic(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Material(context.Background(), domain.MaterialQuiz, "ctx", "  cell biology ")
	require.NoError(t, err)
	assert.Contains(t, out, "study material focusing on cell biology.")
}

func TestRenderer_MaterialUnsupported(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Material(context.Background(), domain.MaterialType("essay"), "ctx", "")
	assert.ErrorIs(t, err, domain.ErrUnsupportedMaterial)
}
