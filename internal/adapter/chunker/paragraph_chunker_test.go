package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/domain"
)

func TestParagraphChunkerBasic(t *testing.T) {
	c := NewParagraphChunker()

	text := "Mitochondria are the powerhouse of the cell.\n\nPhotosynthesis occurs in chloroplasts."
	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Mitochondria are the powerhouse of the cell.",
		"Photosynthesis occurs in chloroplasts.",
	}, chunks)
}

func TestParagraphChunkerBlankLineRuns(t *testing.T) {
	c := NewParagraphChunker()

	text := "  First paragraph has enough text.  \n\n\n\n" +
		"Second paragraph has enough text.\r\n   \r\n" +
		"Third paragraph has enough text."
	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"First paragraph has enough text.",
		"Second paragraph has enough text.",
		"Third paragraph has enough text.",
	}, chunks)
}

func TestParagraphChunkerDropsShortFragments(t *testing.T) {
	c := NewParagraphChunker()

	chunks, err := c.Chunk("Page 3\n\nThis paragraph is long enough to keep.")
	require.NoError(t, err)
	assert.Equal(t, []string{"This paragraph is long enough to keep."}, chunks)
}

func TestParagraphChunkerFallbackMinimum(t *testing.T) {
	c := NewParagraphChunker()

	chunks, err := c.Chunk("Short note\n\nabc\n\nTiny bit")
	require.NoError(t, err)
	assert.Equal(t, []string{"Short note", "Tiny bit"}, chunks)
}

func TestParagraphChunkerNoUsableContent(t *testing.T) {
	c := NewParagraphChunker()

	for _, text := range []string{"", "   \n\n  ", "abc\n\nde"} {
		_, err := c.Chunk(text)
		assert.True(t, errors.Is(err, domain.ErrNoUsableChunks), "text %q: got %v", text, err)
	}
}

func TestParagraphChunkerSplitsLongParagraph(t *testing.T) {
	c := NewParagraphChunker(WithMaxChars(60))

	sentences := []string{
		"Cells are the basic unit of life",
		"They contain organelles with specific jobs",
		"The nucleus stores genetic information",
		"Ribosomes build proteins.",
	}
	paragraph := strings.Join(sentences, ". ")
	chunks, err := c.Chunk(paragraph)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch), 60)
		assert.Contains(t, paragraph, ch, "chunk must be a substring of the source")
	}
	assert.Equal(t, "Cells are the basic unit of life.", chunks[0])
	assert.Equal(t, "Ribosomes build proteins.", chunks[3])
}

func TestParagraphChunkerPacksSentences(t *testing.T) {
	c := NewParagraphChunker(WithMaxChars(50))

	paragraph := "One short line here. Two short line here. Three short line here. Four."
	chunks, err := c.Chunk(paragraph)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"One short line here. Two short line here.",
		"Three short line here. Four.",
	}, chunks)
}

func TestParagraphChunkerCountsSeparatorAgainstLimit(t *testing.T) {
	c := NewParagraphChunker()

	a, b, d := strings.Repeat("a", 499), strings.Repeat("b", 499), strings.Repeat("d", 499)
	chunks, err := c.Chunk(a + ". " + b + ". " + d)
	require.NoError(t, err)
	assert.Equal(t, []string{a + ".", b + ". " + d}, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, charLen(chunk), DefaultMaxChars)
	}
}

func TestParagraphChunkerOversizedSentence(t *testing.T) {
	c := NewParagraphChunker(WithMaxChars(30))

	runOn := strings.Repeat("word ", 20)
	chunks, err := c.Chunk(runOn)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, strings.TrimSpace(runOn), chunks[0])
}

func TestParagraphChunkerCoverage(t *testing.T) {
	c := NewParagraphChunker(WithMaxChars(80))

	text := "Enzymes speed up reactions. They lower activation energy. Temperature matters. pH matters too.\n\n" +
		"DNA replication is semi-conservative.\n\n" +
		"x\n\n" +
		"Transcription makes RNA from DNA. Translation makes protein from RNA. Both are regulated."
	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, ch := range chunks {
		assert.NotEmpty(t, ch)
		assert.Contains(t, text, ch)
	}
}

func TestParagraphChunkerDeterministic(t *testing.T) {
	c := NewParagraphChunker(WithMaxChars(40))
	text := "Alpha beta gamma delta. Epsilon zeta eta theta. Iota kappa lambda mu.\n\nNu xi omicron pi rho sigma."

	first, err := c.Chunk(text)
	require.NoError(t, err)
	second, err := c.Chunk(text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParagraphChunkerCountsRunes(t *testing.T) {
	c := NewParagraphChunker(WithMaxChars(10), WithMinChars(1))

	chunks, err := c.Chunk("ééééééééé")
	require.NoError(t, err)
	assert.Equal(t, []string{"ééééééééé"}, chunks)
}
