package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"studyrag/internal/domain"
)

const (
	DefaultMaxChars         = 1000
	DefaultMinChars         = 20
	DefaultFallbackMinChars = 5

	sentenceSep = ". "
)

var blankLines = regexp.MustCompile(`\r?\n(?:[ \t]*\r?\n)+`)

// ParagraphChunker splits text on blank lines and packs oversized
// paragraphs sentence by sentence.
type ParagraphChunker struct {
	maxChars         int
	minChars         int
	fallbackMinChars int
}

// Option configures the chunker.
type Option func(*ParagraphChunker)

// WithMaxChars sets the paragraph/chunk size bound in characters.
func WithMaxChars(n int) Option {
	return func(c *ParagraphChunker) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// WithMinChars sets the minimum length of a kept chunk.
func WithMinChars(n int) Option {
	return func(c *ParagraphChunker) {
		if n >= 0 {
			c.minChars = n
		}
	}
}

// WithFallbackMinChars sets the lenient length filter used when the
// regular filter would drop every chunk.
func WithFallbackMinChars(n int) Option {
	return func(c *ParagraphChunker) {
		if n >= 0 {
			c.fallbackMinChars = n
		}
	}
}

func NewParagraphChunker(opts ...Option) *ParagraphChunker {
	c := &ParagraphChunker{
		maxChars:         DefaultMaxChars,
		minChars:         DefaultMinChars,
		fallbackMinChars: DefaultFallbackMinChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk returns the chunks of text in source order.
func (c *ParagraphChunker) Chunk(text string) ([]string, error) {
	var chunks []string
	for _, p := range blankLines.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if charLen(p) <= c.maxChars {
			chunks = append(chunks, p)
			continue
		}
		chunks = append(chunks, c.packSentences(p)...)
	}

	filtered := filterChunks(chunks, func(n int) bool { return n >= c.minChars })
	if len(filtered) == 0 {
		// Terse documents keep their short chunks rather than being rejected.
		filtered = filterChunks(chunks, func(n int) bool { return n > c.fallbackMinChars })
	}
	if len(filtered) == 0 {
		return nil, domain.ErrNoUsableChunks
	}
	return filtered, nil
}

// packSentences greedily fills chunks with whole sentences. The separator is
// put back on every sentence that had one; the last sentence keeps its own ending.
func (c *ParagraphChunker) packSentences(paragraph string) []string {
	sentences := strings.Split(paragraph, sentenceSep)

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for i, sentence := range sentences {
		if i < len(sentences)-1 {
			sentence += sentenceSep
		}
		n := charLen(sentence)

		if currentLen+n <= c.maxChars {
			current.WriteString(sentence)
			currentLen += n
			continue
		}
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
		}
		current.Reset()
		current.WriteString(sentence)
		currentLen = n
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

func filterChunks(chunks []string, keep func(n int) bool) []string {
	out := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		if ch != "" && keep(charLen(strings.TrimSpace(ch))) {
			out = append(out, ch)
		}
	}
	return out
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}
