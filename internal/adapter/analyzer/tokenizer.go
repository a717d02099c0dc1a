package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer lowercases text, drops stop words and expands the remaining
// tokens into n-grams.
type Tokenizer struct {
	stopwords map[string]struct{}
	ngramMin  int
	ngramMax  int
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithNgramRange sets the inclusive n-gram range. Invalid ranges are ignored.
func WithNgramRange(min, max int) Option {
	return func(t *Tokenizer) {
		if min >= 1 && max >= min {
			t.ngramMin = min
			t.ngramMax = max
		}
	}
}

// WithStopwords selects the stop-word list: "english" or "none".
func WithStopwords(name string) Option {
	return func(t *Tokenizer) {
		switch strings.ToLower(name) {
		case "none", "":
			t.stopwords = nil
		default:
			t.stopwords = EnglishStopwords()
		}
	}
}

// NewTokenizer creates a Tokenizer producing unigrams and bigrams with
// English stop words removed.
func NewTokenizer(opts ...Option) *Tokenizer {
	t := &Tokenizer{
		stopwords: EnglishStopwords(),
		ngramMin:  1,
		ngramMax:  2,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Analyze returns all n-gram terms of text in order of appearance.
func (t *Tokenizer) Analyze(text string) []string {
	tokens := t.Tokenize(text)
	if t.ngramMin == 1 && t.ngramMax == 1 {
		return tokens
	}

	terms := make([]string, 0, len(tokens)*(t.ngramMax-t.ngramMin+1))
	for n := t.ngramMin; n <= t.ngramMax; n++ {
		if n == 1 {
			terms = append(terms, tokens...)
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// Tokenize returns lowercased word tokens of at least two characters with
// stop words removed.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(strings.ToLower(text))
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		if len([]rune(word)) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// splitWords splits text into runs of letters, digits and underscores.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
