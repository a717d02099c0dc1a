package analyzer

import (
	"reflect"
	"testing"
)

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer(WithNgramRange(1, 1))

	tokens := tok.Tokenize("The quick brown fox is in the garden")
	want := []string{"quick", "brown", "fox", "garden"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("expected %v, got %v", want, tokens)
	}
}

func TestTokenizer_NoStopwords(t *testing.T) {
	tok := NewTokenizer(WithNgramRange(1, 1), WithStopwords("none"))

	tokens := tok.Tokenize("the fox")
	want := []string{"the", "fox"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("expected %v, got %v", want, tokens)
	}
}

func TestTokenizer_ShortWordRemoval(t *testing.T) {
	tok := NewTokenizer(WithStopwords("none"))

	tokens := tok.Tokenize("a b c go x")
	for _, token := range tokens {
		if len(token) < 2 {
			t.Errorf("short word should be removed: %s", token)
		}
	}
}

func TestTokenizer_Bigrams(t *testing.T) {
	tok := NewTokenizer()

	terms := tok.Analyze("Mitochondria are the powerhouse of the cell.")
	want := []string{
		"mitochondria", "powerhouse", "cell",
		"mitochondria powerhouse", "powerhouse cell",
	}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("expected %v, got %v", want, terms)
	}
}

func TestTokenizer_Lowercase(t *testing.T) {
	tok := NewTokenizer(WithNgramRange(1, 1))

	terms := tok.Analyze("Photosynthesis PHOTOSYNTHESIS")
	want := []string{"photosynthesis", "photosynthesis"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("expected %v, got %v", want, terms)
	}
}

func TestTokenizer_EmptyInput(t *testing.T) {
	tok := NewTokenizer()

	if terms := tok.Analyze(""); len(terms) != 0 {
		t.Errorf("expected 0 terms for empty input, got %v", terms)
	}
	if terms := tok.Analyze("what is it?"); len(terms) != 0 {
		t.Errorf("expected stop-word-only input to yield no terms, got %v", terms)
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"hello world", 2},
		{"hello_world", 1},
		{"hello-world", 2},
		{"cell's membrane", 3},
		{"Zellkern Größe", 2},
		{"123numbers456", 1},
	}

	for _, tt := range tests {
		words := splitWords(tt.input)
		if len(words) != tt.expected {
			t.Errorf("splitWords(%q) = %d words, want %d: %v", tt.input, len(words), tt.expected, words)
		}
	}
}
