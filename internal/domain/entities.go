package domain

import "time"

// Document is an ingested text split into chunks. Chunks are never edited in
// place; replacing them means removing and re-adding the whole document.
type Document struct {
	ID         string    `json:"doc_id"`
	Filename   string    `json:"filename"`
	Chunks     []string  `json:"chunks"`
	TextLength int       `json:"text_length"`
	AddedAt    time.Time `json:"added_at"`
}

// ChunkCount returns the number of chunks in the document.
func (d Document) ChunkCount() int {
	return len(d.Chunks)
}

// DocumentInput is raw text handed to the engine by an extractor.
type DocumentInput struct {
	ID       string
	Filename string
	Text     string
}

// Source points a retrieved chunk back at the document it came from.
type Source struct {
	Filename   string  `json:"filename"`
	DocID      string  `json:"doc_id"`
	ChunkIndex int     `json:"chunk_index"`
	Similarity float64 `json:"similarity"`
}

// Outcome tells callers why a retrieval produced what it did.
type Outcome int

const (
	OutcomeNotIndexed Outcome = iota
	OutcomeNoMatch
	OutcomeMatched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotIndexed:
		return "not_indexed"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeMatched:
		return "matched"
	default:
		return "unknown"
	}
}

type RetrievalResult struct {
	Context       string    `json:"context"`
	Sources       []Source  `json:"sources"`
	Similarities  []float64 `json:"similarities"`
	AvgSimilarity float64   `json:"avg_similarity"`
	Outcome       Outcome   `json:"-"`
}

// EmptyResult is returned when nothing can be retrieved.
func EmptyResult(outcome Outcome) RetrievalResult {
	return RetrievalResult{
		Sources:      []Source{},
		Similarities: []float64{},
		Outcome:      outcome,
	}
}

type Stats struct {
	Documents  int    `json:"indexed_documents"`
	Chunks     int    `json:"total_chunks"`
	Vocabulary int    `json:"vocabulary_size"`
	Indexed    bool   `json:"is_indexed"`
	Generation uint64 `json:"generation"`
}

// MaterialType is a kind of generated study material.
type MaterialType string

const (
	MaterialSummary    MaterialType = "summary"
	MaterialFlashcards MaterialType = "flashcards"
	MaterialQuiz       MaterialType = "quiz"
)

// MaterialTypes lists the supported material types in display order.
var MaterialTypes = []MaterialType{MaterialSummary, MaterialFlashcards, MaterialQuiz}

// ParseMaterialType validates a material type name.
func ParseMaterialType(s string) (MaterialType, error) {
	for _, t := range MaterialTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", &UnsupportedMaterialError{Type: s}
}

// NotFoundAnswer is given when the indexed documents do not cover a question.
const NotFoundAnswer = "I cannot find the answer in the provided study materials."

type Answer struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence float64  `json:"confidence"`
}

type Material struct {
	Type    MaterialType `json:"material_type"`
	Topic   string       `json:"topic,omitempty"`
	Content string       `json:"content"`
}
