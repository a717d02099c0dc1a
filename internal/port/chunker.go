package port

// Chunker splits document text into ordered retrievable units.
type Chunker interface {
	Chunk(text string) ([]string, error)
}
