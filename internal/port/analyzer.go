package port

// Analyzer turns text into the terms the vector space is built from.
type Analyzer interface {
	// Analyze returns the terms of text in order of appearance, duplicates kept.
	Analyze(text string) []string
}
