package port

// FileWalker finds ingestible files under a root directory.
type FileWalker interface {
	Walk(root string) ([]FileInfo, error)

	// Matches reports whether a path relative to the walk root would be ingested.
	Matches(relPath string) bool
}

type FileInfo struct {
	Path    string
	RelPath string
	ModTime int64 // Unix nanoseconds
	Size    int64
}

// FileReader extracts plain text from a file.
type FileReader interface {
	ReadFile(path string) (string, error)
}
