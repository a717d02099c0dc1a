package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyDocument       = errors.New("document text is empty")
	ErrMissingDocumentID   = errors.New("document id is required")
	ErrNoUsableChunks      = errors.New("no valid chunks extracted from document")
	ErrEmptyQuery          = errors.New("query is empty")
	ErrUnsupportedMaterial = errors.New("unsupported material type")
	ErrNoDocuments         = errors.New("no documents indexed")
	ErrNoContext           = errors.New("no content available for material generation")
)

// BuildError reports a failed rebuild of the vector space.
type BuildError struct {
	Op  string
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("index build failed (%s): %v", e.Op, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// UnsupportedMaterialError names the rejected material type.
type UnsupportedMaterialError struct {
	Type string
}

func (e *UnsupportedMaterialError) Error() string {
	return fmt.Sprintf("%v: %q (must be one of summary, flashcards, quiz)", ErrUnsupportedMaterial, e.Type)
}

func (e *UnsupportedMaterialError) Is(target error) bool {
	return target == ErrUnsupportedMaterial
}
