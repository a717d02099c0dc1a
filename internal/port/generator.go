package port

import (
	"context"

	"studyrag/internal/domain"
)

// Generator turns retrieved context into natural-language output.
type Generator interface {
	// Answer answers question using only the given context.
	Answer(ctx context.Context, question, context string) (string, error)

	// Material produces study material of the given type from context.
	// topic may be empty.
	Material(ctx context.Context, kind domain.MaterialType, context, topic string) (string, error)

	// Name identifies the generator.
	Name() string
}
