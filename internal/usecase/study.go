package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"studyrag/internal/domain"
	"studyrag/internal/port"
)

// StudyUseCase answers questions and produces study material from the
// indexed corpus.
type StudyUseCase struct {
	retriever port.ContextRetriever
	generator port.Generator
	logger    *zap.Logger

	TopK           int
	MinSimilarity  float64
	TopicTopK      int
	FullContextMax int
}

func NewStudyUseCase(retriever port.ContextRetriever, generator port.Generator, logger *zap.Logger) *StudyUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudyUseCase{
		retriever:      retriever,
		generator:      generator,
		logger:         logger,
		TopK:           DefaultTopK,
		MinSimilarity:  DefaultMinSimilarity,
		TopicTopK:      5,
		FullContextMax: DefaultFullContextChunks,
	}
}

// Ask answers question from the retrieved context. When nothing relevant is
// found the generator is not called and the answer has zero confidence.
func (u *StudyUseCase) Ask(ctx context.Context, question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, domain.ErrEmptyQuery
	}
	if !u.retriever.HasDocuments() {
		return domain.Answer{}, domain.ErrNoDocuments
	}

	res, err := u.retriever.RetrieveContext(ctx, question, u.TopK, u.MinSimilarity)
	if err != nil {
		return domain.Answer{}, err
	}

	if res.Outcome != domain.OutcomeMatched {
		u.logger.Debug("no relevant context", zap.String("question", question), zap.Stringer("outcome", res.Outcome))
		return domain.Answer{
			Question:   question,
			Answer:     domain.NotFoundAnswer,
			Sources:    []domain.Source{},
			Confidence: 0,
		}, nil
	}

	text, err := u.generator.Answer(ctx, question, res.Context)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("failed to generate answer with %s: %w", u.generator.Name(), err)
	}

	return domain.Answer{
		Question:   question,
		Answer:     text,
		Sources:    res.Sources,
		Confidence: res.AvgSimilarity,
	}, nil
}

// Generate produces study material of the named type. With a topic the
// context is retrieved for it; otherwise a sample of the whole corpus is used.
func (u *StudyUseCase) Generate(ctx context.Context, materialType, topic string) (domain.Material, error) {
	kind, err := domain.ParseMaterialType(materialType)
	if err != nil {
		return domain.Material{}, err
	}
	if !u.retriever.HasDocuments() {
		return domain.Material{}, domain.ErrNoDocuments
	}

	topic = strings.TrimSpace(topic)
	var text string
	if topic != "" {
		res, err := u.retriever.RetrieveContext(ctx, topic, u.TopicTopK, u.MinSimilarity)
		if err != nil {
			return domain.Material{}, err
		}
		text = res.Context
	} else {
		text = u.retriever.FullContext(u.FullContextMax)
	}

	if strings.TrimSpace(text) == "" {
		return domain.Material{}, domain.ErrNoContext
	}

	content, err := u.generator.Material(ctx, kind, text, topic)
	if err != nil {
		return domain.Material{}, fmt.Errorf("failed to generate %s with %s: %w", kind, u.generator.Name(), err)
	}

	u.logger.Debug("material generated", zap.String("type", string(kind)), zap.String("topic", topic))
	return domain.Material{
		Type:    kind,
		Topic:   topic,
		Content: content,
	}, nil
}
