package retrieval

import (
	"context"
	"fmt"
	"log"

	"github.com/agenthands/docintel/internal/core/common"
	"github.com/agenthands/docintel/internal/core/model"
)

// Service answers questions: route, retrieve, synthesize.
type Service struct {
	Router      *Router
	Retriever   *Retriever
	Synthesizer *Synthesizer
}

func NewService(router *Router, retriever *Retriever, synthesizer *Synthesizer) *Service {
	return &Service{Router: router, Retriever: retriever, Synthesizer: synthesizer}
}

func (s *Service) AnswerQuery(ctx context.Context, question string) (*model.Answer, error) {
	log.Printf("Received query: %s", common.Truncate(question, 120))

	decision := s.Router.Route(ctx, question)

	retrieved, err := s.Retriever.Retrieve(ctx, question, decision)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	answer, err := s.Synthesizer.Synthesize(ctx, question, retrieved.Context)
	if err != nil {
		return nil, err
	}

	sources := retrieved.Sources
	if sources == nil {
		sources = []model.SourceMetadata{}
	}
	return &model.Answer{
		Answer:   answer,
		Strategy: decision.Strategy,
		Sources:  sources,
	}, nil
}

// AnswerQueries answers each question in order and stops at the first failure.
func (s *Service) AnswerQueries(ctx context.Context, questions []string) ([]*model.Answer, error) {
	answers := make([]*model.Answer, 0, len(questions))
	for i, q := range questions {
		a, err := s.AnswerQuery(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		answers = append(answers, a)
	}
	return answers, nil
}
