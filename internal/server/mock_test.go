package server

import (
	"context"
	"errors"
	"sync"

	"github.com/agenthands/docintel/internal/core/model"
	"github.com/agenthands/docintel/internal/jobs"
)

type MockAnswerer struct {
	Answer    *model.Answer
	Err       error
	Questions []string
}

func (m *MockAnswerer) AnswerQuery(ctx context.Context, question string) (*model.Answer, error) {
	m.Questions = append(m.Questions, question)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Answer, nil
}

func (m *MockAnswerer) AnswerQueries(ctx context.Context, questions []string) ([]*model.Answer, error) {
	var out []*model.Answer
	for _, q := range questions {
		a, err := m.AnswerQuery(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, &model.Answer{Answer: a.Answer + " (" + q + ")", Strategy: a.Strategy})
	}
	return out, nil
}

type MockQueue struct {
	mu       sync.Mutex
	Payloads []jobs.Payload
	Jobs     map[string]jobs.Job
	Err      error
}

func (m *MockQueue) Enqueue(ctx context.Context, p jobs.Payload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.Payloads = append(m.Payloads, p)
	return "task-1", nil
}

func (m *MockQueue) Status(ctx context.Context, id string) (jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.Jobs[id]; ok {
		return job, nil
	}
	if id == "broken" {
		return jobs.Job{}, errors.New("store offline")
	}
	return jobs.Job{}, jobs.ErrNotFound
}
