package extraction

import (
	"context"
	"sync"
)

type MockLLMClient struct {
	mu        sync.Mutex
	Responses []string
	Errs      []error
	Prompts   []string
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := len(m.Prompts)
	m.Prompts = append(m.Prompts, prompt)
	if call < len(m.Errs) && m.Errs[call] != nil {
		return "", m.Errs[call]
	}
	if call < len(m.Responses) {
		return m.Responses[call], nil
	}
	return `{"nodes": [], "relationships": []}`, nil
}
