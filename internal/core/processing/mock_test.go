package processing

import (
	"context"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type MockDriver struct {
	mu      sync.Mutex
	Queries []string
	Params  []map[string]interface{}
	FailOn  string
	Err     error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	m.Params = append(m.Params, params)
	if m.Err != nil && strings.Contains(query, m.FailOn) {
		return neo4j.EagerResult{}, m.Err
	}
	return neo4j.EagerResult{}, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error { return nil }

func (m *MockDriver) Close(ctx context.Context) error { return nil }

type MockEmbedder struct{}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

type MockLLM struct {
	Response string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return m.Response, nil
}
