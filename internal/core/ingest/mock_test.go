package ingest

import (
	"context"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type executedQuery struct {
	Query  string
	Params map[string]interface{}
}

type MockDriver struct {
	mu       sync.Mutex
	Executed []executedQuery
	// FailOn makes any query containing this substring return Err.
	FailOn string
	Err    error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Executed = append(m.Executed, executedQuery{Query: query, Params: params})
	if m.Err != nil && (m.FailOn == "" || strings.Contains(query, m.FailOn)) {
		return neo4j.EagerResult{}, m.Err
	}
	return neo4j.EagerResult{}, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error { return nil }

func (m *MockDriver) Close(ctx context.Context) error { return nil }

func (m *MockDriver) queriesContaining(sub string) []executedQuery {
	var out []executedQuery
	for _, q := range m.Executed {
		if strings.Contains(q.Query, sub) {
			out = append(out, q)
		}
	}
	return out
}

type MockEmbedder struct {
	Vector []float32
	Err    error
	Calls  int
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}
