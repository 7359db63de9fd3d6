package retrieval

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type MockDriver struct {
	QueryExecuted string
	QueryParams   map[string]interface{}
	MockResult    neo4j.EagerResult
	Err           error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.QueryExecuted = query
	m.QueryParams = params
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	return m.MockResult, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error { return nil }

func (m *MockDriver) Close(ctx context.Context) error { return nil }

type MockEmbedder struct {
	Vector []float32
	Err    error
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}

// MockLLM answers from ResponseQueue first, then falls back to Response.
type MockLLM struct {
	Response      string
	ResponseQueue []string
	Err           error
	Prompts       []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}

type MockReranker struct {
	Order []int
}

func (m *MockReranker) Rank(ctx context.Context, query string, docs []string) ([]int, error) {
	return m.Order, nil
}

func chunkRecords(rows ...[]any) neo4j.EagerResult {
	keys := []string{"text", "id", "source", "chunk_index", "score"}
	res := neo4j.EagerResult{Keys: keys}
	for _, r := range rows {
		res.Records = append(res.Records, &neo4j.Record{Keys: keys, Values: r})
	}
	return res
}
