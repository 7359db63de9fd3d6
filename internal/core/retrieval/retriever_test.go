package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/docintel/internal/core/model"
	"github.com/agenthands/docintel/internal/driver"
)

func TestRetrieve_VectorSearch(t *testing.T) {
	d := &MockDriver{MockResult: chunkRecords(
		[]any{"A grace period of thirty days.", "p-1", "policy.pdf", int64(3), 0.91},
		[]any{"Premiums are due yearly.", "p-2", "policy.pdf", int64(4), 0.72},
	)}
	r := NewRetriever(d, &MockEmbedder{Vector: []float32{0.5, 0.25}}, nil, 0)

	for _, s := range []model.Strategy{model.StrategyVectorSearch, model.StrategyHybridSearch} {
		got, err := r.Retrieve(context.Background(), "grace period?", model.RouteDecision{Strategy: s})
		require.NoError(t, err)

		assert.Equal(t, "A grace period of thirty days.\n\nPremiums are due yearly.", got.Context)
		require.Len(t, got.Sources, 2)
		assert.Equal(t, model.SourceMetadata{ID: "p-1", Source: "policy.pdf", Index: 3, Score: 0.91}, got.Sources[0])
	}

	assert.Equal(t, driver.VectorSearchQuery, d.QueryExecuted)
	assert.Equal(t, driver.ParentChunkIndex, d.QueryParams["index_name"])
	assert.Equal(t, DefaultTopK, d.QueryParams["k"])
	assert.Equal(t, []float64{0.5, 0.25}, d.QueryParams["embedding"])
}

func TestRetrieve_SourceTitle(t *testing.T) {
	keys := []string{"text", "id", "source", "title", "chunk_index", "score"}
	d := &MockDriver{MockResult: neo4j.EagerResult{Keys: keys, Records: []*neo4j.Record{
		{Keys: keys, Values: []any{"A grace period of thirty days.", "p-1", "policy.md", "Policy Wordings", int64(0), 0.9}},
		{Keys: keys, Values: []any{"Untitled text.", "p-2", "notes.txt", nil, int64(0), 0.5}},
	}}}
	r := NewRetriever(d, &MockEmbedder{Vector: []float32{1}}, nil, 2)

	got, err := r.Retrieve(context.Background(), "grace period?", model.RouteDecision{Strategy: model.StrategyVectorSearch})
	require.NoError(t, err)
	require.Len(t, got.Sources, 2)
	assert.Equal(t, "Policy Wordings", got.Sources[0].Title)
	assert.Empty(t, got.Sources[1].Title)
}

func TestRetrieve_Placeholders(t *testing.T) {
	d := &MockDriver{}
	r := NewRetriever(d, &MockEmbedder{}, nil, 4)

	got, err := r.Retrieve(context.Background(), "who?", model.RouteDecision{Strategy: model.StrategyGraphQA})
	require.NoError(t, err)
	assert.Equal(t, GraphQAPlaceholder, got.Context)
	assert.NotNil(t, got.Sources)
	assert.Empty(t, got.Sources)

	got, err = r.Retrieve(context.Background(), "who?", model.RouteDecision{Strategy: model.StrategyUndetermined})
	require.NoError(t, err)
	assert.Equal(t, UndeterminedPlaceholder, got.Context)
	assert.Empty(t, got.Sources)

	assert.Empty(t, d.QueryExecuted, "placeholder branches must not touch the store")
}

func TestRetrieve_Errors(t *testing.T) {
	decision := model.RouteDecision{Strategy: model.StrategyVectorSearch}

	r := NewRetriever(&MockDriver{Err: errors.New("db down")}, &MockEmbedder{Vector: []float32{1}}, nil, 4)
	_, err := r.Retrieve(context.Background(), "q", decision)
	assert.ErrorContains(t, err, "db down")

	r = NewRetriever(&MockDriver{}, &MockEmbedder{Err: errors.New("embedder down")}, nil, 4)
	_, err = r.Retrieve(context.Background(), "q", decision)
	assert.ErrorContains(t, err, "failed to embed question")
}

func TestRetrieve_Rerank(t *testing.T) {
	d := &MockDriver{MockResult: chunkRecords(
		[]any{"first", "p-1", "a.pdf", int64(0), 0.9},
		[]any{"second", "p-2", "a.pdf", int64(1), 0.8},
		[]any{"third", "p-3", "a.pdf", int64(2), 0.7},
	)}
	r := NewRetriever(d, &MockEmbedder{Vector: []float32{1}}, &MockReranker{Order: []int{2, 0, 1}}, 3)

	got, err := r.Retrieve(context.Background(), "q", model.RouteDecision{Strategy: model.StrategyVectorSearch})
	require.NoError(t, err)
	assert.Equal(t, "third\n\nfirst\n\nsecond", got.Context)
	assert.Equal(t, "p-3", got.Sources[0].ID)

	r.Reranker = &MockReranker{Order: []int{1}}
	got, err = r.Retrieve(context.Background(), "q", model.RouteDecision{Strategy: model.StrategyVectorSearch})
	require.NoError(t, err)
	assert.Equal(t, "first\n\nsecond\n\nthird", got.Context, "partial ranking keeps retrieval order")
}
