package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/docintel/internal/core/model"
)

func newTestService(routerLLM, synthLLM *MockLLM, d *MockDriver) *Service {
	return NewService(
		NewRouter(routerLLM, ""),
		NewRetriever(d, &MockEmbedder{Vector: []float32{0.1}}, nil, 4),
		NewSynthesizer(synthLLM, ""),
	)
}

func TestAnswerQuery_VectorSearch(t *testing.T) {
	d := &MockDriver{MockResult: chunkRecords(
		[]any{"A grace period of thirty days is provided.", "p-1", "policy.pdf", int64(0), 0.9},
	)}
	synth := &MockLLM{Response: "  Thirty days.\n"}
	svc := newTestService(&MockLLM{Response: `{"strategy": "vector_search", "question": "grace period?"}`}, synth, d)

	ans, err := svc.AnswerQuery(context.Background(), "What is the grace period?")
	require.NoError(t, err)

	assert.Equal(t, "Thirty days.", ans.Answer)
	assert.Equal(t, model.StrategyVectorSearch, ans.Strategy)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "policy.pdf", ans.Sources[0].Source)

	require.Len(t, synth.Prompts, 1)
	assert.Contains(t, synth.Prompts[0], "A grace period of thirty days is provided.")
	assert.Contains(t, synth.Prompts[0], "What is the grace period?")
}

func TestAnswerQuery_GraphQAPlaceholder(t *testing.T) {
	d := &MockDriver{}
	synth := &MockLLM{Response: NotFoundAnswer}
	svc := newTestService(&MockLLM{Response: `{"strategy": "graph_qa", "question": "q"}`}, synth, d)

	ans, err := svc.AnswerQuery(context.Background(), "Who is the CEO of National Insurance?")
	require.NoError(t, err)

	assert.Equal(t, model.StrategyGraphQA, ans.Strategy)
	assert.NotNil(t, ans.Sources)
	assert.Empty(t, ans.Sources)
	assert.Contains(t, synth.Prompts[0], GraphQAPlaceholder)
	assert.Empty(t, d.QueryExecuted)
}

func TestAnswerQuery_RouterFailureStillAnswers(t *testing.T) {
	synth := &MockLLM{Response: NotFoundAnswer}
	svc := newTestService(&MockLLM{Err: errors.New("router down")}, synth, &MockDriver{})

	ans, err := svc.AnswerQuery(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, model.StrategyUndetermined, ans.Strategy)
	assert.Equal(t, NotFoundAnswer, ans.Answer)
	assert.Contains(t, synth.Prompts[0], UndeterminedPlaceholder)
}

func TestAnswerQuery_Errors(t *testing.T) {
	route := `{"strategy": "vector_search", "question": "q"}`

	svc := newTestService(&MockLLM{Response: route}, &MockLLM{Response: "x"}, &MockDriver{Err: errors.New("neo4j unavailable")})
	_, err := svc.AnswerQuery(context.Background(), "q")
	assert.ErrorContains(t, err, "retrieval failed")

	svc = newTestService(&MockLLM{Response: route}, &MockLLM{Err: errors.New("quota")}, &MockDriver{})
	_, err = svc.AnswerQuery(context.Background(), "q")
	assert.ErrorContains(t, err, "failed to synthesize answer")
}

func TestAnswerQueries(t *testing.T) {
	router := &MockLLM{Response: `{"strategy": "graph_qa", "question": "q"}`}
	synth := &MockLLM{ResponseQueue: []string{"one", "two"}}
	svc := newTestService(router, synth, &MockDriver{})

	answers, err := svc.AnswerQueries(context.Background(), []string{"a?", "b?"})
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, "one", answers[0].Answer)
	assert.Equal(t, "two", answers[1].Answer)

	svc.Synthesizer.LLM = &MockLLM{Err: errors.New("down")}
	_, err = svc.AnswerQueries(context.Background(), []string{"a?", "b?"})
	assert.ErrorContains(t, err, "question 1")
}

func TestSynthesisPromptContract(t *testing.T) {
	llm := &MockLLM{Response: "ok"}
	_, err := NewSynthesizer(llm, "").Synthesize(context.Background(), "What is X?", "X is Y.")
	require.NoError(t, err)

	p := llm.Prompts[0]
	assert.Contains(t, p, `"The provided document does not contain information on this topic."`)
	assert.Contains(t, p, "based ONLY on the 'Context'")
	assert.Contains(t, p, `"I have no context"`)
	assert.Less(t, strings.Index(p, "X is Y."), strings.Index(p, "What is X?"), "context precedes question")
}
