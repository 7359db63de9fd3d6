package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/docintel/internal/core/model"
	"github.com/agenthands/docintel/internal/driver"
	"github.com/agenthands/docintel/internal/llm"
)

const (
	DefaultTopK = 4

	GraphQAPlaceholder      = "Graph QA is not yet implemented. Please ask a broader question."
	UndeterminedPlaceholder = "Could not determine a valid retrieval strategy."
)

// Retrieval is the context handed to the synthesizer.
type Retrieval struct {
	Context string
	Sources []model.SourceMetadata
	Chunks  []model.RetrievedChunk
}

// Retriever gathers context for a routed question.
type Retriever struct {
	Driver   driver.GraphDriver
	Embedder llm.EmbedderClient
	Reranker llm.RerankerClient
	TopK     int
}

func NewRetriever(d driver.GraphDriver, embedder llm.EmbedderClient, reranker llm.RerankerClient, topK int) *Retriever {
	if topK < 1 {
		topK = DefaultTopK
	}
	return &Retriever{Driver: d, Embedder: embedder, Reranker: reranker, TopK: topK}
}

func (r *Retriever) Retrieve(ctx context.Context, question string, decision model.RouteDecision) (Retrieval, error) {
	switch decision.Strategy {
	case model.StrategyVectorSearch, model.StrategyHybridSearch:
		chunks, err := r.VectorSearch(ctx, question)
		if err != nil {
			return Retrieval{}, err
		}
		return newRetrieval(chunks), nil
	case model.StrategyGraphQA:
		return Retrieval{Context: GraphQAPlaceholder, Sources: []model.SourceMetadata{}}, nil
	default:
		return Retrieval{Context: UndeterminedPlaceholder, Sources: []model.SourceMetadata{}}, nil
	}
}

// VectorSearch embeds the question and returns the TopK most similar parent chunks,
// optionally reordered by the reranker.
func (r *Retriever) VectorSearch(ctx context.Context, question string) ([]model.RetrievedChunk, error) {
	vec, err := r.Embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	params := map[string]interface{}{
		"index_name": driver.ParentChunkIndex,
		"k":          r.TopK,
		"embedding":  driver.Float64s(vec),
	}
	res, err := r.Driver.ExecuteQuery(ctx, driver.VectorSearchQuery, params)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	chunks := make([]model.RetrievedChunk, 0, len(res.Records))
	for _, rec := range res.Records {
		chunks = append(chunks, chunkFromRecord(rec))
	}
	log.Printf("Vector search returned %d chunks", len(chunks))

	if r.Reranker != nil && len(chunks) > 1 {
		chunks = r.rerank(ctx, question, chunks)
	}
	return chunks, nil
}

func (r *Retriever) rerank(ctx context.Context, question string, chunks []model.RetrievedChunk) []model.RetrievedChunk {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	order, err := r.Reranker.Rank(ctx, question, texts)
	if err != nil || len(order) != len(chunks) {
		return chunks
	}
	out := make([]model.RetrievedChunk, 0, len(chunks))
	for _, i := range order {
		out = append(out, chunks[i])
	}
	return out
}

func chunkFromRecord(rec *neo4j.Record) model.RetrievedChunk {
	text, _, _ := neo4j.GetRecordValue[string](rec, "text")
	id, _, _ := neo4j.GetRecordValue[string](rec, "id")
	source, _, _ := neo4j.GetRecordValue[string](rec, "source")
	title, _, _ := neo4j.GetRecordValue[string](rec, "title")
	index, _, _ := neo4j.GetRecordValue[int64](rec, "chunk_index")
	score, _, _ := neo4j.GetRecordValue[float64](rec, "score")
	return model.RetrievedChunk{
		Text: text,
		Metadata: model.SourceMetadata{
			ID:     id,
			Source: source,
			Title:  title,
			Index:  int(index),
			Score:  score,
		},
	}
}

func newRetrieval(chunks []model.RetrievedChunk) Retrieval {
	texts := make([]string, 0, len(chunks))
	sources := make([]model.SourceMetadata, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
		sources = append(sources, c.Metadata)
	}
	return Retrieval{
		Context: strings.Join(texts, "\n\n"),
		Sources: sources,
		Chunks:  chunks,
	}
}
