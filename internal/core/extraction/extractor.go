package extraction

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agenthands/docintel/internal/core/common"
	"github.com/agenthands/docintel/internal/core/dedupe"
	"github.com/agenthands/docintel/internal/core/model"
	"github.com/agenthands/docintel/internal/llm"
)

const DefaultBatchSize = 5

const DefaultPrompt = `Extract a knowledge graph from the text.
Focus on identifying clear entities and their relationships.
Format the output as a JSON object with 'nodes' and 'relationships' keys:
{
  "nodes": [{"id": "entity name", "type": "entity type"}],
  "relationships": [
    {"source": {"id": "entity name", "type": "entity type"},
     "target": {"id": "entity name", "type": "entity type"},
     "type": "RELATIONSHIP_TYPE"}
  ]
}
Output ONLY the JSON object.
Text: %s`

type Extractor struct {
	LLM       llm.LLMClient
	Prompt    string
	BatchSize int
}

func NewExtractor(llmClient llm.LLMClient, prompt string, batchSize int) *Extractor {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Extractor{
		LLM:       llmClient,
		Prompt:    prompt,
		BatchSize: batchSize,
	}
}

// Extract sends the chunks to the LLM in fixed-size batches and merges every batch that
// produced usable JSON into one graph document. A failing batch is logged, recorded in
// FailedBatches and skipped.
func (e *Extractor) Extract(ctx context.Context, source string, chunks []model.ChildChunk) model.ExtractionResult {
	result := model.ExtractionResult{Graph: model.GraphDocument{Source: source}}

	var nodes []model.GraphNode
	var rels []model.GraphRelationship
	for i := 0; i < len(chunks); i += e.BatchSize {
		end := min(i+e.BatchSize, len(chunks))
		batchIndex := i / e.BatchSize
		result.Batches++

		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			texts = append(texts, c.Text)
		}

		log.Printf("Extracting graph entities: batch %d (%d chunks)", batchIndex+1, end-i)
		batchNodes, batchRels, err := e.extractBatch(ctx, strings.Join(texts, "\n\n"))
		if err != nil {
			log.Printf("Error processing batch %d: %v", batchIndex+1, err)
			result.FailedBatches = append(result.FailedBatches, model.BatchFailure{Index: batchIndex, Reason: err.Error()})
			continue
		}
		nodes = append(nodes, batchNodes...)
		rels = append(rels, batchRels...)
	}

	result.Graph.Nodes = dedupe.Nodes(nodes)
	result.Graph.Relationships = rels
	return result
}

func (e *Extractor) extractBatch(ctx context.Context, text string) ([]model.GraphNode, []model.GraphRelationship, error) {
	prompt := fmt.Sprintf(e.Prompt, text)

	response, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate graph: %w", err)
	}

	return ParseGraph(response)
}

// ParseGraph validates the structure of an extraction response. The whole response is
// rejected when it is not a JSON object or its nodes/relationships are not arrays;
// individual malformed entries are skipped.
func ParseGraph(response string) ([]model.GraphNode, []model.GraphRelationship, error) {
	raw, err := common.ExtractJSONObject(response)
	if err != nil {
		return nil, nil, err
	}
	if !gjson.Valid(raw) {
		return nil, nil, fmt.Errorf("invalid JSON in response: %s", common.Truncate(raw, 200))
	}

	doc := gjson.Parse(raw)
	rawNodes := doc.Get("nodes")
	rawRels := doc.Get("relationships")
	if !rawNodes.Exists() && !rawRels.Exists() {
		return nil, nil, fmt.Errorf("response has neither nodes nor relationships")
	}
	if rawNodes.Exists() && !rawNodes.IsArray() {
		return nil, nil, fmt.Errorf("nodes is %s, not an array", rawNodes.Type)
	}
	if rawRels.Exists() && !rawRels.IsArray() {
		return nil, nil, fmt.Errorf("relationships is %s, not an array", rawRels.Type)
	}

	var nodes []model.GraphNode
	for _, v := range rawNodes.Array() {
		if n, ok := dedupe.NodeFromJSON(v); ok {
			nodes = append(nodes, n)
		}
	}

	var rels []model.GraphRelationship
	for _, v := range rawRels.Array() {
		if r, ok := dedupe.RelationshipFromJSON(v); ok {
			rels = append(rels, r)
		}
	}

	return nodes, rels, nil
}
