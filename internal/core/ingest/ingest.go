package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/agenthands/docintel/internal/core/model"
	"github.com/agenthands/docintel/internal/driver"
	"github.com/agenthands/docintel/internal/llm"
)

// WriteBatchSize bounds the rows sent in one UNWIND statement.
const WriteBatchSize = 200

type Stats struct {
	ParentChunks  int
	ChildChunks   int
	Nodes         int
	Relationships int
}

// Ingestor writes chunks and extracted graph data to Neo4j.
type Ingestor struct {
	Driver   driver.GraphDriver
	Embedder llm.EmbedderClient
	newID    func() string
}

func NewIngestor(d driver.GraphDriver, embedder llm.EmbedderClient) *Ingestor {
	return &Ingestor{
		Driver:   d,
		Embedder: embedder,
		newID:    func() string { return uuid.New().String() },
	}
}

// Ingest embeds and stores the parents, links every child to its parent and merges
// the graph. Steps are not transactional; on error the returned Stats reflect what
// was written before the failing step.
func (i *Ingestor) Ingest(ctx context.Context, parents []model.ParentChunk, children []model.ChildChunk, graph model.GraphDocument) (Stats, error) {
	var stats Stats

	if err := i.SaveParents(ctx, parents); err != nil {
		return stats, fmt.Errorf("store parent chunks: %w", err)
	}
	stats.ParentChunks = len(parents)

	if err := i.SaveChildren(ctx, children); err != nil {
		return stats, fmt.Errorf("store child chunks: %w", err)
	}
	stats.ChildChunks = len(children)

	if err := i.MergeGraph(ctx, graph); err != nil {
		return stats, fmt.Errorf("store graph: %w", err)
	}
	stats.Nodes = len(graph.Nodes)
	stats.Relationships = len(graph.Relationships)

	log.Printf("Ingested %s: %d parents, %d children, %d nodes, %d relationships",
		graph.Source, stats.ParentChunks, stats.ChildChunks, stats.Nodes, stats.Relationships)
	return stats, nil
}

// SaveParents embeds each parent that has no embedding yet and writes them under
// the vector-indexed ParentChunk label.
func (i *Ingestor) SaveParents(ctx context.Context, parents []model.ParentChunk) error {
	if len(parents) == 0 {
		return nil
	}
	if i.Embedder == nil {
		return fmt.Errorf("no embedder configured")
	}

	rows := make([]map[string]any, 0, len(parents))
	for idx := range parents {
		p := &parents[idx]
		if len(p.Embedding) == 0 {
			vec, err := i.Embedder.Embed(ctx, p.Text)
			if err != nil {
				return fmt.Errorf("embed parent %d: %w", p.Index, err)
			}
			p.Embedding = vec
		}
		rows = append(rows, map[string]any{
			"id":        p.ID,
			"text":      p.Text,
			"source":    p.Source,
			"title":     p.Title,
			"index":     p.Index,
			"embedding": driver.Float64s(p.Embedding),
		})
	}

	if err := driver.EnsureVectorIndex(ctx, i.Driver, len(parents[0].Embedding)); err != nil {
		return err
	}
	return i.writeRows(ctx, driver.SaveParentChunksQuery, rows)
}

// SaveChildren assigns each child a fresh ID and links it CHILD_OF its parent.
func (i *Ingestor) SaveChildren(ctx context.Context, children []model.ChildChunk) error {
	rows := make([]map[string]any, 0, len(children))
	for idx := range children {
		c := &children[idx]
		c.ID = i.newID()
		rows = append(rows, map[string]any{
			"id":        c.ID,
			"parent_id": c.ParentID,
			"text":      c.Text,
			"source":    c.Source,
			"index":     c.Index,
		})
	}
	return i.writeRows(ctx, driver.SaveChildChunksQuery, rows)
}

// MergeGraph merges entities keyed on id and label, then their relationships.
func (i *Ingestor) MergeGraph(ctx context.Context, graph model.GraphDocument) error {
	nodes := make([]map[string]any, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		nodes = append(nodes, map[string]any{"id": n.ID, "type": n.Type})
	}
	if err := i.writeRows(ctx, driver.MergeEntitiesQuery, nodes); err != nil {
		return fmt.Errorf("merge nodes: %w", err)
	}

	rels := make([]map[string]any, 0, len(graph.Relationships))
	for _, r := range graph.Relationships {
		rels = append(rels, map[string]any{
			"source_id":   r.Source.ID,
			"source_type": r.Source.Type,
			"target_id":   r.Target.ID,
			"target_type": r.Target.Type,
			"type":        r.Type,
		})
	}
	if err := i.writeRows(ctx, driver.MergeRelationshipsQuery, rels); err != nil {
		return fmt.Errorf("merge relationships: %w", err)
	}
	return nil
}

func (i *Ingestor) writeRows(ctx context.Context, query string, rows []map[string]any) error {
	for start := 0; start < len(rows); start += WriteBatchSize {
		end := min(start+WriteBatchSize, len(rows))
		if _, err := i.Driver.ExecuteQuery(ctx, query, map[string]any{"rows": rows[start:end]}); err != nil {
			return err
		}
	}
	return nil
}
