package processing

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/agenthands/docintel/internal/core/chunking"
	"github.com/agenthands/docintel/internal/core/extraction"
	"github.com/agenthands/docintel/internal/core/ingest"
	"github.com/agenthands/docintel/internal/core/model"
	"github.com/agenthands/docintel/internal/jobs"
	"github.com/agenthands/docintel/internal/parser"
)

// Processor runs the ingestion pipeline for one document: parse, chunk, extract, store.
type Processor struct {
	Parser    parser.Parser
	Chunker   *chunking.Builder
	Extractor *extraction.Extractor
	Ingestor  *ingest.Ingestor
}

func NewProcessor(p parser.Parser, chunker *chunking.Builder, extractor *extraction.Extractor, ingestor *ingest.Ingestor) *Processor {
	return &Processor{
		Parser:    p,
		Chunker:   chunker,
		Extractor: extractor,
		Ingestor:  ingestor,
	}
}

// Process ingests the file at path under the given name. Extraction batches that
// fail are reported in the result; parse and store failures abort the run.
func (p *Processor) Process(ctx context.Context, path, name string) (*model.ProcessResult, error) {
	log.Printf("Processing %s...", name)

	doc, err := p.Parser.Parse(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	parents, children, err := p.Chunker.Build(doc.Text(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk %s: %w", name, err)
	}
	for i := range parents {
		parents[i].Title = doc.Title
	}
	log.Printf("Created %d parent and %d child chunks for %s", len(parents), len(children), name)

	extracted := p.Extractor.Extract(ctx, name, children)
	if extracted.Degraded() {
		log.Printf("Extraction for %s skipped %d of %d batches", name, len(extracted.FailedBatches), extracted.Batches)
	}

	if _, err := p.Ingestor.Ingest(ctx, parents, children, extracted.Graph); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", name, err)
	}

	return &model.ProcessResult{
		Filename:                name,
		Title:                   doc.Title,
		TotalParentChunks:       len(parents),
		TotalChildChunks:        len(children),
		TotalGraphNodes:         len(extracted.Graph.Nodes),
		TotalGraphRelationships: len(extracted.Graph.Relationships),
		FailedBatches:           extracted.FailedBatches,
	}, nil
}

// HandleJob processes an uploaded file and removes it afterwards, whatever the outcome.
func (p *Processor) HandleJob(ctx context.Context, payload jobs.Payload) (any, error) {
	defer func() {
		if err := os.Remove(payload.FilePath); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove temp file %s: %v", payload.FilePath, err)
		}
	}()
	return p.Process(ctx, payload.FilePath, payload.FileName)
}
