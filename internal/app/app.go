package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/agenthands/docintel/internal/config"
	"github.com/agenthands/docintel/internal/core/chunking"
	"github.com/agenthands/docintel/internal/core/extraction"
	"github.com/agenthands/docintel/internal/core/ingest"
	"github.com/agenthands/docintel/internal/core/processing"
	"github.com/agenthands/docintel/internal/core/retrieval"
	"github.com/agenthands/docintel/internal/driver"
	"github.com/agenthands/docintel/internal/jobs"
	"github.com/agenthands/docintel/internal/llm"
	"github.com/agenthands/docintel/internal/parser"
)

// App owns every long-lived dependency. Components are built once and shared
// read-only between request handlers and job workers.
type App struct {
	Config    *config.Config
	Driver    driver.GraphDriver
	Processor *processing.Processor
	Retrieval *retrieval.Service
	Jobs      *jobs.Queue

	jobStore jobs.Store
	closers  []func() error
}

// Clients bundles the LLM backends of each role.
type Clients struct {
	Extraction llm.LLMClient
	Router     llm.LLMClient
	Synthesis  llm.LLMClient
	Embedder   llm.EmbedderClient
}

// NewClients builds the role clients. Extraction and routing always ask for JSON output.
func NewClients(ctx context.Context, cfg *config.Config) (*Clients, []func() error, error) {
	var closers []func() error
	build := func(role string, c config.LLMConfig) (llm.LLMClient, llm.EmbedderClient, error) {
		gen, emb, err := llm.NewClient(ctx, c)
		if err != nil {
			return nil, nil, fmt.Errorf("%s llm: %w", role, err)
		}
		if cl, ok := gen.(interface{ Close() error }); ok {
			closers = append(closers, cl.Close)
		}
		log.Printf("%s LLM: %s/%s", role, c.Provider, c.Model)
		return gen, emb, nil
	}

	extractionCfg := cfg.ExtractionLLM()
	extractionCfg.JSONMode = true
	routerCfg := cfg.RouterLLM()
	routerCfg.JSONMode = true

	var (
		clients Clients
		err     error
	)
	if clients.Extraction, _, err = build("extraction", extractionCfg); err != nil {
		return nil, closers, err
	}
	if clients.Router, _, err = build("router", routerCfg); err != nil {
		return nil, closers, err
	}
	if clients.Synthesis, _, err = build("synthesis", cfg.SynthesisLLM()); err != nil {
		return nil, closers, err
	}
	if _, clients.Embedder, err = build("embedding", cfg.LLM.LLMConfig); err != nil {
		return nil, closers, err
	}
	if clients.Embedder == nil {
		return nil, closers, fmt.Errorf("llm provider %q has no embeddings API; configure [llm] with openai, gemini or ollama", cfg.LLM.Provider)
	}
	return &clients, closers, nil
}

// New connects to Neo4j, builds the LLM clients and wires the ingestion and query paths.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	d, err := driver.NewNeo4jDriver(ctx, cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, cfg.Neo4j.Database)
	if err != nil {
		return nil, err
	}

	clients, closers, err := NewClients(ctx, cfg)
	if err != nil {
		closeAll(closers)
		_ = d.Close(ctx)
		return nil, err
	}

	a, err := Build(ctx, cfg, d, clients)
	if err != nil {
		closeAll(closers)
		_ = d.Close(ctx)
		return nil, err
	}
	a.closers = append(a.closers, closers...)
	return a, nil
}

// Build wires the application around an already connected driver and clients.
func Build(ctx context.Context, cfg *config.Config, d driver.GraphDriver, clients *Clients) (*App, error) {
	p, err := parser.New(cfg.Parser)
	if err != nil {
		return nil, err
	}

	if err := d.BuildIndices(ctx); err != nil {
		return nil, fmt.Errorf("failed to build indices: %w", err)
	}

	processor := processing.NewProcessor(
		p,
		chunking.NewBuilder(cfg.Chunking),
		extraction.NewExtractor(clients.Extraction, cfg.Prompts.Extraction, cfg.Extraction.BatchSize),
		ingest.NewIngestor(d, clients.Embedder),
	)

	var reranker llm.RerankerClient
	if cfg.Retrieval.Rerank {
		reranker = llm.NewSimpleLLMReranker(clients.Synthesis)
	}
	service := retrieval.NewService(
		retrieval.NewRouter(clients.Router, cfg.Prompts.Router),
		retrieval.NewRetriever(d, clients.Embedder, reranker, cfg.Retrieval.TopK),
		retrieval.NewSynthesizer(clients.Synthesis, cfg.Prompts.Synthesis),
	)

	store, err := newJobStore(ctx, cfg.Jobs)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:    cfg,
		Driver:    d,
		Processor: processor,
		Retrieval: service,
		Jobs:      jobs.NewQueue(store, processor.HandleJob, cfg.Jobs.Workers, cfg.Jobs.QueueSize),
		jobStore:  store,
	}, nil
}

func newJobStore(ctx context.Context, cfg config.JobsConfig) (jobs.Store, error) {
	switch cfg.Store {
	case "sqlite":
		return jobs.OpenSQLiteStore(ctx, cfg.SQLitePath)
	case "", "memory":
		return jobs.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported job store: %s", cfg.Store)
	}
}

// EnsureUploadDir creates the directory uploaded files are staged in.
func (a *App) EnsureUploadDir() error {
	return os.MkdirAll(a.Config.Server.UploadDir, 0o755)
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.jobStore != nil {
		errs = append(errs, a.jobStore.Close())
	}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	if a.Driver != nil {
		errs = append(errs, a.Driver.Close(ctx))
	}
	return errors.Join(errs...)
}

func closeAll(closers []func() error) {
	for _, c := range closers {
		_ = c()
	}
}
