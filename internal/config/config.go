package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type PromptsConfig struct {
	Extraction string `toml:"extraction"`
	Router     string `toml:"router"`
	Synthesis  string `toml:"synthesis"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	JSONMode       bool   `toml:"json_mode"`
	MaxTokens      int    `toml:"max_tokens"`
}

// Merge returns c with every non-empty field of override applied on top.
func (c LLMConfig) Merge(override LLMConfig) LLMConfig {
	out := c
	if override.Provider != "" {
		out.Provider = override.Provider
		// A different backend must not inherit credentials meant for another one.
		if !strings.EqualFold(override.Provider, c.Provider) {
			out.APIKey = ""
			out.BaseURL = ""
		}
	}
	if override.Model != "" {
		out.Model = override.Model
	}
	if override.EmbeddingModel != "" {
		out.EmbeddingModel = override.EmbeddingModel
	}
	if override.APIKey != "" {
		out.APIKey = override.APIKey
	}
	if override.BaseURL != "" {
		out.BaseURL = override.BaseURL
	}
	if override.MaxTokens > 0 {
		out.MaxTokens = override.MaxTokens
	}
	out.JSONMode = c.JSONMode || override.JSONMode
	return out
}

// LLMRoles holds per-role overrides of the default [llm] section.
type LLMRoles struct {
	LLMConfig
	Extraction LLMConfig `toml:"extraction"`
	Router     LLMConfig `toml:"router"`
	Synthesis  LLMConfig `toml:"synthesis"`
}

type Neo4jConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

type ServerConfig struct {
	Port        string `toml:"port"`
	APIToken    string `toml:"api_token"`
	UploadDir   string `toml:"upload_dir"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

type ParserConfig struct {
	Provider       string `toml:"provider"`
	LlamaAPIKey    string `toml:"llama_cloud_api_key"`
	BaseURL        string `toml:"base_url"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
	TimeoutS       int    `toml:"timeout_s"`
}

type ChunkingConfig struct {
	ParentSize    int `toml:"parent_size"`
	ParentOverlap int `toml:"parent_overlap"`
	ChildSize     int `toml:"child_size"`
	ChildOverlap  int `toml:"child_overlap"`
}

type ExtractionConfig struct {
	BatchSize int `toml:"batch_size"`
}

type RetrievalConfig struct {
	TopK   int  `toml:"top_k"`
	Rerank bool `toml:"rerank"`
}

type JobsConfig struct {
	Workers    int    `toml:"workers"`
	QueueSize  int    `toml:"queue_size"`
	Store      string `toml:"store"`
	SQLitePath string `toml:"sqlite_path"`
}

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Neo4j      Neo4jConfig      `toml:"neo4j"`
	LLM        LLMRoles         `toml:"llm"`
	Parser     ParserConfig     `toml:"parser"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Extraction ExtractionConfig `toml:"extraction"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Jobs       JobsConfig       `toml:"jobs"`
	Prompts    PromptsConfig    `toml:"prompts"`
}

// ExtractionLLM, RouterLLM and SynthesisLLM resolve the effective settings of each role.
func (c *Config) ExtractionLLM() LLMConfig { return c.LLM.LLMConfig.Merge(c.LLM.Extraction) }
func (c *Config) RouterLLM() LLMConfig     { return c.LLM.LLMConfig.Merge(c.LLM.Router) }
func (c *Config) SynthesisLLM() LLMConfig  { return c.LLM.LLMConfig.Merge(c.LLM.Synthesis) }

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults reads path (a missing file is not an error), applies defaults and
// environment overrides, and validates the result.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}
	ApplyDefaults(cfg)
	ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "temp_downloads"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 50
	}
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = "bolt://localhost:7687"
	}
	if cfg.Neo4j.User == "" {
		cfg.Neo4j.User = "neo4j"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
		cfg.LLM.Model = "llama3"
		cfg.LLM.EmbeddingModel = "nomic-embed-text"
		cfg.LLM.BaseURL = "http://localhost:11434"
	}
	if cfg.Parser.Provider == "" {
		cfg.Parser.Provider = "local"
	}
	if cfg.Parser.BaseURL == "" {
		cfg.Parser.BaseURL = "https://api.cloud.llamaindex.ai"
	}
	if cfg.Parser.PollIntervalMS == 0 {
		cfg.Parser.PollIntervalMS = 2000
	}
	if cfg.Parser.TimeoutS == 0 {
		cfg.Parser.TimeoutS = 300
	}
	if cfg.Chunking.ParentSize == 0 {
		cfg.Chunking.ParentSize = 1024
	}
	if cfg.Chunking.ParentOverlap == 0 {
		cfg.Chunking.ParentOverlap = 128
	}
	if cfg.Chunking.ChildSize == 0 {
		cfg.Chunking.ChildSize = 400
	}
	if cfg.Chunking.ChildOverlap == 0 {
		cfg.Chunking.ChildOverlap = 100
	}
	if cfg.Extraction.BatchSize == 0 {
		cfg.Extraction.BatchSize = 5
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Jobs.Workers == 0 {
		cfg.Jobs.Workers = 2
	}
	if cfg.Jobs.QueueSize == 0 {
		cfg.Jobs.QueueSize = 64
	}
	if cfg.Jobs.Store == "" {
		cfg.Jobs.Store = "memory"
	}
	if cfg.Jobs.SQLitePath == "" {
		cfg.Jobs.SQLitePath = "jobs.db"
	}
}

// ApplyEnv overrides config values with environment variables when they are set.
func ApplyEnv(cfg *Config) {
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.APIToken, "API_TOKEN")
	setString(&cfg.Neo4j.URI, "NEO4J_URI")
	setString(&cfg.Neo4j.User, "NEO4J_USERNAME", "NEO4J_USER")
	setString(&cfg.Neo4j.Password, "NEO4J_PASSWORD")
	setString(&cfg.Neo4j.Database, "NEO4J_DATABASE")
	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.LLM.EmbeddingModel, "LLM_EMBEDDING_MODEL")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.Parser.LlamaAPIKey, "LLAMA_CLOUD_API_KEY")
	setString(&cfg.Jobs.SQLitePath, "JOBS_DB_PATH")

	// Gemini keys are commonly provided under their own name.
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		for _, role := range []*LLMConfig{&cfg.LLM.LLMConfig, &cfg.LLM.Extraction, &cfg.LLM.Router, &cfg.LLM.Synthesis} {
			if strings.EqualFold(role.Provider, "gemini") && role.APIKey == "" {
				role.APIKey = key
			}
		}
	}

	if v := os.Getenv("JOBS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Jobs.Workers = n
		}
	}
	if cfg.Parser.LlamaAPIKey != "" && cfg.Parser.Provider == "local" && os.Getenv("PARSER_PROVIDER") == "" {
		cfg.Parser.Provider = "llamaparse"
	}
	setString(&cfg.Parser.Provider, "PARSER_PROVIDER")
}

func (c *Config) Validate() error {
	var errs []error
	if c.Chunking.ParentOverlap >= c.Chunking.ParentSize {
		errs = append(errs, fmt.Errorf("chunking: parent_overlap (%d) must be smaller than parent_size (%d)", c.Chunking.ParentOverlap, c.Chunking.ParentSize))
	}
	if c.Chunking.ChildOverlap >= c.Chunking.ChildSize {
		errs = append(errs, fmt.Errorf("chunking: child_overlap (%d) must be smaller than child_size (%d)", c.Chunking.ChildOverlap, c.Chunking.ChildSize))
	}
	if c.Extraction.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("extraction: batch_size must be positive"))
	}
	if c.Retrieval.TopK < 1 {
		errs = append(errs, fmt.Errorf("retrieval: top_k must be positive"))
	}
	switch c.Jobs.Store {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("jobs: unsupported store %q", c.Jobs.Store))
	}
	switch c.Parser.Provider {
	case "local":
	case "llamaparse":
		if c.Parser.LlamaAPIKey == "" {
			errs = append(errs, fmt.Errorf("parser: llamaparse requires llama_cloud_api_key"))
		}
	default:
		errs = append(errs, fmt.Errorf("parser: unsupported provider %q", c.Parser.Provider))
	}
	return errors.Join(errs...)
}
