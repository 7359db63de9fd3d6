package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/agenthands/docintel/internal/config"
)

// NewClient builds the generation and embedding clients for one resolved role.
// The embedder is nil for providers without an embeddings API.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, EmbedderClient, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "openai":
		c := NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.EmbeddingModel, cfg.BaseURL).
			WithJSONMode(cfg.JSONMode).
			WithMaxTokens(cfg.MaxTokens)
		return c, c, nil

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		c.WithJSONMode(cfg.JSONMode)
		return c, c, nil

	case "claude":
		c := NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens)
		return c, nil, nil

	case "ollama":
		baseURL := OllamaBaseURL(cfg.BaseURL)
		log.Printf("Initializing Ollama via OpenAI-compatible API at %s", baseURL)

		// Ollama ignores the key but the client requires one.
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}

		c := NewOpenAIClient(apiKey, cfg.Model, cfg.EmbeddingModel, baseURL).
			WithJSONMode(cfg.JSONMode).
			WithMaxTokens(cfg.MaxTokens)
		return c, c, nil

	default:
		return nil, nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// OllamaBaseURL points a bare Ollama address at its OpenAI-compatible /v1 API.
func OllamaBaseURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if strings.HasSuffix(baseURL, "/v1") {
		return baseURL
	}
	return fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
}
