package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/cardgraph/internal/config"
)

const defaultOllamaEmbeddingModel = "nomic-embed-text"

// NewEmbedder builds the embedding client named by cfg.Provider. It returns nil
// without error when embeddings are disabled.
func NewEmbedder(ctx context.Context, cfg config.LLMConfig) (EmbedderClient, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch provider {
	case "", "none":
		return nil, nil

	case "openai":
		return NewOpenAIEmbedder(cfg.APIKey, cfg.EmbeddingModel, cfg.BaseURL), nil

	case "gemini":
		g, err := NewGeminiEmbedder(ctx, cfg.APIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, err
		}
		return g, nil

	case "ollama":
		// Ollama serves the OpenAI embeddings API under /v1 and ignores the key.
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		model := cfg.EmbeddingModel
		if model == "" {
			model = defaultOllamaEmbeddingModel
		}
		return NewOpenAIEmbedder(apiKey, model, baseURL), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
