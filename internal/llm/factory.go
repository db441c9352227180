package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/eventgov/internal/config"
)

const (
	arkBaseURL    = "https://ark.cn-beijing.volces.com/api/v3"
	ollamaBaseURL = "http://localhost:11434"
)

// NewClient builds the oracle transport for cfg.Provider. Providers that need
// an API key fall back to a DisabledClient when none is configured.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	provider := strings.ToLower(cfg.Provider)
	opts := GenerationOptions{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}

	if cfg.APIKey == "" && provider != "ollama" {
		return &DisabledClient{Reason: fmt.Sprintf("no API key configured for provider %q", provider)}, nil
	}

	switch provider {
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, opts), nil

	case "ark", "volcengine":
		// Ark speaks the OpenAI chat completions protocol; the model is the endpoint id.
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = arkBaseURL
		}
		return NewOpenAIClient(cfg.APIKey, cfg.Model, baseURL, opts), nil

	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, opts)

	case "claude", "anthropic":
		return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL, opts), nil

	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = ollamaBaseURL
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		// Ollama ignores the key but the client requires one.
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, cfg.Model, baseURL, opts), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
