package llm

import (
	"context"
)

// LLMClient is the transport to the extraction oracle: one system prompt,
// one user message, one text answer.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// GenerationOptions are the sampling settings shared by every provider.
type GenerationOptions struct {
	Temperature float32
	MaxTokens   int
}

// DisabledClient stands in when no credentials are configured. It answers
// every request with an empty JSON array so a batch degrades to "no events"
// instead of failing.
type DisabledClient struct {
	Reason string
}

func (c *DisabledClient) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	return "[]", nil
}
