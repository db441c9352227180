package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/eventgov/internal/config"
)

func TestNewClientProviders(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		provider string
		want     interface{}
	}{
		{"openai", &OpenAIClient{}},
		{"ark", &OpenAIClient{}},
		{"Claude", &ClaudeClient{}},
		{"ollama", &OpenAIClient{}},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			c, err := NewClient(ctx, config.LLMConfig{Provider: tt.provider, Model: "m", APIKey: "k"})
			require.NoError(t, err)
			assert.IsType(t, tt.want, c)
		})
	}
}

func TestNewClientWithoutKeyIsDisabled(t *testing.T) {
	c, err := NewClient(context.Background(), config.LLMConfig{Provider: "openai", Model: "m"})
	require.NoError(t, err)
	require.IsType(t, &DisabledClient{}, c)

	out, err := c.Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestNewClientOllamaNeedsNoKey(t *testing.T) {
	c, err := NewClient(context.Background(), config.LLMConfig{Provider: "ollama", Model: "qwen2.5"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), config.LLMConfig{Provider: "nope", APIKey: "k"})
	assert.Error(t, err)
}
