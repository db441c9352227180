package summary

import (
	"context"
)

type MockLLMClient struct {
	Response string
	Err      error
	Prompts  []string
}

func (m *MockLLMClient) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	m.Prompts = append(m.Prompts, userMessage)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
