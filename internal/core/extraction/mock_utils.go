package extraction

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// MockLLMClient replays scripted answers. Each call consumes the next
// Reply; once the script is exhausted Fallback is returned.
type MockLLMClient struct {
	mu       sync.Mutex
	Replies  []MockReply
	Fallback MockReply
	// ByVariant, when set, routes calls by the prompt wording instead of
	// call order. The last reply of each queue repeats.
	ByVariant map[Variant][]MockReply
	Calls     []MockCall
}

type MockReply struct {
	Response string
	Err      error
}

type MockCall struct {
	SystemPrompt string
	UserMessage  string
}

var ErrMockExhausted = errors.New("mock: no scripted reply")

func (m *MockLLMClient) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{SystemPrompt: systemPrompt, UserMessage: userMessage})

	if m.ByVariant != nil {
		v := VariantA
		if strings.Contains(systemPrompt, "销售日报结构化专家") {
			v = VariantB
		}
		queue := m.ByVariant[v]
		if len(queue) == 0 {
			return m.Fallback.Response, m.fallbackErr()
		}
		r := queue[0]
		if len(queue) > 1 {
			m.ByVariant[v] = queue[1:]
		}
		return r.Response, r.Err
	}

	if len(m.Replies) == 0 {
		return m.Fallback.Response, m.fallbackErr()
	}
	r := m.Replies[0]
	m.Replies = m.Replies[1:]
	return r.Response, r.Err
}

func (m *MockLLMClient) fallbackErr() error {
	if m.Fallback.Err == nil && m.Fallback.Response == "" {
		return ErrMockExhausted
	}
	return m.Fallback.Err
}

// CallCount is safe to use while calls are in flight.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
