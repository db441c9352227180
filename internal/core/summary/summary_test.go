package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/eventgov/internal/core/model"
)

type mockStore struct {
	examples    map[string][]string
	definitions map[string]string
}

func (m *mockStore) TagExamples(ctx context.Context, d model.Dimension, name string, limit int) ([]string, error) {
	return m.examples[name], nil
}

func (m *mockStore) SetTagDefinition(ctx context.Context, id, definition string) error {
	if m.definitions == nil {
		m.definitions = make(map[string]string)
	}
	m.definitions[id] = definition
	return nil
}

var tag = model.TaxonomyTag{ID: "act_1", Dimension: model.DimensionActionType, Name: "上门回访"}

func TestDraftDefinition(t *testing.T) {
	client := &MockLLMClient{Response: "```json\n{\"definition\": \"对已拜访学校再次上门跟进\"}\n```"}
	s := NewSummarizer(client, nil)

	def, err := s.DraftDefinition(context.Background(), tag, []string{"下午上门回访XX一中", "再次上门回访实验小学"})

	require.NoError(t, err)
	assert.Equal(t, "对已拜访学校再次上门跟进", def)
	require.Len(t, client.Prompts, 1)
	assert.Contains(t, client.Prompts[0], "标签：上门回访")
	assert.Contains(t, client.Prompts[0], "- 下午上门回访XX一中")
}

func TestDraftDefinition_PlainAnswer(t *testing.T) {
	s := NewSummarizer(&MockLLMClient{Response: "对已拜访学校的二次拜访"}, nil)

	def, err := s.DraftDefinition(context.Background(), tag, nil)

	require.NoError(t, err)
	assert.Equal(t, "对已拜访学校的二次拜访", def)
}

func TestFillDefinitions(t *testing.T) {
	store := &mockStore{examples: map[string][]string{"上门回访": {"上门回访XX一中"}}}
	s := NewSummarizer(&MockLLMClient{Response: `{"definition": "二次拜访"}`}, nil)

	tags := []model.TaxonomyTag{
		tag,
		{ID: "act_visit", Dimension: model.DimensionActionType, Name: "走访", Definition: "实地拜访学校"},
	}
	n, err := s.FillDefinitions(context.Background(), store, tags)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, map[string]string{"act_1": "二次拜访"}, store.definitions)
}

func TestFillDefinitions_OracleFailureIsSkipped(t *testing.T) {
	store := &mockStore{}
	s := NewSummarizer(&MockLLMClient{Err: errors.New("quota exceeded")}, nil)

	n, err := s.FillDefinitions(context.Background(), store, []model.TaxonomyTag{tag})

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.definitions)
}
