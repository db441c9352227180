package community

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/eventgov/internal/core/model"
)

func sorted(clusters [][]string) [][]string {
	for _, c := range clusters {
		sort.Strings(c)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i][0] < clusters[j][0] })
	return clusters
}

func TestComponents(t *testing.T) {
	nodes := []string{"a", "b", "c", "d", "e"}
	edges := []Edge{{"a", "b", 1}, {"b", "c", 1}, {"d", "x", 1}}

	got := sorted(Components{}.Detect(nodes, edges))

	assert.Equal(t, [][]string{{"a", "b", "c"}}, got)
}

func TestLabelPropagation_TwoCliques(t *testing.T) {
	nodes := []string{"a1", "a2", "a3", "b1", "b2", "b3"}
	edges := []Edge{
		{"a1", "a2", 1}, {"a2", "a3", 1}, {"a1", "a3", 1},
		{"b1", "b2", 1}, {"b2", "b3", 1}, {"b1", "b3", 1},
		{"a3", "b1", 0.1},
	}

	got := sorted(NewLabelPropagation().Detect(nodes, edges))

	require.Len(t, got, 2)
	assert.Equal(t, []string{"a1", "a2", "a3"}, got[0])
	assert.Equal(t, []string{"b1", "b2", "b3"}, got[1])
}

func TestLabelPropagation_Empty(t *testing.T) {
	assert.Nil(t, NewLabelPropagation().Detect(nil, nil))
	assert.Empty(t, NewLabelPropagation().Detect([]string{"lonely"}, nil))
}

func TestGroup(t *testing.T) {
	suggestions := []model.MergeSuggestion{
		{Dimension: model.DimensionActionType, Tag: "上门走访", Target: "走访", Similarity: 0.9},
		{Dimension: model.DimensionActionType, Tag: "走访学校", Target: "走访", Similarity: 0.9},
		{Dimension: model.DimensionOutcome, Tag: "再议", Target: "下学期再议", Similarity: 0.9},
	}

	groups := Group(suggestions, Components{})

	require.Len(t, groups, 2)
	assert.Equal(t, model.DimensionActionType, groups[0].Dimension)
	assert.Equal(t, "走访", groups[0].Anchor)
	assert.ElementsMatch(t, []string{"上门走访", "走访学校", "走访"}, groups[0].Tags)
	assert.Equal(t, "下学期再议", groups[1].Anchor)
}
