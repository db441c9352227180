package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agenthands/eventgov/internal/core/model"
)

func TestPromptVariants(t *testing.T) {
	p := NewPromptBuilder("业务知识", "")
	stable := []model.TaxonomyTag{
		{Dimension: model.DimensionOutcome, Name: "拒绝", Definition: "客户明确拒绝", Status: model.StatusStable},
		{Dimension: model.DimensionActionType, Name: "走访", Definition: "上门拜访", Status: model.StatusStable},
		{Dimension: model.DimensionActionType, Name: "上门回访", Status: model.StatusCandidate},
	}

	a := p.System(stable, VariantA)
	b := p.System(stable, VariantB)

	assert.Contains(t, a, "商业事件分析员")
	assert.Contains(t, a, "置信度评分")
	assert.Contains(t, b, "销售日报结构化专家")
	assert.Contains(t, b, "确信度打分")
	assert.NotContains(t, b, "商业事件分析员")

	for _, prompt := range []string{a, b} {
		assert.Contains(t, prompt, "业务知识")
		assert.Contains(t, prompt, "- **走访**: 上门拜访")
		assert.NotContains(t, prompt, "上门回访")
		assert.Contains(t, prompt, `"outcome_conf"`)
	}

	assert.Equal(t, a, p.System(stable, VariantA), "prompt must be deterministic")
}

func TestRenderTaxonomyOrder(t *testing.T) {
	out := RenderTaxonomy([]model.TaxonomyTag{
		{Dimension: model.DimensionOutcome, Name: "待定", Status: model.StatusStable},
		{Dimension: model.DimensionActionType, Name: "演示", Status: model.StatusStable},
		{Dimension: model.DimensionActionType, Name: "电话沟通", Status: model.StatusStable},
	})

	action := strings.Index(out, "### action_type")
	outcome := strings.Index(out, "### outcome")
	assert.True(t, action >= 0 && outcome > action)
	assert.NotContains(t, out, "### blocker")
	assert.Empty(t, RenderTaxonomy(nil))
}
