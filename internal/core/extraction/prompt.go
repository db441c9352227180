package extraction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agenthands/eventgov/internal/core/model"
)

// Variant selects the phrasing of the extraction prompt. The two variants
// request the same schema; they differ only in role framing and wording so
// that agreement between runs says something about extraction stability.
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

const promptTemplate = `你是一个专业的商业事件分析员。请从日报中提取结构化的商业事件。

## 业务背景
%s

## 已有标签体系（请优先使用）
%s

## 提取规则
1. 将日报拆解为独立事件，每个「学校×产品」的互动是一个事件
2. 必须给出置信度评分（0-1），反映你对该字段的确信程度
3. 引用原文片段作为证据

## 输出格式（JSON数组）
[
  {
    "raw_span": "原文片段（完整引用）",
    "school_raw": "原始学校名",
    "school_norm": "规范学校名（如能确定）",
    "school_conf": 0.95,
    "product_raw": "原始产品名",
    "product_norm": "规范产品名",
    "product_conf": 0.90,
    "action_type": "动作类型标签",
    "action_type_conf": 0.85,
    "blocker": "阻碍原因（可为空）",
    "blocker_conf": 0.80,
    "outcome": "结果标签",
    "outcome_conf": 0.75,
    "event_conf": 0.85
  }
]

只返回JSON，不要Markdown格式。`

var variantB = strings.NewReplacer(
	"商业事件分析员", "销售日报结构化专家",
	"置信度评分", "确信度打分",
)

// PromptBuilder renders system prompts. Its output is a pure function of
// the business knowledge, the stable taxonomy snapshot and the variant.
type PromptBuilder struct {
	BusinessKnowledge string
	UserPrefix        string
}

func NewPromptBuilder(businessKnowledge, userPrefix string) *PromptBuilder {
	return &PromptBuilder{BusinessKnowledge: businessKnowledge, UserPrefix: userPrefix}
}

// System builds the system prompt for one variant.
func (p *PromptBuilder) System(stable []model.TaxonomyTag, v Variant) string {
	prompt := fmt.Sprintf(promptTemplate, strings.TrimSpace(p.BusinessKnowledge), RenderTaxonomy(stable))
	if v == VariantB {
		prompt = variantB.Replace(prompt)
	}
	return prompt
}

// User wraps the document text into the user message.
func (p *PromptBuilder) User(content string) string {
	return p.UserPrefix + content
}

// RenderTaxonomy lists stable tags per dimension as markdown. Only stable
// tags are rendered; tags are sorted by name so the prompt is deterministic.
func RenderTaxonomy(tags []model.TaxonomyTag) string {
	byDim := make(map[model.Dimension][]model.TaxonomyTag)
	for _, t := range tags {
		if t.Status != model.StatusStable {
			continue
		}
		byDim[t.Dimension] = append(byDim[t.Dimension], t)
	}

	var sb strings.Builder
	for _, d := range model.Dimensions() {
		list := byDim[d]
		if len(list) == 0 {
			continue
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		fmt.Fprintf(&sb, "\n### %s\n", d)
		for _, t := range list {
			fmt.Fprintf(&sb, "- **%s**: %s\n", t.Name, t.Definition)
		}
	}
	return sb.String()
}
