package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agenthands/eventgov/internal/core/model"
)

// DefaultSeeds is the stable vocabulary a fresh store starts with.
func DefaultSeeds() []model.TaxonomyTag {
	seed := func(id string, d model.Dimension, name, def string) model.TaxonomyTag {
		return model.TaxonomyTag{ID: id, Dimension: d, Name: name, Definition: def, Status: model.StatusStable}
	}
	return []model.TaxonomyTag{
		seed("act_visit", model.DimensionActionType, "走访", "实地拜访学校"),
		seed("act_call", model.DimensionActionType, "电话沟通", "电话联系客户"),
		seed("act_demo", model.DimensionActionType, "演示", "产品演示/培训"),
		seed("act_pilot", model.DimensionActionType, "试点", "试用/试点部署"),
		seed("act_collect", model.DimensionActionType, "回收", "物料回收/订单收集"),

		seed("blk_busy", model.DimensionBlocker, "期末繁忙", "学校期末考试/事务繁忙"),
		seed("blk_budget", model.DimensionBlocker, "预算不足", "经费/预算限制"),
		seed("blk_approval", model.DimensionBlocker, "领导审批", "需校长/领导审批"),
		seed("blk_policy", model.DimensionBlocker, "政策限制", "教育局/政策相关阻力"),

		seed("out_agreed", model.DimensionOutcome, "同意推进", "对方同意继续推进"),
		seed("out_rejected", model.DimensionOutcome, "拒绝", "明确拒绝合作"),
		seed("out_pending", model.DimensionOutcome, "待定", "需要等待/下学期再议"),
		seed("out_scheduled", model.DimensionOutcome, "已约时间", "已约定下次沟通时间"),
	}
}

type seedFile struct {
	Tags []model.TaxonomyTag `yaml:"tags"`
}

// LoadSeed reads a YAML seed vocabulary. Entries default to stable.
func LoadSeed(path string) ([]model.TaxonomyTag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) ([]model.TaxonomyTag, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i := range f.Tags {
		t := &f.Tags[i]
		if !t.Dimension.Valid() {
			return nil, fmt.Errorf("seed tag %q: unknown dimension %q", t.Name, t.Dimension)
		}
		if t.Name == "" {
			return nil, fmt.Errorf("seed tag %d in %s has no name", i, t.Dimension)
		}
		if t.Status == "" {
			t.Status = model.StatusStable
		}
	}
	return f.Tags, nil
}
