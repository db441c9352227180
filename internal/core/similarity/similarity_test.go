package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	s := Default()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "走访", "走访", 1},
		{"identical after trim and case", "  Demo ", "demo", 1},
		{"containment", "一中", "XX第一中学", 0.9},
		{"containment reversed", "XX第一中学", "一中", 0.9},
		{"jaccard", "上门回访", "回收", 0.2},
		{"disjoint", "abc", "xyz", 0},
		{"both empty", "", "  ", 0},
		{"one empty", "走访", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScoreProperties(t *testing.T) {
	s := Default()
	words := []string{"走访", "上门走访", "电话沟通", "电话回访", "期末繁忙", "abc", "ABD", "预算不足", "x"}

	for _, a := range words {
		assert.Equal(t, 1.0, s.Score(a, a), "self similarity of %q", a)
		for _, b := range words {
			ab := s.Score(a, b)
			assert.Equal(t, ab, s.Score(b, a), "symmetry of %q/%q", a, b)
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	}
}

func TestJaccardCountsRunesNotBytes(t *testing.T) {
	// 3 shared of 5 distinct characters.
	assert.InDelta(t, 0.6, Jaccard("电话沟通", "电话通"+"知"), 1e-9)
}

func TestFuncAdapter(t *testing.T) {
	var s Strategy = Func(func(a, b string) float64 { return 0.75 })
	assert.Equal(t, 0.75, s.Score("上门回访", "走访"))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("XX一中", "xx一中学"))
	assert.False(t, Contains("", "XX一中"))
	assert.False(t, Contains("一中", "二中"))
}
