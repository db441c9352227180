package taxonomy

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/core/policy"
	"github.com/agenthands/eventgov/internal/core/similarity"
	"github.com/agenthands/eventgov/internal/store"
)

// fakeStore serves fixed statistics so promotion rules can be tested in isolation.
type fakeStore struct {
	tags        []model.TaxonomyTag
	stats       map[string]model.TagStats
	suggestions []model.MergeSuggestion
	since7      string
}

func (f *fakeStore) ListTags(ctx context.Context, filter model.TagFilter) ([]model.TaxonomyTag, error) {
	var out []model.TaxonomyTag
	for _, t := range f.tags {
		if filter.Dimension != "" && t.Dimension != filter.Dimension {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) TagStats(ctx context.Context, d model.Dimension, name, since7, since30 string) (model.TagStats, error) {
	f.since7 = since7
	return f.stats[name], nil
}

func (f *fakeStore) UpdateTagStats(ctx context.Context, id string, stats model.TagStats) error {
	for i := range f.tags {
		if f.tags[i].ID == id {
			f.tags[i].Freq7d = stats.Freq7d
			f.tags[i].DistinctSchools = stats.DistinctSchools
			f.tags[i].ConsistencyRate = stats.ConsistencyRate
		}
	}
	return nil
}

func (f *fakeStore) PromoteTag(ctx context.Context, id string, at time.Time) (bool, error) {
	for i := range f.tags {
		if f.tags[i].ID == id && f.tags[i].Status == model.StatusCandidate {
			f.tags[i].Status = model.StatusStable
			f.tags[i].PromotedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) RecordSuggestion(ctx context.Context, s model.MergeSuggestion) error {
	f.suggestions = append(f.suggestions, s)
	return nil
}

func (f *fakeStore) status(name string) model.LifecycleStatus {
	for _, t := range f.tags {
		if t.Name == name {
			return t.Status
		}
	}
	return ""
}

var fixedNow = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

func newEngine(s Store, sim similarity.Strategy) *Engine {
	e := NewEngine(s, sim, policy.Default(), nil)
	e.Now = func() time.Time { return fixedNow }
	return e
}

func scenarioStore() *fakeStore {
	return &fakeStore{
		tags: []model.TaxonomyTag{
			{ID: "act_visit", Dimension: model.DimensionActionType, Name: "走访", Status: model.StatusStable},
			{ID: "act_x", Dimension: model.DimensionActionType, Name: "上门回访", Status: model.StatusCandidate},
		},
		stats: map[string]model.TagStats{
			"上门回访": {Freq7d: 6, Freq30d: 6, DistinctSchools: 4, ConsistencyRate: 0.85},
		},
	}
}

func TestPromote_ScenarioPromoted(t *testing.T) {
	fs := scenarioStore()
	e := newEngine(fs, similarity.Default())

	report, err := e.Promote(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Promoted, 1)
	assert.Equal(t, "上门回访", report.Promoted[0].Tag.Name)
	assert.Empty(t, report.Rejected)
	assert.Equal(t, model.StatusStable, fs.status("上门回访"))
	assert.Empty(t, fs.suggestions)
	assert.Equal(t, "2025-06-03", fs.since7)
}

func TestPromote_ScenarioRejectedAsNearDuplicate(t *testing.T) {
	fs := scenarioStore()
	sim := similarity.Func(func(a, b string) float64 {
		if (a == "上门回访" && b == "走访") || (a == "走访" && b == "上门回访") {
			return 0.75
		}
		return 0
	})
	e := newEngine(fs, sim)

	report, err := e.Promote(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Promoted)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "走访", report.Rejected[0].Collision)
	assert.InDelta(t, 0.75, report.Rejected[0].Similarity, 1e-9)
	assert.Equal(t, model.StatusCandidate, fs.status("上门回访"))

	require.Len(t, fs.suggestions, 1)
	assert.Equal(t, model.MergeSuggestion{
		Dimension: model.DimensionActionType, Tag: "上门回访", Target: "走访",
		Similarity: 0.75, Source: model.SuggestionFromPromotion, CreatedAt: fixedNow,
	}, fs.suggestions[0])
}

func TestPromote_ThresholdsMustAllHold(t *testing.T) {
	cases := map[string]model.TagStats{
		"low frequency":   {Freq7d: 4, DistinctSchools: 4, ConsistencyRate: 0.9},
		"few schools":     {Freq7d: 6, DistinctSchools: 2, ConsistencyRate: 0.9},
		"low consistency": {Freq7d: 6, DistinctSchools: 4, ConsistencyRate: 0.79},
	}
	for name, stats := range cases {
		t.Run(name, func(t *testing.T) {
			fs := scenarioStore()
			fs.stats["上门回访"] = stats
			report, err := newEngine(fs, similarity.Default()).Promote(context.Background())
			require.NoError(t, err)
			assert.Zero(t, report.Evaluated)
			assert.Equal(t, model.StatusCandidate, fs.status("上门回访"))
		})
	}
}

func TestPromote_SamePassCollision(t *testing.T) {
	good := model.TagStats{Freq7d: 9, DistinctSchools: 5, ConsistencyRate: 1}
	fs := &fakeStore{
		tags: []model.TaxonomyTag{
			{ID: "b1", Dimension: model.DimensionBlocker, Name: "经费紧张", Status: model.StatusCandidate},
			{ID: "b2", Dimension: model.DimensionBlocker, Name: "经费紧张问题", Status: model.StatusCandidate},
		},
		stats: map[string]model.TagStats{"经费紧张": good, "经费紧张问题": good},
	}

	report, err := newEngine(fs, similarity.Default()).Promote(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Promoted, 1)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "经费紧张", report.Rejected[0].Collision)
}

func TestSuggestMerges_DoesNotMutate(t *testing.T) {
	fs := &fakeStore{tags: []model.TaxonomyTag{
		{ID: "1", Dimension: model.DimensionActionType, Name: "走访", Status: model.StatusStable},
		{ID: "2", Dimension: model.DimensionActionType, Name: "走访学校", Status: model.StatusCandidate},
		{ID: "3", Dimension: model.DimensionActionType, Name: "走访客户", Status: model.StatusStable},
		{ID: "4", Dimension: model.DimensionOutcome, Name: "走访", Status: model.StatusCandidate},
	}}
	before := append([]model.TaxonomyTag(nil), fs.tags...)

	got, err := newEngine(fs, similarity.Default()).SuggestMerges(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before, fs.tags)
	assert.Empty(t, fs.suggestions)

	// 走访/走访客户 are both stable and are skipped; the outcome tag is in
	// another dimension.
	require.Len(t, got, 1)
	assert.Equal(t, "走访学校", got[0].Tag)
	assert.Equal(t, "走访", got[0].Target)
	assert.Equal(t, model.SuggestionFromScan, got[0].Source)
	assert.InDelta(t, 0.9, got[0].Similarity, 1e-9)
}

func TestCandidateSummary(t *testing.T) {
	fs := &fakeStore{tags: []model.TaxonomyTag{
		{ID: "1", Dimension: model.DimensionBlocker, Name: "经费", Status: model.StatusCandidate, Freq7d: 6, DistinctSchools: 3},
		{ID: "2", Dimension: model.DimensionBlocker, Name: "人事变动", Status: model.StatusCandidate, Freq7d: 2, DistinctSchools: 1},
		{ID: "3", Dimension: model.DimensionBlocker, Name: "预算不足", Status: model.StatusStable},
	}}

	summary, err := newEngine(fs, nil).CandidateSummary(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, summary[model.DimensionBlocker], 2)
	assert.True(t, summary[model.DimensionBlocker][0].NearPromotable)
	assert.False(t, summary[model.DimensionBlocker][1].NearPromotable)
	assert.Empty(t, summary[model.DimensionOutcome])
}

// The remaining tests run against the SQLite store.

func newSQLiteStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "taxonomy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	_, err = s.SeedTags(context.Background(), DefaultSeeds())
	require.NoError(t, err)
	return s
}

func persistTagged(t *testing.T, s *store.Store, dim model.Dimension, tag string, n, schools int, status model.ConsistencyStatus) {
	t.Helper()
	var events []model.Event
	for i := 0; i < n; i++ {
		ev := model.Event{
			DocumentID: fmt.Sprintf("doc-%s-%d", tag, i),
			RawSpan:    fmt.Sprintf("%s #%d", tag, i),
			School:     model.EntityName{Canonical: fmt.Sprintf("学校%d", i%schools)},
			Confidence: 0.9,
			Status:     status,
			OccurredOn: fixedNow.AddDate(0, 0, -1).Format("2006-01-02"),
		}
		ev.Tags.Set(dim, model.TagValue{Name: tag, Confidence: 0.9})
		events = append(events, ev)
	}
	_, err := s.PersistDocument(context.Background(), events)
	require.NoError(t, err)
}

func TestPromote_MonotoneAndIdempotent(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	persistTagged(t, s, model.DimensionActionType, "上门回访", 6, 4, model.StatusSilver)
	persistTagged(t, s, model.DimensionOutcome, "再议", 2, 2, model.StatusSilver)

	e := newEngine(s, similarity.Default())

	first, err := e.Promote(ctx)
	require.NoError(t, err)
	require.Len(t, first.Promoted, 1)
	assert.Equal(t, "上门回访", first.Promoted[0].Tag.Name)

	second, err := e.Promote(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Promoted)
	assert.Empty(t, second.Rejected)

	stable, err := s.ListTags(ctx, model.TagFilter{Dimension: model.DimensionActionType, Status: model.StatusStable})
	require.NoError(t, err)
	assert.Len(t, stable, 6)
}

func TestRefreshStats_RollsStableTags(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	persistTagged(t, s, model.DimensionActionType, "走访", 2, 2, model.StatusSilver)

	var old []model.Event
	for i := 0; i < 3; i++ {
		ev := model.Event{
			DocumentID: fmt.Sprintf("old-%d", i),
			RawSpan:    fmt.Sprintf("走访 old #%d", i),
			School:     model.EntityName{Canonical: "老学校"},
			Status:     model.StatusGray,
			OccurredOn: fixedNow.AddDate(0, 0, -20).Format("2006-01-02"),
		}
		ev.Tags.ActionType = model.TagValue{Name: "走访", Confidence: 0.9}
		old = append(old, ev)
	}
	_, err := s.PersistDocument(ctx, old)
	require.NoError(t, err)

	visit := func() model.TaxonomyTag {
		tags, err := s.ListTags(ctx, model.TagFilter{Dimension: model.DimensionActionType, Status: model.StatusStable})
		require.NoError(t, err)
		for _, tag := range tags {
			if tag.Name == "走访" {
				return tag
			}
		}
		t.Fatal("走访 missing")
		return model.TaxonomyTag{}
	}
	assert.Equal(t, 5, visit().Freq7d, "insert-time counter")

	candidates, err := newEngine(s, similarity.Default()).RefreshStats(ctx)
	require.NoError(t, err)
	for _, c := range candidates {
		assert.Equal(t, model.StatusCandidate, c.Status)
	}

	got := visit()
	assert.Equal(t, model.StatusStable, got.Status)
	assert.Equal(t, 2, got.Freq7d)
	assert.Equal(t, 5, got.Freq30d)
	assert.Equal(t, 3, got.DistinctSchools)
	assert.InDelta(t, 0.4, got.ConsistencyRate, 1e-9)
}

func TestPromote_NeverTwoSimilarStables(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	for _, tag := range []string{"线上演示", "线上演示会", "上门走访", "走访学校", "电话回访"} {
		persistTagged(t, s, model.DimensionActionType, tag, 6, 3, model.StatusSilver)
	}

	e := newEngine(s, similarity.Default())
	_, err := e.Promote(ctx)
	require.NoError(t, err)

	stable, err := s.ListTags(ctx, model.TagFilter{Dimension: model.DimensionActionType, Status: model.StatusStable})
	require.NoError(t, err)
	sim := similarity.Default()
	for i := range stable {
		for j := i + 1; j < len(stable); j++ {
			assert.Less(t, sim.Score(stable[i].Name, stable[j].Name), 0.7,
				"%s and %s are both stable", stable[i].Name, stable[j].Name)
		}
	}

	suggestions, err := s.ListSuggestions(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, suggestions)
}

func TestParseSeed(t *testing.T) {
	tags, err := ParseSeed([]byte(`
tags:
  - id: act_visit
    dimension: action_type
    name: 走访
    definition: 实地拜访学校
  - dimension: blocker
    name: 人事变动
    status: candidate
`))
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, model.StatusStable, tags[0].Status)
	assert.Equal(t, model.StatusCandidate, tags[1].Status)

	_, err = ParseSeed([]byte("tags:\n  - dimension: mood\n    name: x\n"))
	assert.Error(t, err)
}
