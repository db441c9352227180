package alias

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/core/policy"
	"github.com/agenthands/eventgov/internal/store"
)

func newTestGovernor(t *testing.T) (*Governor, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "alias.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewGovernor(s, nil, policy.Default(), nil), s
}

var seq int

func observe(t *testing.T, s *store.Store, schoolRaw, schoolNorm, productRaw, productNorm string, times int) {
	t.Helper()
	var events []model.Event
	for i := 0; i < times; i++ {
		seq++
		events = append(events, model.Event{
			DocumentID: fmt.Sprintf("doc-%d", seq),
			RawSpan:    fmt.Sprintf("span-%d", seq),
			School:     model.EntityName{Raw: schoolRaw, Canonical: schoolNorm},
			Product:    model.EntityName{Raw: productRaw, Canonical: productNorm},
			Status:     model.StatusGray,
			OccurredOn: "2025-06-09",
		})
	}
	_, err := s.PersistDocument(context.Background(), events)
	require.NoError(t, err)
}

func TestAliasLifecycle_Scenario(t *testing.T) {
	g, s := newTestGovernor(t)
	ctx := context.Background()

	observe(t, s, "一中", "XX第一中学", "", "", 2)

	report, err := g.Run(ctx)
	require.NoError(t, err)
	require.Len(t, report.Discovered[model.EntitySchool].Added, 1)
	assert.Empty(t, report.Promoted)

	a, err := s.GetAlias(ctx, model.EntitySchool, "一中")
	require.NoError(t, err)
	assert.Equal(t, "XX第一中学", a.Canonical)
	assert.Equal(t, 2, a.Frequency)
	assert.InDelta(t, 0.9, a.Confidence, 1e-9)
	assert.Equal(t, model.StatusCandidate, a.Status)

	observe(t, s, "一中", "XX第一中学", "", "", 1)

	report, err = g.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Discovered[model.EntitySchool].Refreshed)
	require.Len(t, report.Promoted, 1)
	assert.Equal(t, "一中", report.Promoted[0].Alias)

	a, err = s.GetAlias(ctx, model.EntitySchool, "一中")
	require.NoError(t, err)
	assert.Equal(t, 3, a.Frequency)
	assert.Equal(t, model.StatusStable, a.Status)

	report, err = g.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Promoted, "promotion is idempotent")
}

func TestDiscover_Filters(t *testing.T) {
	g, s := newTestGovernor(t)
	ctx := context.Background()

	// raw == canonical
	observe(t, s, "三中", "三中", "", "", 3)
	// below the similarity floor
	observe(t, s, "实验", "育才学校", "", "", 3)
	observe(t, s, "", "", "课堂", "智慧课堂", 4)
	// the most frequent mapping of a raw form wins
	observe(t, s, "一中", "XX第一中学", "", "", 3)
	observe(t, s, "一中", "YY一中", "", "", 1)

	schools, err := g.Discover(ctx, model.EntitySchool)
	require.NoError(t, err)
	require.Len(t, schools.Added, 1)
	assert.Equal(t, "XX第一中学", schools.Added[0].Canonical)

	products, err := g.Discover(ctx, model.EntityProduct)
	require.NoError(t, err)
	require.Len(t, products.Added, 1)
	assert.Equal(t, "课堂", products.Added[0].Alias)

	promoted, err := g.Promote(ctx, model.EntityProduct)
	require.NoError(t, err)
	assert.Len(t, promoted, 1)

	summary, err := g.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary[model.EntitySchool][model.StatusCandidate])
	assert.Equal(t, 1, summary[model.EntityProduct][model.StatusStable])
}

func TestPromote_NoCrossAliasVeto(t *testing.T) {
	g, s := newTestGovernor(t)
	ctx := context.Background()

	observe(t, s, "一中", "XX第一中学", "", "", 3)
	observe(t, s, "第一中学", "XX第一中学", "", "", 3)

	report, err := g.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Promoted, 2)
}

// lookupStore answers every alias lookup with err and records inserts.
type lookupStore struct {
	pairs    []model.NamePair
	err      error
	inserted []model.EntityAlias
}

func (f *lookupStore) NamePairs(context.Context, model.EntityType) ([]model.NamePair, error) {
	return f.pairs, nil
}

func (f *lookupStore) GetAlias(context.Context, model.EntityType, string) (*model.EntityAlias, error) {
	return nil, f.err
}

func (f *lookupStore) InsertAlias(_ context.Context, a model.EntityAlias) (bool, error) {
	f.inserted = append(f.inserted, a)
	return true, nil
}

func (f *lookupStore) UpdateAliasFrequency(context.Context, int64, int) error { return nil }

func (f *lookupStore) PromoteAlias(context.Context, int64) (bool, error) { return true, nil }

func (f *lookupStore) ListAliases(context.Context, model.AliasFilter) ([]model.EntityAlias, error) {
	return nil, nil
}

func TestDiscover_LookupErrors(t *testing.T) {
	pairs := []model.NamePair{{Raw: "XX第一中", Canonical: "XX第一中学", Count: 2}}

	t.Run("not found inserts a candidate", func(t *testing.T) {
		fs := &lookupStore{pairs: pairs, err: fmt.Errorf("get alias: %w", model.ErrNotFound)}
		g := NewGovernor(fs, nil, policy.Default(), nil)

		report, err := g.Discover(context.Background(), model.EntitySchool)
		require.NoError(t, err)
		require.Len(t, fs.inserted, 1)
		assert.Len(t, report.Added, 1)
		assert.Equal(t, model.StatusCandidate, fs.inserted[0].Status)
	})

	t.Run("other errors abort the pass", func(t *testing.T) {
		boom := errors.New("database is locked")
		fs := &lookupStore{pairs: pairs, err: boom}
		g := NewGovernor(fs, nil, policy.Default(), nil)

		_, err := g.Discover(context.Background(), model.EntitySchool)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, fs.inserted)
	})
}
