// Package taxonomy maintains the candidate tag pool and decides which
// candidates become stable vocabulary.
package taxonomy

import (
	"context"
	"fmt"
	"time"

	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/core/policy"
	"github.com/agenthands/eventgov/internal/core/similarity"
	"github.com/agenthands/eventgov/internal/logger"
)

const (
	dateLayout     = "2006-01-02"
	longWindowDays = 30
)

// Store is the slice of the event store the promotion engine needs.
type Store interface {
	ListTags(ctx context.Context, filter model.TagFilter) ([]model.TaxonomyTag, error)
	TagStats(ctx context.Context, d model.Dimension, name, since7, since30 string) (model.TagStats, error)
	UpdateTagStats(ctx context.Context, id string, stats model.TagStats) error
	PromoteTag(ctx context.Context, id string, at time.Time) (bool, error)
	RecordSuggestion(ctx context.Context, s model.MergeSuggestion) error
}

type Engine struct {
	Store      Store
	Similarity similarity.Strategy
	Policy     policy.Policy
	Now        func() time.Time

	log *logger.Logger
}

func NewEngine(store Store, sim similarity.Strategy, p policy.Policy, log *logger.Logger) *Engine {
	if sim == nil {
		sim = similarity.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{Store: store, Similarity: sim, Policy: p, Now: time.Now, log: log}
}

// Decision records why a promotable candidate was or was not promoted.
type Decision struct {
	Tag model.TaxonomyTag `json:"tag"`

	// Collision is the stable tag that vetoed the promotion, if any.
	Collision  string  `json:"collision,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// Report summarizes one promotion pass.
type Report struct {
	Evaluated int        `json:"evaluated"`
	Promoted  []Decision `json:"promoted"`
	Rejected  []Decision `json:"rejected"`
}

// cutoffs returns the inclusive start dates of the short and long windows.
func (e *Engine) cutoffs() (string, string) {
	now := e.Now()
	return now.Add(-e.Policy.FrequencyWindow).Format(dateLayout),
		now.AddDate(0, 0, -longWindowDays).Format(dateLayout)
}

// RefreshStats recomputes the rolling statistics of every tag from the
// event store and returns the refreshed candidates. Stable tags get fresh
// numbers too, but their status is never touched here.
func (e *Engine) RefreshStats(ctx context.Context) ([]model.TaxonomyTag, error) {
	tags, err := e.Store.ListTags(ctx, model.TagFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	since7, since30 := e.cutoffs()
	var candidates []model.TaxonomyTag
	for _, t := range tags {
		stats, err := e.Store.TagStats(ctx, t.Dimension, t.Name, since7, since30)
		if err != nil {
			return nil, err
		}
		if err := e.Store.UpdateTagStats(ctx, t.ID, stats); err != nil {
			return nil, err
		}
		if t.Status != model.StatusCandidate {
			continue
		}
		t.Freq7d = stats.Freq7d
		t.Freq30d = stats.Freq30d
		t.DistinctSchools = stats.DistinctSchools
		t.ConsistencyRate = stats.ConsistencyRate
		candidates = append(candidates, t)
	}
	return candidates, nil
}

// Promote runs one promotion pass. A promotable candidate that is too
// similar to a stable tag of its dimension is rejected and a merge
// suggestion is recorded instead. Tags promoted earlier in the same pass
// count as stable for later candidates.
func (e *Engine) Promote(ctx context.Context) (*Report, error) {
	candidates, err := e.RefreshStats(ctx)
	if err != nil {
		return nil, err
	}

	stable, err := e.stableByDimension(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, t := range candidates {
		if !e.Policy.Promotable(t.Freq7d, t.DistinctSchools, t.ConsistencyRate) {
			continue
		}
		report.Evaluated++

		if target, score, vetoed := e.collision(t, stable[t.Dimension]); vetoed {
			d := Decision{Tag: t, Collision: target, Similarity: score}
			report.Rejected = append(report.Rejected, d)
			e.log.Info("Promotion rejected, suggesting merge",
				"dimension", t.Dimension, "tag", t.Name, "target", target, "similarity", score)

			sg := model.MergeSuggestion{
				Dimension:  t.Dimension,
				Tag:        t.Name,
				Target:     target,
				Similarity: score,
				Source:     model.SuggestionFromPromotion,
				CreatedAt:  e.Now(),
			}
			if err := e.Store.RecordSuggestion(ctx, sg); err != nil {
				return nil, err
			}
			continue
		}

		at := e.Now()
		ok, err := e.Store.PromoteTag(ctx, t.ID, at)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		t.Status = model.StatusStable
		t.PromotedAt = &at
		stable[t.Dimension] = append(stable[t.Dimension], t.Name)
		report.Promoted = append(report.Promoted, Decision{Tag: t})
		e.log.Info("Tag promoted",
			"dimension", t.Dimension, "tag", t.Name,
			"freq_7d", t.Freq7d, "schools", t.DistinctSchools, "consistency", t.ConsistencyRate)
	}
	return report, nil
}

// collision returns the most similar stable name at or above the veto.
func (e *Engine) collision(t model.TaxonomyTag, stable []string) (string, float64, bool) {
	best, bestScore := "", 0.0
	for _, name := range stable {
		if s := e.Similarity.Score(t.Name, name); s >= e.Policy.TagSimilarityVeto && s > bestScore {
			best, bestScore = name, s
		}
	}
	return best, bestScore, best != ""
}

func (e *Engine) stableByDimension(ctx context.Context) (map[model.Dimension][]string, error) {
	tags, err := e.Store.ListTags(ctx, model.TagFilter{Status: model.StatusStable})
	if err != nil {
		return nil, fmt.Errorf("failed to list stable tags: %w", err)
	}
	out := make(map[model.Dimension][]string)
	for _, t := range tags {
		out[t.Dimension] = append(out[t.Dimension], t.Name)
	}
	return out, nil
}

// SuggestMerges scans for same-dimension tag pairs, at least one of them a
// candidate, whose names are similar enough to be synonyms. It does not
// change any state.
func (e *Engine) SuggestMerges(ctx context.Context) ([]model.MergeSuggestion, error) {
	tags, err := e.Store.ListTags(ctx, model.TagFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	byDim := make(map[model.Dimension][]model.TaxonomyTag)
	for _, t := range tags {
		byDim[t.Dimension] = append(byDim[t.Dimension], t)
	}

	var out []model.MergeSuggestion
	for _, d := range model.Dimensions() {
		list := byDim[d]
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				a, b := list[i], list[j]
				if a.Status == model.StatusStable && b.Status == model.StatusStable {
					continue
				}
				score := e.Similarity.Score(a.Name, b.Name)
				if score < e.Policy.MergeSuggestionSimilarity {
					continue
				}
				// Point the candidate at the stable tag, or the rarer
				// candidate at the more frequent one.
				if a.Status == model.StatusStable || (b.Status != model.StatusStable && a.Freq7d >= b.Freq7d) {
					a, b = b, a
				}
				out = append(out, model.MergeSuggestion{
					Dimension:  d,
					Tag:        a.Name,
					Target:     b.Name,
					Similarity: score,
					Source:     model.SuggestionFromScan,
				})
			}
		}
	}
	return out, nil
}

// CandidateView is one row of the candidate pool summary.
type CandidateView struct {
	model.TaxonomyTag
	// NearPromotable means frequency and school thresholds are met.
	NearPromotable bool `json:"near_promotable"`
}

// CandidateSummary returns up to top candidates per dimension, most
// frequent first. top <= 0 means all.
func (e *Engine) CandidateSummary(ctx context.Context, top int) (map[model.Dimension][]CandidateView, error) {
	out := make(map[model.Dimension][]CandidateView)
	for _, d := range model.Dimensions() {
		tags, err := e.Store.ListTags(ctx, model.TagFilter{Dimension: d, Status: model.StatusCandidate})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s candidates: %w", d, err)
		}
		if top > 0 && len(tags) > top {
			tags = tags[:top]
		}
		views := make([]CandidateView, 0, len(tags))
		for _, t := range tags {
			views = append(views, CandidateView{
				TaxonomyTag:    t,
				NearPromotable: t.Freq7d >= e.Policy.TagMinFrequency && t.DistinctSchools >= e.Policy.TagMinSchools,
			})
		}
		out[d] = views
	}
	return out, nil
}
