// Package alias discovers raw-name variants of schools and products in the
// event store and promotes the recurring ones to stable aliases.
package alias

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/core/policy"
	"github.com/agenthands/eventgov/internal/core/similarity"
	"github.com/agenthands/eventgov/internal/logger"
)

type Store interface {
	NamePairs(ctx context.Context, t model.EntityType) ([]model.NamePair, error)
	GetAlias(ctx context.Context, t model.EntityType, alias string) (*model.EntityAlias, error)
	InsertAlias(ctx context.Context, a model.EntityAlias) (bool, error)
	UpdateAliasFrequency(ctx context.Context, id int64, freq int) error
	PromoteAlias(ctx context.Context, id int64) (bool, error)
	ListAliases(ctx context.Context, filter model.AliasFilter) ([]model.EntityAlias, error)
}

type Governor struct {
	Store      Store
	Similarity similarity.Strategy
	Policy     policy.Policy

	log *logger.Logger
}

func NewGovernor(s Store, sim similarity.Strategy, p policy.Policy, log *logger.Logger) *Governor {
	if sim == nil {
		sim = similarity.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Governor{Store: s, Similarity: sim, Policy: p, log: log}
}

// DiscoveryReport lists what one discovery pass changed.
type DiscoveryReport struct {
	EntityType model.EntityType    `json:"entity_type"`
	Pairs      int                 `json:"pairs"`
	Added      []model.EntityAlias `json:"added"`

	// Refreshed counts candidate aliases whose frequency was raised.
	Refreshed int `json:"refreshed"`
}

// Discover records every (raw, canonical) pair whose raw form is not yet an
// alias and whose similarity clears the floor. Pairs whose raw form is a
// recorded candidate for the same canonical refresh its frequency instead.
func (g *Governor) Discover(ctx context.Context, t model.EntityType) (*DiscoveryReport, error) {
	pairs, err := g.Store.NamePairs(ctx, t)
	if err != nil {
		return nil, err
	}

	report := &DiscoveryReport{EntityType: t, Pairs: len(pairs)}
	for _, p := range pairs {
		existing, err := g.Store.GetAlias(ctx, t, p.Raw)
		switch {
		case err == nil:
			if existing.Status == model.StatusCandidate && existing.Canonical == p.Canonical && p.Count > existing.Frequency {
				if err := g.Store.UpdateAliasFrequency(ctx, existing.ID, p.Count); err != nil {
					return nil, err
				}
				report.Refreshed++
			}
			continue
		case !errors.Is(err, model.ErrNotFound):
			return nil, err
		}

		score := g.Similarity.Score(p.Raw, p.Canonical)
		if score < g.Policy.AliasSimilarityFloor {
			continue
		}

		a := model.EntityAlias{
			EntityType: t,
			Alias:      p.Raw,
			Canonical:  p.Canonical,
			Confidence: score,
			Frequency:  p.Count,
			Status:     model.StatusCandidate,
		}
		added, err := g.Store.InsertAlias(ctx, a)
		if err != nil {
			return nil, err
		}
		if added {
			report.Added = append(report.Added, a)
			g.log.Info("Alias candidate discovered",
				"entity_type", t, "alias", a.Alias, "canonical", a.Canonical, "freq", a.Frequency, "similarity", score)
		}
	}
	return report, nil
}

// Promote flips every candidate alias of t whose frequency reached the
// threshold. There is no similarity veto: many raw forms may legitimately
// map onto one canonical name.
func (g *Governor) Promote(ctx context.Context, t model.EntityType) ([]model.EntityAlias, error) {
	candidates, err := g.Store.ListAliases(ctx, model.AliasFilter{EntityType: t, Status: model.StatusCandidate})
	if err != nil {
		return nil, err
	}

	var promoted []model.EntityAlias
	for _, a := range candidates {
		if a.Frequency < g.Policy.AliasMinFrequency {
			continue
		}
		ok, err := g.Store.PromoteAlias(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		a.Status = model.StatusStable
		promoted = append(promoted, a)
		g.log.Info("Alias promoted", "entity_type", t, "alias", a.Alias, "canonical", a.Canonical, "freq", a.Frequency)
	}
	return promoted, nil
}

// Report is the result of a full alias governance run.
type Report struct {
	Discovered map[model.EntityType]*DiscoveryReport `json:"discovered"`
	Promoted   []model.EntityAlias                   `json:"promoted"`
}

// Run discovers then promotes, independently per entity type.
func (g *Governor) Run(ctx context.Context) (*Report, error) {
	report := &Report{Discovered: make(map[model.EntityType]*DiscoveryReport)}
	for _, t := range model.EntityTypes() {
		d, err := g.Discover(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("%s alias discovery: %w", t, err)
		}
		report.Discovered[t] = d

		promoted, err := g.Promote(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("%s alias promotion: %w", t, err)
		}
		report.Promoted = append(report.Promoted, promoted...)
	}
	return report, nil
}

// Summary counts aliases per entity type and status.
func (g *Governor) Summary(ctx context.Context) (map[model.EntityType]map[model.LifecycleStatus]int, error) {
	all, err := g.Store.ListAliases(ctx, model.AliasFilter{})
	if err != nil {
		return nil, err
	}
	out := make(map[model.EntityType]map[model.LifecycleStatus]int)
	for _, t := range model.EntityTypes() {
		out[t] = map[model.LifecycleStatus]int{model.StatusCandidate: 0, model.StatusStable: 0}
	}
	for _, a := range all {
		out[a.EntityType][a.Status]++
	}
	return out, nil
}
