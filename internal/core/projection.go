package core

import (
	"context"
	"fmt"

	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/driver"
	"github.com/agenthands/eventgov/internal/logger"
)

// Projector mirrors stored events, tags and aliases into a graph database
// for the reporting side. The SQLite store stays the source of truth.
type Projector struct {
	Driver driver.GraphDriver

	log *logger.Logger
}

func NewProjector(d driver.GraphDriver, log *logger.Logger) *Projector {
	if log == nil {
		log = logger.Nop()
	}
	return &Projector{Driver: d, log: log}
}

func (p *Projector) BuildIndices(ctx context.Context) error {
	return p.Driver.BuildIndices(ctx)
}

func (p *Projector) ProjectEvents(ctx context.Context, events []model.Event) error {
	for _, ev := range events {
		tags := []interface{}{}
		for _, d := range model.Dimensions() {
			if name := ev.Tags.Get(d).Name; name != "" {
				tags = append(tags, map[string]interface{}{"dimension": string(d), "name": name})
			}
		}
		params := map[string]interface{}{
			"id":              ev.ID,
			"doc_id":          ev.DocumentID,
			"raw_span":        ev.RawSpan,
			"school":          ev.School.Key(),
			"product":         ev.Product.Key(),
			"confidence":      ev.Confidence,
			"agreement":       ev.Agreement,
			"status":          string(ev.Status),
			"occurrence_date": ev.OccurredOn,
			"tags":            tags,
		}
		if _, err := p.Driver.ExecuteQuery(ctx, driver.SaveEventQuery, params); err != nil {
			return fmt.Errorf("failed to project event %s: %w", ev.ID, err)
		}
	}
	return nil
}

func (p *Projector) ProjectTags(ctx context.Context, tags []model.TaxonomyTag) error {
	for _, t := range tags {
		params := map[string]interface{}{
			"id":               t.ID,
			"dimension":        string(t.Dimension),
			"name":             t.Name,
			"definition":       t.Definition,
			"status":           string(t.Status),
			"freq_7d":          t.Freq7d,
			"distinct_schools": t.DistinctSchools,
			"consistency_rate": t.ConsistencyRate,
		}
		if _, err := p.Driver.ExecuteQuery(ctx, driver.SaveTagQuery, params); err != nil {
			return fmt.Errorf("failed to project tag %s/%s: %w", t.Dimension, t.Name, err)
		}
	}
	return nil
}

func (p *Projector) ProjectAliases(ctx context.Context, aliases []model.EntityAlias) error {
	for _, a := range aliases {
		params := map[string]interface{}{
			"entity_type": string(a.EntityType),
			"alias":       a.Alias,
			"canonical":   a.Canonical,
			"status":      string(a.Status),
			"confidence":  a.Confidence,
			"freq":        a.Frequency,
		}
		if _, err := p.Driver.ExecuteQuery(ctx, driver.SaveAliasQuery, params); err != nil {
			return fmt.Errorf("failed to project alias %s: %w", a.Alias, err)
		}
	}
	return nil
}

func (p *Projector) ProjectSuggestions(ctx context.Context, suggestions []model.MergeSuggestion) error {
	for _, s := range suggestions {
		params := map[string]interface{}{
			"dimension":  string(s.Dimension),
			"tag":        s.Tag,
			"target":     s.Target,
			"similarity": s.Similarity,
			"source":     s.Source,
		}
		if _, err := p.Driver.ExecuteQuery(ctx, driver.SaveSuggestionQuery, params); err != nil {
			return fmt.Errorf("failed to project suggestion %s -> %s: %w", s.Tag, s.Target, err)
		}
	}
	return nil
}
