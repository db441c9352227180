package model

import "time"

// LifecycleStatus is shared by taxonomy tags and entity aliases.
// Transitions are candidate -> stable only.
type LifecycleStatus string

const (
	StatusCandidate LifecycleStatus = "candidate"
	StatusStable    LifecycleStatus = "stable"
)

// TaxonomyTag is a controlled-vocabulary entry in one dimension.
type TaxonomyTag struct {
	ID              string          `json:"id" yaml:"id"`
	Dimension       Dimension       `json:"dimension" yaml:"dimension"`
	Name            string          `json:"name" yaml:"name"`
	Definition      string          `json:"definition" yaml:"definition"`
	Freq7d          int             `json:"freq_7d" yaml:"-"`
	Freq30d         int             `json:"freq_30d" yaml:"-"`
	DistinctSchools int             `json:"distinct_schools" yaml:"-"`
	ConsistencyRate float64         `json:"consistency_rate" yaml:"-"`
	Status          LifecycleStatus `json:"status" yaml:"status"`
	CreatedAt       time.Time       `json:"created_at" yaml:"-"`
	PromotedAt      *time.Time      `json:"promoted_at,omitempty" yaml:"-"`
}

// TagStats are the statistics recomputed from the event store before promotion.
type TagStats struct {
	Freq7d          int
	Freq30d         int
	DistinctSchools int
	ConsistencyRate float64
}

// TagFilter narrows taxonomy listings. Zero values mean "any".
type TagFilter struct {
	Dimension Dimension
	Status    LifecycleStatus
}

// MergeSuggestion flags two same-dimension tags that look like synonyms.
type MergeSuggestion struct {
	Dimension  Dimension `json:"dimension"`
	Tag        string    `json:"tag"`
	Target     string    `json:"target"`
	Similarity float64   `json:"similarity"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

const (
	SuggestionFromPromotion = "promotion"
	SuggestionFromScan      = "scan"
)
