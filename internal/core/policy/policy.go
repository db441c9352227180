// Package policy holds the governance thresholds used by classification,
// tag promotion and alias discovery.
package policy

import (
	"errors"
	"fmt"
	"time"
)

// Policy is passed by value; components keep their own copy.
type Policy struct {
	// SilverConfidence is the minimum aggregate event confidence for silver.
	SilverConfidence float64
	// SilverAgreement is the minimum field-agreement score for silver.
	SilverAgreement float64

	TagMinFrequency   int
	TagMinSchools     int
	TagMinConsistency float64
	// TagSimilarityVeto rejects a promotion that is this close to a stable tag.
	TagSimilarityVeto float64
	// FrequencyWindow is the trailing window for tag frequency.
	FrequencyWindow time.Duration

	AliasSimilarityFloor float64
	AliasMinFrequency    int

	MergeSuggestionSimilarity float64
}

// Default returns the thresholds the pipeline ships with.
func Default() Policy {
	return Policy{
		SilverConfidence:          0.85,
		SilverAgreement:           0.7,
		TagMinFrequency:           5,
		TagMinSchools:             3,
		TagMinConsistency:         0.8,
		TagSimilarityVeto:         0.7,
		FrequencyWindow:           7 * 24 * time.Hour,
		AliasSimilarityFloor:      0.5,
		AliasMinFrequency:         3,
		MergeSuggestionSimilarity: 0.7,
	}
}

var errRange = errors.New("must be within [0,1]")

// Validate checks every threshold is usable.
func (p Policy) Validate() error {
	ratios := []struct {
		name string
		v    float64
	}{
		{"silver_confidence", p.SilverConfidence},
		{"silver_agreement", p.SilverAgreement},
		{"tag_min_consistency", p.TagMinConsistency},
		{"tag_similarity_veto", p.TagSimilarityVeto},
		{"alias_similarity_floor", p.AliasSimilarityFloor},
		{"merge_suggestion_similarity", p.MergeSuggestionSimilarity},
	}
	for _, r := range ratios {
		if r.v < 0 || r.v > 1 {
			return fmt.Errorf("policy %s=%v: %w", r.name, r.v, errRange)
		}
	}
	if p.TagMinFrequency < 1 {
		return fmt.Errorf("policy tag_min_frequency must be positive, got %d", p.TagMinFrequency)
	}
	if p.TagMinSchools < 1 {
		return fmt.Errorf("policy tag_min_schools must be positive, got %d", p.TagMinSchools)
	}
	if p.AliasMinFrequency < 1 {
		return fmt.Errorf("policy alias_min_frequency must be positive, got %d", p.AliasMinFrequency)
	}
	if p.FrequencyWindow <= 0 {
		return fmt.Errorf("policy frequency window must be positive, got %v", p.FrequencyWindow)
	}
	return nil
}

// Promotable reports whether tag statistics meet the promotion criteria.
// The similarity veto is applied separately.
func (p Policy) Promotable(freq, schools int, consistency float64) bool {
	return freq >= p.TagMinFrequency && schools >= p.TagMinSchools && consistency >= p.TagMinConsistency
}
