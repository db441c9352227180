package model

import (
	"math"
	"strings"
)

// Candidate is one event object as returned by the extraction oracle.
// Absent categorical fields are empty strings, confidences are in [0,1].
type Candidate struct {
	RawSpan        string  `json:"raw_span"`
	SchoolRaw      string  `json:"school_raw"`
	SchoolNorm     string  `json:"school_norm"`
	SchoolConf     float64 `json:"school_conf"`
	ProductRaw     string  `json:"product_raw"`
	ProductNorm    string  `json:"product_norm"`
	ProductConf    float64 `json:"product_conf"`
	ActionType     string  `json:"action_type"`
	ActionTypeConf float64 `json:"action_type_conf"`
	Blocker        string  `json:"blocker"`
	BlockerConf    float64 `json:"blocker_conf"`
	Outcome        string  `json:"outcome"`
	OutcomeConf    float64 `json:"outcome_conf"`
	EventConf      float64 `json:"event_conf"`
}

// EntityName pairs the name as written in the log with its canonical form.
type EntityName struct {
	Raw        string  `json:"raw"`
	Canonical  string  `json:"canonical"`
	Confidence float64 `json:"confidence"`
}

// Key is the canonical name when known, otherwise the raw one.
func (n EntityName) Key() string {
	if n.Canonical != "" {
		return n.Canonical
	}
	return n.Raw
}

func (n EntityName) Empty() bool {
	return n.Raw == "" && n.Canonical == ""
}

// TagValue is a single dimension's label with the oracle's confidence in it.
type TagValue struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Tags holds one TagValue per dimension.
type Tags struct {
	ActionType TagValue `json:"action_type"`
	Blocker    TagValue `json:"blocker"`
	Outcome    TagValue `json:"outcome"`
}

// Get returns the value for d. Unknown dimensions yield the zero value.
func (t Tags) Get(d Dimension) TagValue {
	switch d {
	case DimensionActionType:
		return t.ActionType
	case DimensionBlocker:
		return t.Blocker
	case DimensionOutcome:
		return t.Outcome
	}
	return TagValue{}
}

// Trimmed returns a copy with surrounding whitespace removed from every name.
func (t Tags) Trimmed() Tags {
	for _, d := range Dimensions() {
		v := t.Get(d)
		v.Name = strings.TrimSpace(v.Name)
		t.Set(d, v)
	}
	return t
}

// Set replaces the value for d.
func (t *Tags) Set(d Dimension, v TagValue) {
	switch d {
	case DimensionActionType:
		t.ActionType = v
	case DimensionBlocker:
		t.Blocker = v
	case DimensionOutcome:
		t.Outcome = v
	}
}

// Extraction is the structured form of a Candidate produced by one oracle run.
type Extraction struct {
	RawSpan  string     `json:"raw_span"`
	School   EntityName `json:"school"`
	Product  EntityName `json:"product"`
	Tags     Tags       `json:"tags"`
	Reported float64    `json:"reported_confidence"`
}

// Extraction converts the wire form, trimming names and clamping
// confidences into [0,1].
func (c Candidate) Extraction() Extraction {
	trim := strings.TrimSpace
	return Extraction{
		RawSpan: trim(c.RawSpan),
		School:  EntityName{Raw: trim(c.SchoolRaw), Canonical: trim(c.SchoolNorm), Confidence: Clamp01(c.SchoolConf)},
		Product: EntityName{Raw: trim(c.ProductRaw), Canonical: trim(c.ProductNorm), Confidence: Clamp01(c.ProductConf)},
		Tags: Tags{
			ActionType: TagValue{Name: trim(c.ActionType), Confidence: Clamp01(c.ActionTypeConf)},
			Blocker:    TagValue{Name: trim(c.Blocker), Confidence: Clamp01(c.BlockerConf)},
			Outcome:    TagValue{Name: trim(c.Outcome), Confidence: Clamp01(c.OutcomeConf)},
		},
		Reported: Clamp01(c.EventConf),
	}
}

// Clamp01 maps NaN to 0 and clips v to [0,1].
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
