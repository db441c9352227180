package model

import "time"

// ConsistencyStatus is the reliability tier assigned to a persisted event.
type ConsistencyStatus string

const (
	// StatusPending marks events backed by a single successful oracle run.
	StatusPending ConsistencyStatus = "pending"
	// StatusSilver marks high-confidence events both runs agreed on.
	StatusSilver ConsistencyStatus = "silver"
	// StatusGray marks low-confidence or disputed events.
	StatusGray ConsistencyStatus = "gray"
)

func (s ConsistencyStatus) Valid() bool {
	return s == StatusPending || s == StatusSilver || s == StatusGray
}

// Event is a reconciled business event. It is immutable once stored.
type Event struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	RawSpan    string            `json:"raw_span"`
	School     EntityName        `json:"school"`
	Product    EntityName        `json:"product"`
	Tags       Tags              `json:"tags"`
	Confidence float64           `json:"event_confidence"`
	Agreement  float64           `json:"agreement"`
	Status     ConsistencyStatus `json:"consistency_status"`
	RunA       string            `json:"run_a,omitempty"`
	RunB       string            `json:"run_b,omitempty"`
	OccurredOn string            `json:"occurrence_date"`
	CreatedAt  time.Time         `json:"created_at"`
}

// EventKey is the uniqueness key of the event store.
type EventKey struct {
	DocumentID string
	School     string
	RawSpan    string
}

func (e Event) Key() EventKey {
	return EventKey{DocumentID: e.DocumentID, School: e.School.Canonical, RawSpan: e.RawSpan}
}

// EventFilter narrows event listings. Zero values mean "any".
type EventFilter struct {
	DocumentID string
	School     string
	Status     ConsistencyStatus
	Limit      int
}
