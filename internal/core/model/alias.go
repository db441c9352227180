package model

import "time"

// EntityAlias maps an observed name variant onto a canonical entity name.
type EntityAlias struct {
	ID         int64           `json:"id"`
	EntityType EntityType      `json:"entity_type"`
	Alias      string          `json:"alias"`
	Canonical  string          `json:"canonical"`
	Confidence float64         `json:"confidence"`
	Frequency  int             `json:"frequency"`
	Status     LifecycleStatus `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NamePair is a distinct (raw, canonical) observation with its occurrence count.
type NamePair struct {
	Raw       string
	Canonical string
	Count     int
}

type AliasFilter struct {
	EntityType EntityType
	Status     LifecycleStatus
}
