package model

import "fmt"

// Dimension is one of the closed set of tag dimensions an event is labelled on.
type Dimension string

const (
	DimensionActionType Dimension = "action_type"
	DimensionBlocker    Dimension = "blocker"
	DimensionOutcome    Dimension = "outcome"
)

// Dimensions lists every dimension in prompt/report order.
func Dimensions() []Dimension {
	return []Dimension{DimensionActionType, DimensionBlocker, DimensionOutcome}
}

func (d Dimension) Valid() bool {
	switch d {
	case DimensionActionType, DimensionBlocker, DimensionOutcome:
		return true
	}
	return false
}

// ParseDimension validates a dimension name coming from configuration or the API.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown dimension %q", s)
	}
	return d, nil
}

// EntityType is the kind of named entity an alias canonicalizes.
type EntityType string

const (
	EntitySchool  EntityType = "school"
	EntityProduct EntityType = "product"
)

func EntityTypes() []EntityType {
	return []EntityType{EntitySchool, EntityProduct}
}

func (t EntityType) Valid() bool {
	return t == EntitySchool || t == EntityProduct
}

func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}
