package domain

import (
	"sort"
	"time"
)

type ConstructionType struct {
	ID          string
	Name        string
	Description string
	Stages      []ConstructionStage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ConstructionStage is one step of a construction type's build sequence.
// SortOrder is unique within a type; lower values are built earlier.
type ConstructionStage struct {
	ID                 string
	ConstructionTypeID string
	Name               string
	Description        string
	SortOrder          int
	Color              ColorToken
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OrderedStages returns the type's stages sorted by SortOrder.
func (t *ConstructionType) OrderedStages() []ConstructionStage {
	out := make([]ConstructionStage, len(t.Stages))
	copy(out, t.Stages)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}
