package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/google/uuid"
)

var testSlugCounter atomic.Int64

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date returning a pointer, for nullable date fields.
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}

// Site map options
type MapOption func(*domain.SiteMap)

func WithSlug(slug string) MapOption {
	return func(m *domain.SiteMap) {
		m.Slug = slug
	}
}

func NewTestMap(name string, opts ...MapOption) *domain.SiteMap {
	now := time.Now().UTC()
	m := &domain.SiteMap{
		ID:            uuid.New().String(),
		Name:          name,
		Slug:          fmt.Sprintf("test-map-%d", testSlugCounter.Add(1)),
		ImagePath:     "/maps/test.png",
		NaturalWidth:  2000,
		NaturalHeight: 1500,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewTestType builds a construction type with one stage per name, in order,
// with sort orders 1..n.
func NewTestType(name string, stageNames ...string) *domain.ConstructionType {
	now := time.Now().UTC()
	t := &domain.ConstructionType{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, sn := range stageNames {
		t.Stages = append(t.Stages, *NewTestStage(t.ID, sn, i+1))
	}
	return t
}

func NewTestStage(typeID, name string, sortOrder int) *domain.ConstructionStage {
	now := time.Now().UTC()
	return &domain.ConstructionStage{
		ID:                 uuid.New().String(),
		ConstructionTypeID: typeID,
		Name:               name,
		SortOrder:          sortOrder,
		Color:              domain.NotStartedColor,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Plot options
type PlotOption func(*domain.Plot)

func WithConstructionType(id string) PlotOption {
	return func(p *domain.Plot) {
		p.ConstructionTypeID = &id
	}
}

func WithHomebuilder(id string) PlotOption {
	return func(p *domain.Plot) {
		p.HomebuilderID = &id
	}
}

func WithCoordinates(pts ...[2]float64) PlotOption {
	return func(p *domain.Plot) {
		p.Coordinates = pts
	}
}

func WithBeds(n int) PlotOption {
	return func(p *domain.Plot) {
		p.NumberOfBeds = &n
	}
}

func NewTestPlot(mapID, name string, opts ...PlotOption) *domain.Plot {
	now := time.Now().UTC()
	p := &domain.Plot{
		ID:        uuid.New().String(),
		MapID:     mapID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Progress options
type ProgressOption func(*domain.ConstructionProgress)

func WithPlanned(start, end time.Time) ProgressOption {
	return func(p *domain.ConstructionProgress) {
		p.PlannedStartDate = &start
		p.PlannedEndDate = &end
	}
}

func WithProgramme(start, end time.Time) ProgressOption {
	return func(p *domain.ConstructionProgress) {
		p.ProgrammeStartDate = &start
		p.ProgrammeEndDate = &end
	}
}

func WithActualStart(d time.Time) ProgressOption {
	return func(p *domain.ConstructionProgress) {
		p.ActualStartDate = &d
	}
}

func WithActualEnd(d time.Time) ProgressOption {
	return func(p *domain.ConstructionProgress) {
		p.ActualEndDate = &d
	}
}

func WithCompletion(pct int) ProgressOption {
	return func(p *domain.ConstructionProgress) {
		p.CompletionPercentage = pct
	}
}

func WithVersion(v int) ProgressOption {
	return func(p *domain.ConstructionProgress) {
		p.CurrentPlanVersion = v
	}
}

// NewTestProgress builds a version-1 row for plot and stage with the stage
// metadata attached.
func NewTestProgress(plotID string, stage domain.ConstructionStage, opts ...ProgressOption) *domain.ConstructionProgress {
	now := time.Now().UTC()
	st := stage
	p := &domain.ConstructionProgress{
		ID:                  uuid.New().String(),
		PlotID:              plotID,
		ConstructionStageID: stage.ID,
		CurrentPlanVersion:  1,
		CreatedAt:           now,
		UpdatedAt:           now,
		Stage:               &st,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func NewTestHistory(progressID string, version int, start, end time.Time) *domain.ConstructionPlanHistory {
	return &domain.ConstructionPlanHistory{
		ID:                     uuid.New().String(),
		ConstructionProgressID: progressID,
		VersionNumber:          version,
		PlannedStartDate:       &start,
		PlannedEndDate:         &end,
		Reason:                 domain.ReasonPlanUpdated,
		CreatedAt:              time.Now().UTC(),
	}
}
