package domain

import (
	"fmt"
	"regexp"
	"time"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// SiteMap is a site plan image that plots are drawn over.
type SiteMap struct {
	ID            string
	Name          string
	Slug          string
	ImagePath     string
	NaturalWidth  int
	NaturalHeight int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ValidateSlug checks that Slug is lowercase words joined by single hyphens (e.g. "welbourne-phase-2").
func (m *SiteMap) ValidateSlug() error {
	if m.Slug == "" {
		return fmt.Errorf("map slug is required")
	}
	if !slugPattern.MatchString(m.Slug) {
		return fmt.Errorf("map slug %q must be lowercase letters and digits separated by hyphens", m.Slug)
	}
	return nil
}

type Plot struct {
	ID          string
	MapID       string
	Name        string
	Latitude    float64
	Longitude   float64
	Coordinates [][2]float64

	StreetAddress      string
	HomebuilderID      *string
	ConstructionTypeID *string
	UnitTypeID         *string
	NumberOfBeds       *int
	NumberOfStoreys    *int
	SquareFootage      *int
	MinimumSalePrice   *int

	Description string
	Contractor  string
	Notes       string

	CreatedAt time.Time
	UpdatedAt time.Time

	Progress []ConstructionProgress
}

// IsConfigured reports whether the plot has a construction type and therefore stages.
func (p *Plot) IsConfigured() bool {
	return p.ConstructionTypeID != nil && *p.ConstructionTypeID != ""
}

// Centroid returns the mean of the polygon vertices as (x, y).
// ok is false when the plot has no coordinates.
func (p *Plot) Centroid() (x, y float64, ok bool) {
	if len(p.Coordinates) == 0 {
		return 0, 0, false
	}
	for _, pt := range p.Coordinates {
		x += pt[0]
		y += pt[1]
	}
	n := float64(len(p.Coordinates))
	return x / n, y / n, true
}

type Homebuilder struct {
	ID           string
	Name         string
	ContactEmail string
	ContactPhone string
	Address      string
	Website      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UnitType struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SalesUpdate tracks the delivery date promised to buyers for a plot.
type SalesUpdate struct {
	ID                     string
	PlotID                 string
	ProgrammedDeliveryDate *time.Time
	ActualDeliveryDate     *time.Time
	Notes                  string
	CreatedBy              string
	CreatedAt              time.Time
	PlannedDeliveryDates   []PlannedDeliveryDate
}

type PlannedDeliveryDate struct {
	ID            string
	SalesUpdateID string
	PlannedDate   time.Time
	Reason        string
	CreatedAt     time.Time
}
