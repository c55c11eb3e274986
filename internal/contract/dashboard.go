package contract

import (
	"sort"
	"time"

	"github.com/alexanderramin/sitetrack/internal/domain"
)

// PlotSummaryView is what a map marker needs for one plot.
type PlotSummaryView struct {
	PlotID       string            `json:"plotId"`
	Name         string            `json:"name"`
	Status       domain.PlotStatus `json:"status"`
	Percentage   int               `json:"percentage"`
	Color        domain.ColorToken `json:"color"`
	CurrentStage string            `json:"currentStage"`
	Coordinates  [][2]float64      `json:"coordinates,omitempty"`
	CentroidX    *float64          `json:"centroidX,omitempty"`
	CentroidY    *float64          `json:"centroidY,omitempty"`
}

type MapView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	ImagePath     string `json:"imagePath"`
	NaturalWidth  int    `json:"naturalWidth"`
	NaturalHeight int    `json:"naturalHeight"`
}

type MapSummaryResponse struct {
	Map         MapView           `json:"map"`
	Plots       []PlotSummaryView `json:"plots"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// PlotDetailResponse is a plot with its summary and every stage row.
type PlotDetailResponse struct {
	Summary PlotSummaryView `json:"summary"`
	MapID   string          `json:"mapId"`
	Address string          `json:"streetAddress,omitempty"`
	Stages  []ProgressView  `json:"stages"`
}

// MatrixCell is one plot × stage intersection.
type MatrixCell struct {
	StageName  string             `json:"stageName"`
	Status     domain.StageStatus `json:"status"`
	Color      domain.ColorToken  `json:"color"`
	Percentage int                `json:"percentage"`
	// Missing is true when the plot has no row for this stage.
	Missing bool `json:"missing,omitempty"`
}

type MatrixRow struct {
	Summary PlotSummaryView `json:"summary"`
	Cells   []MatrixCell    `json:"cells"`
}

// MatrixResponse lays every plot against the union of stage names, ordered by
// their lowest sort order.
type MatrixResponse struct {
	Stages      []string                   `json:"stages"`
	Rows        []MatrixRow                `json:"rows"`
	Counts      map[domain.StageStatus]int `json:"counts"`
	GeneratedAt time.Time                  `json:"generatedAt"`
}

// DashboardState is the user-facing view state of the dashboard, kept
// separate from the data so it can be saved and restored.
type DashboardState struct {
	ExpandedPlots map[string]bool `json:"expandedPlots"`
	Cursor        int             `json:"cursor"`
}

func NewDashboardState() DashboardState {
	return DashboardState{ExpandedPlots: make(map[string]bool)}
}

// Toggle flips the expanded flag for plotID and reports the new value.
func (s *DashboardState) Toggle(plotID string) bool {
	if s.ExpandedPlots == nil {
		s.ExpandedPlots = make(map[string]bool)
	}
	if s.ExpandedPlots[plotID] {
		delete(s.ExpandedPlots, plotID)
		return false
	}
	s.ExpandedPlots[plotID] = true
	return true
}

func (s DashboardState) IsExpanded(plotID string) bool {
	return s.ExpandedPlots[plotID]
}

// Expanded returns the expanded plot ids in sorted order.
func (s DashboardState) Expanded() []string {
	out := make([]string, 0, len(s.ExpandedPlots))
	for id := range s.ExpandedPlots {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
