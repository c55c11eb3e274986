// Package resolver derives display state from construction progress rows:
// the plot's current stage, its aggregate colour/percentage/status, per-stage
// schedule status, and the plan-versioning rule applied when planned dates change.
//
// Every function here is pure. Callers fetch rows from the repository layer and
// persist whatever the plan functions return.
package resolver

import (
	"sort"

	"github.com/alexanderramin/sitetrack/internal/domain"
)

// SortStages returns the rows that carry stage metadata, ordered by the
// stage's SortOrder. Rows without a stage cannot be placed in the build
// sequence and are dropped. Ties fall back to the stage ID so the result
// never depends on input order.
func SortStages(rows []domain.ConstructionProgress) []domain.ConstructionProgress {
	out := make([]domain.ConstructionProgress, 0, len(rows))
	for _, r := range rows {
		if r.Stage == nil {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Stage, out[j].Stage
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.ID < b.ID
	})
	return out
}

// ResolveCurrentStage picks the stage a plot is "at": the latest stage in
// build order that has started, whether or not it has finished. When nothing
// has started it returns nil.
func ResolveCurrentStage(rows []domain.ConstructionProgress) *domain.ConstructionProgress {
	var current, lastCompleted *domain.ConstructionProgress
	ordered := SortStages(rows)
	for i := range ordered {
		r := &ordered[i]
		if !r.IsStarted() {
			continue
		}
		current = r
		if r.IsFinished() {
			lastCompleted = r
		}
	}
	if current != nil {
		return current
	}
	return lastCompleted
}

// ResolvePlotProgressPercentage is the completion percentage of the current stage, or 0.
func ResolvePlotProgressPercentage(rows []domain.ConstructionProgress) int {
	cur := ResolveCurrentStage(rows)
	if cur == nil {
		return 0
	}
	pct, _ := ClampPercentage(cur.CompletionPercentage)
	return pct
}

// ResolvePlotColor is the colour of the current stage, or NotStartedColor.
func ResolvePlotColor(rows []domain.ConstructionProgress) domain.ColorToken {
	cur := ResolveCurrentStage(rows)
	if cur == nil || cur.Stage == nil || cur.Stage.Color == "" {
		return domain.NotStartedColor
	}
	return cur.Stage.Color
}

// ResolvePlotStatus aggregates over every row, independently of the current stage.
func ResolvePlotStatus(rows []domain.ConstructionProgress) domain.PlotStatus {
	started := false
	for i := range rows {
		if rows[i].IsStarted() {
			started = true
			break
		}
	}
	if !started {
		return domain.PlotNotStarted
	}
	for i := range rows {
		if !rows[i].IsDone() {
			return domain.PlotInProgress
		}
	}
	return domain.PlotCompleted
}

// PlotSummary bundles the four plot-level resolutions for map markers and dashboards.
type PlotSummary struct {
	Status       domain.PlotStatus
	Percentage   int
	Color        domain.ColorToken
	CurrentStage *domain.ConstructionProgress
}

// StageName returns the current stage's name, or "" when nothing has started.
func (s PlotSummary) StageName() string {
	if s.CurrentStage == nil {
		return ""
	}
	return s.CurrentStage.StageName()
}

// Summarize resolves a plot's rows in one pass over the resolver functions.
func Summarize(rows []domain.ConstructionProgress) PlotSummary {
	return PlotSummary{
		Status:       ResolvePlotStatus(rows),
		Percentage:   ResolvePlotProgressPercentage(rows),
		Color:        ResolvePlotColor(rows),
		CurrentStage: ResolveCurrentStage(rows),
	}
}

// ClampPercentage bounds p to [0,100] and reports whether it had to.
func ClampPercentage(p int) (int, bool) {
	switch {
	case p < 0:
		return 0, true
	case p > 100:
		return 100, true
	default:
		return p, false
	}
}
