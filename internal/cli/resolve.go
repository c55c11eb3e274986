package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/sitetrack/internal/domain"
)

// resolvePlot finds a plot by exact id, case-insensitive name, or unique id
// prefix.
func resolvePlot(ctx context.Context, app *App, input string) (*domain.Plot, error) {
	if input == "" {
		return nil, fmt.Errorf("plot is required")
	}
	plots, err := app.Plots.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range plots {
		if p.ID == input {
			return p, nil
		}
	}
	var byName []*domain.Plot
	for _, p := range plots {
		if strings.EqualFold(p.Name, input) {
			byName = append(byName, p)
		}
	}
	if len(byName) == 1 {
		return byName[0], nil
	}
	if len(byName) > 1 {
		return nil, fmt.Errorf("plot name %q is ambiguous (%d plots); use the id", input, len(byName))
	}

	var matches []*domain.Plot
	for _, p := range plots {
		if strings.HasPrefix(p.ID, input) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("plot not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("plot id prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveStage finds a stage of the plot's construction type by id or
// case-insensitive name.
func resolveStage(ctx context.Context, app *App, plot *domain.Plot, input string) (*domain.ConstructionStage, error) {
	if !plot.IsConfigured() {
		return nil, fmt.Errorf("plot %s: %w", plot.Name, domain.ErrNotConfigured)
	}
	ct, err := app.Reference.GetConstructionType(ctx, *plot.ConstructionTypeID)
	if err != nil {
		return nil, err
	}
	for i := range ct.Stages {
		st := &ct.Stages[i]
		if st.ID == input || strings.EqualFold(st.Name, input) {
			return st, nil
		}
	}
	names := make([]string, 0, len(ct.Stages))
	for _, st := range ct.OrderedStages() {
		names = append(names, st.Name)
	}
	return nil, fmt.Errorf("stage %q not in %s (stages: %s)", input, ct.Name, strings.Join(names, ", "))
}

// resolveProgressID finds the progress row id for a plot stage.
func resolveProgressID(ctx context.Context, app *App, plotInput, stageInput string) (string, error) {
	plot, err := resolvePlot(ctx, app, plotInput)
	if err != nil {
		return "", err
	}
	stage, err := resolveStage(ctx, app, plot, stageInput)
	if err != nil {
		return "", err
	}
	views, err := app.Progress.ListByPlot(ctx, plot.ID, app.now())
	if err != nil {
		return "", err
	}
	for _, v := range views {
		if v.ConstructionStageID == stage.ID {
			return v.ID, nil
		}
	}
	return "", fmt.Errorf("no progress recorded for %s on %s", stage.Name, plot.Name)
}
