package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/alexanderramin/sitetrack/internal/domain"
)

const plotBarWidth = 10

// FormatMapSummary renders one row per plot marker with a status tally.
func FormatMapSummary(resp *contract.MapSummaryResponse) string {
	headers := []string{"PLOT", "STATUS", "PROGRESS", "CURRENT STAGE", ""}
	rows := make([][]string, 0, len(resp.Plots))
	counts := make(map[domain.PlotStatus]int)

	for _, p := range resp.Plots {
		counts[p.Status]++
		stage := p.CurrentStage
		if stage == "" {
			stage = Dim("--")
		}
		rows = append(rows, []string{
			Bold(p.Name),
			PlotStatusPill(p.Status),
			RenderProgress(p.Percentage, plotBarWidth),
			stage,
			Swatch(p.Color),
		})
	}

	var b strings.Builder
	b.WriteString(RenderTable(headers, rows))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s, %s, %s, %s\n",
		StyleBlue.Render(fmt.Sprintf("%d Completed", counts[domain.PlotCompleted])),
		StyleGreen.Render(fmt.Sprintf("%d In Progress", counts[domain.PlotInProgress])),
		StyleDim.Render(fmt.Sprintf("%d Not Started", counts[domain.PlotNotStarted])),
		StylePurple.Render(fmt.Sprintf("%d Not Configured", counts[domain.PlotNotConfigured])),
	))
	return RenderBox(resp.Map.Name, b.String())
}

// FormatPlotDetail renders a plot's stages with planned and actual windows.
func FormatPlotDetail(resp *contract.PlotDetailResponse) string {
	var b strings.Builder
	s := resp.Summary

	b.WriteString(PlotStatusPill(s.Status) + "  " + RenderProgress(s.Percentage, plotBarWidth) + "\n")
	if s.CurrentStage != "" {
		b.WriteString(Dim("Current stage: ") + s.CurrentStage + "\n")
	}
	if resp.Address != "" {
		b.WriteString(Dim("Address: ") + resp.Address + "\n")
	}
	b.WriteString("\n")

	if len(resp.Stages) == 0 {
		b.WriteString(Dim("No construction type assigned.") + "\n")
		return RenderBox(s.Name, b.String())
	}

	headers := []string{"#", "STAGE", "STATUS", "PLANNED", "ACTUAL", "DONE", "V"}
	rows := make([][]string, 0, len(resp.Stages))
	for _, st := range resp.Stages {
		rows = append(rows, []string{
			Dim(fmt.Sprintf("%d", st.SortOrder)),
			st.StageName,
			StageStatusPill(st.Status),
			DateRange(st.PlannedStartDate, st.PlannedEndDate),
			DateRange(st.ActualStartDate, st.ActualEndDate),
			fmt.Sprintf("%3d%%", st.CompletionPercentage),
			Dim(fmt.Sprintf("v%d", st.CurrentPlanVersion)),
		})
	}
	b.WriteString(RenderTable(headers, rows))
	return RenderBox(s.Name, b.String())
}

// FormatPlotList renders plots with their resolved map coordinates.
func FormatPlotList(plots []*domain.Plot) string {
	headers := []string{"ID", "NAME", "CONFIGURED", "CENTRE", "ADDED"}
	rows := make([][]string, 0, len(plots))
	now := time.Now()
	for _, p := range plots {
		configured := StyleGreen.Render("yes")
		if !p.IsConfigured() {
			configured = StylePurple.Render("no")
		}
		centre := Dim("--")
		if len(p.Coordinates) > 0 {
			centre = fmt.Sprintf("%.1f, %.1f", p.Longitude, p.Latitude)
		}
		rows = append(rows, []string{
			TruncID(p.ID),
			Bold(p.Name),
			configured,
			centre,
			Dim(RelativeDateFrom(p.CreatedAt, now)),
		})
	}
	return RenderTable(headers, rows)
}
