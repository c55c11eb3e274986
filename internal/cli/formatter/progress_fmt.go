package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/alexanderramin/sitetrack/internal/domain"
)

// FormatRecordResult summarises a progress write.
func FormatRecordResult(resp *contract.RecordProgressResponse) string {
	p := resp.Progress
	var b strings.Builder

	verb := "Updated"
	if resp.Created {
		verb = "Recorded"
	}
	b.WriteString(fmt.Sprintf("%s %s  %s\n", verb, Bold(p.StageName), StageStatusPill(p.Status)))
	b.WriteString(fmt.Sprintf("  planned  %s  %s\n", DateRange(p.PlannedStartDate, p.PlannedEndDate), Dim(fmt.Sprintf("v%d", p.CurrentPlanVersion))))
	b.WriteString(fmt.Sprintf("  actual   %s\n", DateRange(p.ActualStartDate, p.ActualEndDate)))
	b.WriteString("  done     " + RenderProgress(p.CompletionPercentage, plotBarWidth) + "\n")

	if resp.PlanChanged {
		b.WriteString(StyleYellow.Render(fmt.Sprintf("  plan changed, now version %d", p.CurrentPlanVersion)) + "\n")
	}
	if resp.PercentageClamped {
		b.WriteString(StyleYellow.Render("  completion percentage clamped to 0-100") + "\n")
	}
	if resp.Attempts > 1 {
		b.WriteString(Dim(fmt.Sprintf("  saved after %d attempts", resp.Attempts)) + "\n")
	}
	return b.String()
}

// FormatHistory renders a stage's plan versions, oldest first.
func FormatHistory(history []domain.ConstructionPlanHistory) string {
	if len(history) == 0 {
		return Dim("No plan recorded yet.") + "\n"
	}
	headers := []string{"VERSION", "PLANNED", "REASON", "BY", "AT"}
	rows := make([][]string, 0, len(history))
	for _, h := range history {
		by := h.ChangedBy
		if by == "" {
			by = Dim("--")
		}
		rows = append(rows, []string{
			fmt.Sprintf("v%d", h.VersionNumber),
			DateRange(h.PlannedStartDate, h.PlannedEndDate),
			h.Reason,
			by,
			Dim(h.CreatedAt.UTC().Format("2006-01-02 15:04")),
		})
	}
	return RenderTable(headers, rows)
}

// FormatHistoryChecks renders plan history verification results.
func FormatHistoryChecks(checks []contract.HistoryCheck) string {
	headers := []string{"STAGE", "VERSION", "HISTORY", "RESULT"}
	rows := make([][]string, 0, len(checks))
	failed := 0
	for _, c := range checks {
		result := StyleGreen.Render("ok")
		if !c.OK() {
			failed++
			result = StyleRed.Render(c.Problem)
		}
		rows = append(rows, []string{
			c.StageName,
			fmt.Sprintf("v%d", c.CurrentVersion),
			fmt.Sprintf("%d rows", c.HistoryRows),
			result,
		})
	}

	var b strings.Builder
	b.WriteString(RenderTable(headers, rows))
	if failed == 0 {
		b.WriteString("\n" + StyleGreen.Render("All plan histories consistent.") + "\n")
	} else {
		b.WriteString("\n" + StyleRed.Render(fmt.Sprintf("%d of %d stages have inconsistent history.", failed, len(checks))) + "\n")
	}
	return b.String()
}
