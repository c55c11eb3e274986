package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/alexanderramin/sitetrack/internal/cli/formatter"
	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

func sitetrackHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// recordValues holds the raw strings a progress form or flag set collects.
type recordValues struct {
	programmeStart, programmeEnd string
	plannedStart, plannedEnd     string
	actualStart, actualEnd       string
	completion                   string
	notes, recordedBy, reason    string
}

// toRequest parses the collected strings. Blank fields stay nil.
func (v recordValues) toRequest(plotID, stageID string) (contract.RecordProgressRequest, error) {
	req := contract.RecordProgressRequest{
		PlotID:              plotID,
		ConstructionStageID: stageID,
		Notes:               v.notes,
		RecordedBy:          v.recordedBy,
		Reason:              v.reason,
	}
	fields := []struct {
		flag string
		raw  string
		dst  **time.Time
	}{
		{"programme-start", v.programmeStart, &req.ProgrammeStartDate},
		{"programme-end", v.programmeEnd, &req.ProgrammeEndDate},
		{"planned-start", v.plannedStart, &req.PlannedStartDate},
		{"planned-end", v.plannedEnd, &req.PlannedEndDate},
		{"actual-start", v.actualStart, &req.ActualStartDate},
		{"actual-end", v.actualEnd, &req.ActualEndDate},
	}
	for _, f := range fields {
		t, err := contract.ParseDate(f.raw)
		if err != nil {
			return req, fmt.Errorf("--%s: %w", f.flag, err)
		}
		*f.dst = t
	}
	if v.completion != "" {
		pct, err := strconv.Atoi(v.completion)
		if err != nil {
			return req, fmt.Errorf("--complete: %q is not a number", v.completion)
		}
		req.CompletionPercentage = &pct
	}
	return req, nil
}

func (v recordValues) empty() bool {
	return v == recordValues{}
}

// dateInput returns a huh.Input for an optional date field with YYYY-MM-DD validation.
func dateInput(title string, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder("2024-03-30").
		Value(value).
		Validate(validateOptionalDate)
}

// recordForm collects a stage update; current holds the stored row so the
// form can prefill it.
func recordForm(stageName string, current *contract.ProgressView, v *recordValues) *huh.Form {
	if current != nil {
		v.plannedStart = contract.FormatDate(current.PlannedStartDate)
		v.plannedEnd = contract.FormatDate(current.PlannedEndDate)
		v.actualStart = contract.FormatDate(current.ActualStartDate)
		v.actualEnd = contract.FormatDate(current.ActualEndDate)
		v.completion = strconv.Itoa(current.CompletionPercentage)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title(stageName).Description("Blank fields are left unchanged."),
			dateInput("Planned start", &v.plannedStart),
			dateInput("Planned end", &v.plannedEnd),
			huh.NewInput().Title("Reason for plan change").Value(&v.reason),
		),
		huh.NewGroup(
			dateInput("Actual start", &v.actualStart),
			dateInput("Actual end", &v.actualEnd),
			huh.NewInput().Title("Completion %").Value(&v.completion).Validate(validatePercent),
			huh.NewInput().Title("Recorded by").Value(&v.recordedBy),
			huh.NewText().Title("Notes").Value(&v.notes),
		),
	).WithTheme(sitetrackHuhTheme()).WithShowHelp(false)
}

func validateOptionalDate(s string) error {
	if _, err := contract.ParseDate(s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}

// validatePercent accepts empty or any integer; out-of-range values are
// clamped by the service and reported back.
func validatePercent(s string) error {
	if s == "" {
		return nil
	}
	if _, err := strconv.Atoi(s); err != nil {
		return fmt.Errorf("enter a whole number")
	}
	return nil
}
