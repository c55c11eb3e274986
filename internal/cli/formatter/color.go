package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StageStatusStyle returns the terminal style for a stage schedule status.
func StageStatusStyle(s domain.StageStatus) lipgloss.Style {
	switch s {
	case domain.StageOnTime:
		return StyleGreen
	case domain.StageDelayed:
		return StyleYellow
	case domain.StageOverdue:
		return StyleRed
	case domain.StageCompleted:
		return StyleBlue
	default:
		return StyleDim
	}
}

// StageStatusPill renders a stage status such as "● delayed".
func StageStatusPill(s domain.StageStatus) string {
	glyph := "●"
	switch s {
	case domain.StageCompleted:
		glyph = "✔"
	case domain.StageNotStarted:
		glyph = "○"
	}
	return StageStatusStyle(s).Render(glyph + " " + string(s))
}

// PlotStatusPill renders a plot's overall status.
func PlotStatusPill(s domain.PlotStatus) string {
	switch s {
	case domain.PlotCompleted:
		return StyleBlue.Render("✔ Completed")
	case domain.PlotInProgress:
		return StyleGreen.Render("● In Progress")
	case domain.PlotNotConfigured:
		return StylePurple.Render("? Not Configured")
	default:
		return StyleDim.Render("○ Not Started")
	}
}

// Swatch renders a small block in the given hex colour token.
func Swatch(c domain.ColorToken) string {
	if c == "" {
		c = domain.NotStartedColor
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(string(c))).Render("■")
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
