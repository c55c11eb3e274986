package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/sitetrack/internal/cli/formatter"
	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ── messages ─────────────────────────────────────────────────────────────────

type dashboardLoadedMsg struct {
	summary *contract.MapSummaryResponse
	details map[string]*contract.PlotDetailResponse
	err     error
}

type dashboardDetailLoadedMsg struct {
	detail *contract.PlotDetailResponse
	err    error
}

// ── keys ─────────────────────────────────────────────────────────────────────

type dashboardKeys struct {
	Toggle  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

var dashKeys = dashboardKeys{
	Toggle:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "expand")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ── model ────────────────────────────────────────────────────────────────────

// dashboardModel shows one map's plots in a table. Enter expands a plot to
// its stage rows. The expanded set and cursor live in contract.DashboardState
// so they survive restarts when statePath is set.
type dashboardModel struct {
	app       *App
	slug      string
	statePath string

	state   contract.DashboardState
	table   table.Model
	summary *contract.MapSummaryResponse
	details map[string]*contract.PlotDetailResponse
	loading bool
	err     error
	width   int
}

func newDashboardModel(app *App, slug, statePath string) *dashboardModel {
	t := table.New(
		table.WithColumns(dashboardColumns()),
		table.WithFocused(true),
		table.WithHeight(12),
		table.WithWidth(68),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(formatter.ColorHeader).Bold(true)
	styles.Selected = styles.Selected.Foreground(formatter.ColorFg).Background(lipgloss.Color("#504945"))
	t.SetStyles(styles)

	return &dashboardModel{
		app:       app,
		slug:      slug,
		statePath: statePath,
		state:     loadDashboardState(statePath),
		table:     t,
		details:   make(map[string]*contract.PlotDetailResponse),
		loading:   true,
	}
}

func dashboardColumns() []table.Column {
	return []table.Column{
		{Title: "", Width: 1},
		{Title: "PLOT", Width: 18},
		{Title: "STATUS", Width: 15},
		{Title: "DONE", Width: 5},
		{Title: "CURRENT STAGE", Width: 20},
	}
}

func (m *dashboardModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *dashboardModel) loadData() tea.Cmd {
	app, slug, expanded := m.app, m.slug, m.state.Expanded()
	return func() tea.Msg {
		ctx := context.Background()
		now := app.now()
		summary, err := app.Dashboard.MapSummary(ctx, slug, now)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}
		details := make(map[string]*contract.PlotDetailResponse, len(expanded))
		for _, id := range expanded {
			d, err := app.Dashboard.PlotDetail(ctx, id, now)
			if err != nil {
				continue
			}
			details[id] = d
		}
		return dashboardLoadedMsg{summary: summary, details: details}
	}
}

func (m *dashboardModel) loadDetail(plotID string) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		d, err := app.Dashboard.PlotDetail(context.Background(), plotID, app.now())
		return dashboardDetailLoadedMsg{detail: d, err: err}
	}
}

// ── update ───────────────────────────────────────────────────────────────────

func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 72 {
			m.table.SetWidth(msg.Width - 4)
		}
		if msg.Height > 10 {
			m.table.SetHeight(msg.Height - 10)
		}
		return m, nil

	case dashboardLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.summary = msg.summary
		m.details = msg.details
		m.syncRows()
		return m, nil

	case dashboardDetailLoadedMsg:
		if msg.err == nil && msg.detail != nil {
			m.details[msg.detail.Summary.PlotID] = msg.detail
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, dashKeys.Quit):
			m.saveState()
			return m, tea.Quit
		case key.Matches(msg, dashKeys.Refresh):
			m.loading = true
			return m, m.loadData()
		case key.Matches(msg, dashKeys.Toggle):
			return m, m.toggleSelected()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.state.Cursor = m.table.Cursor()
	return m, cmd
}

func (m *dashboardModel) toggleSelected() tea.Cmd {
	plotID := m.selectedPlotID()
	if plotID == "" {
		return nil
	}
	expanded := m.state.Toggle(plotID)
	m.syncRows()
	if expanded && m.details[plotID] == nil {
		return m.loadDetail(plotID)
	}
	return nil
}

func (m *dashboardModel) selectedPlotID() string {
	if m.summary == nil {
		return ""
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.summary.Plots) {
		return ""
	}
	return m.summary.Plots[i].PlotID
}

// syncRows rebuilds table rows from the summary and restores the cursor.
func (m *dashboardModel) syncRows() {
	if m.summary == nil {
		return
	}
	rows := make([]table.Row, 0, len(m.summary.Plots))
	for _, p := range m.summary.Plots {
		marker := "▸"
		if m.state.IsExpanded(p.PlotID) {
			marker = "▾"
		}
		stage := p.CurrentStage
		if stage == "" {
			stage = "--"
		}
		rows = append(rows, table.Row{
			marker,
			p.Name,
			plotStatusLabel(p),
			fmt.Sprintf("%d%%", p.Percentage),
			stage,
		})
	}
	m.table.SetRows(rows)
	if m.state.Cursor >= len(rows) {
		m.state.Cursor = max(0, len(rows)-1)
	}
	m.table.SetCursor(m.state.Cursor)
}

func plotStatusLabel(p contract.PlotSummaryView) string {
	return strings.ReplaceAll(strings.ToLower(string(p.Status)), "_", " ")
}

// ── view ─────────────────────────────────────────────────────────────────────

func (m *dashboardModel) View() string {
	if m.loading && m.summary == nil {
		return "\n  " + formatter.Dim("Loading...")
	}
	if m.err != nil {
		return "\n  " + formatter.StyleRed.Render("Error: "+m.err.Error())
	}

	var b strings.Builder
	b.WriteString(formatter.Header(m.summary.Map.Name) + "\n\n")
	b.WriteString(m.table.View() + "\n")

	for _, p := range m.summary.Plots {
		if !m.state.IsExpanded(p.PlotID) {
			continue
		}
		b.WriteString("\n" + formatter.Bold(p.Name) + "\n")
		d := m.details[p.PlotID]
		if d == nil {
			b.WriteString("  " + formatter.Dim("Loading stages...") + "\n")
			continue
		}
		if len(d.Stages) == 0 {
			b.WriteString("  " + formatter.Dim("No construction type assigned.") + "\n")
			continue
		}
		for _, st := range d.Stages {
			b.WriteString(fmt.Sprintf("  %-20s %s  %s\n",
				st.StageName,
				formatter.StageStatusPill(st.Status),
				formatter.RenderProgress(st.CompletionPercentage, 8)))
		}
	}

	b.WriteString("\n" + formatter.Dim(dashboardHelp()) + "\n")
	return b.String()
}

func dashboardHelp() string {
	parts := []string{"↑/↓ move"}
	for _, k := range []key.Binding{dashKeys.Toggle, dashKeys.Refresh, dashKeys.Quit} {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

// ── state persistence ────────────────────────────────────────────────────────

func loadDashboardState(path string) contract.DashboardState {
	state := contract.NewDashboardState()
	if path == "" {
		return state
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return contract.NewDashboardState()
	}
	if state.ExpandedPlots == nil {
		state.ExpandedPlots = make(map[string]bool)
	}
	return state
}

func (m *dashboardModel) saveState() {
	if m.statePath == "" {
		return
	}
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(m.statePath), 0o755); err != nil {
		m.app.logger().Warn("saving dashboard state", "error", err)
		return
	}
	if err := os.WriteFile(m.statePath, data, 0o600); err != nil {
		m.app.logger().Warn("saving dashboard state", "error", err)
	}
}
