package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/repository"
	"github.com/alexanderramin/sitetrack/internal/service"
	"github.com/alexanderramin/sitetrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	conn := testutil.NewTestDB(t)
	uow := db.NewSQLiteUnitOfWork(conn)

	mapRepo := repository.NewSQLiteSiteMapRepo(conn)
	plotRepo := repository.NewSQLitePlotRepo(conn)
	progressRepo := repository.NewSQLiteProgressRepo(conn)

	return &App{
		Progress: service.NewProgressService(progressRepo, repository.NewSQLitePlanHistoryRepo(conn), uow,
			service.ProgressOptions{Retries: service.DefaultPlanUpdateRetries}),
		Plots:     service.NewPlotService(plotRepo, progressRepo, uow),
		Dashboard: service.NewDashboardService(mapRepo, plotRepo, progressRepo, 0),
		Reference: service.NewReferenceService(
			mapRepo,
			repository.NewSQLiteConstructionTypeRepo(conn),
			repository.NewSQLiteHomebuilderRepo(conn),
			repository.NewSQLiteUnitTypeRepo(conn),
			repository.NewSQLiteSalesUpdateRepo(conn),
			uow,
		),
		Import: service.NewImportService(uow),
		DB:     conn,
		Now:    func() time.Time { return testutil.Date(2024, time.March, 10) },
	}
}

// seedSite creates the welbourne map, a three-stage Detached type and Plot 1
// through the CLI itself.
func seedSite(t *testing.T, app *App) {
	t.Helper()
	mustExec(t, app, "map", "add", "--name", "Welbourne", "--slug", "welbourne")
	mustExec(t, app, "type", "add", "--name", "Detached", "--stage", "Foundations,Frame,Roof")
	mustExec(t, app, "plot", "add", "--name", "Plot 1", "--map", "welbourne", "--type", "Detached",
		"--coords", "[[0,0],[10,0],[10,8],[0,8]]", "--beds", "4")
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func mustExec(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, "sitetrack %v\n%s", args, out)
	return out
}

// --- Maps, types, plots ---

func TestMapCmd_AddAndList(t *testing.T) {
	app := testApp(t)

	out := mustExec(t, app, "map", "add", "--name", "Welbourne", "--slug", "welbourne")
	assert.Contains(t, out, "Created map Welbourne (welbourne)")

	out = mustExec(t, app, "map", "list")
	assert.Contains(t, out, "welbourne")
	assert.Contains(t, out, "Welbourne")
}

func TestMapCmd_RejectsBadSlug(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "map", "add", "--name", "Welbourne", "--slug", "Welbourne Phase 2")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestTypeCmd_ListsStagesInOrder(t *testing.T) {
	app := testApp(t)
	out := mustExec(t, app, "type", "add", "--name", "Detached", "--stage", "Foundations,Frame", "--stage", "Roof")
	assert.Contains(t, out, "Created construction type Detached (3 stages)")

	out = mustExec(t, app, "type", "list")
	found := bytes.Index([]byte(out), []byte("Foundations"))
	frame := bytes.Index([]byte(out), []byte("Frame"))
	roof := bytes.Index([]byte(out), []byte("Roof"))
	require.True(t, found >= 0 && frame >= 0 && roof >= 0, out)
	assert.Less(t, found, frame)
	assert.Less(t, frame, roof)
}

func TestPlotCmd_AddSeedsStages(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "map", "add", "--name", "Welbourne", "--slug", "welbourne")
	mustExec(t, app, "type", "add", "--name", "Detached", "--stage", "Foundations,Frame,Roof")

	out := mustExec(t, app, "plot", "add", "--name", "Plot 1", "--map", "welbourne", "--type", "Detached")
	assert.Contains(t, out, "(3 stages)")

	out = mustExec(t, app, "plot", "add", "--name", "Plot 2", "--map", "welbourne")
	assert.Contains(t, out, "(0 stages)")

	out = mustExec(t, app, "plot", "list", "--map", "welbourne")
	assert.Contains(t, out, "Plot 1")
	assert.Contains(t, out, "Plot 2")
}

func TestPlotCmd_InvalidCoords(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "map", "add", "--name", "Welbourne", "--slug", "welbourne")
	_, err := executeCmd(t, app, "plot", "add", "--name", "Plot 1", "--map", "welbourne", "--coords", "not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--coords")
}

func TestPlotCmd_AssignAndRemove(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "map", "add", "--name", "Welbourne", "--slug", "welbourne")
	mustExec(t, app, "type", "add", "--name", "Bungalow", "--stage", "Slab,Roof")
	mustExec(t, app, "plot", "add", "--name", "Plot 9", "--map", "welbourne")

	_, err := executeCmd(t, app, "progress", "record", "Plot 9", "Slab", "--planned-start", "2024-03-01")
	require.ErrorIs(t, err, domain.ErrNotConfigured)

	out := mustExec(t, app, "plot", "assign", "Plot 9", "Bungalow")
	assert.Contains(t, out, "Assigned Bungalow to Plot 9 (2 stages)")
	mustExec(t, app, "progress", "record", "Plot 9", "Slab", "--planned-start", "2024-03-01", "--planned-end", "2024-03-08")

	mustExec(t, app, "type", "add", "--name", "Terrace", "--stage", "Footings")
	_, err = executeCmd(t, app, "plot", "assign", "Plot 9", "Terrace")
	require.ErrorIs(t, err, domain.ErrProgressRecorded)

	_, err = executeCmd(t, app, "type", "add", "--name", "Cabin", "--stage", "Slab,Slab")
	require.ErrorIs(t, err, service.ErrInvalidInput)

	out = mustExec(t, app, "plot", "remove", "Plot 9")
	assert.Contains(t, out, "Removed plot Plot 9")
	out = mustExec(t, app, "plot", "list")
	assert.Contains(t, out, "No plots found.")
}

// --- Progress ---

func TestProgressCmd_RecordPlanAndHistory(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)

	out := mustExec(t, app, "progress", "record", "Plot 1", "Frame",
		"--planned-start", "2024-03-06", "--planned-end", "2024-03-30", "--by", "site-manager")
	assert.Contains(t, out, "Frame")
	assert.Contains(t, out, "v1")

	out = mustExec(t, app, "progress", "record", "plot 1", "frame",
		"--planned-end", "2024-04-05", "--reason", "Scaffold delayed")
	assert.Contains(t, out, "plan changed, now version 2")

	out = mustExec(t, app, "progress", "history", "Plot 1", "Frame")
	assert.Contains(t, out, "v1")
	assert.Contains(t, out, domain.ReasonInitialPlan)
	assert.Contains(t, out, "v2")
	assert.Contains(t, out, "Scaffold delayed")
	assert.Contains(t, out, "2024-03-06 → 2024-04-05")

	out = mustExec(t, app, "plan", "verify", "Plot 1")
	assert.Contains(t, out, "All plan histories consistent.")
}

func TestProgressCmd_UnchangedPlanKeepsVersion(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)

	mustExec(t, app, "progress", "record", "Plot 1", "Frame", "--planned-start", "2024-03-06", "--planned-end", "2024-03-30")
	out := mustExec(t, app, "progress", "record", "Plot 1", "Frame",
		"--planned-start", "2024-03-06", "--planned-end", "2024-03-30", "--actual-start", "2024-03-07")
	assert.NotContains(t, out, "plan changed")
	assert.Contains(t, out, "v1")
	assert.Contains(t, out, "on-time")
}

func TestProgressCmd_CompleteClamps(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)

	out := mustExec(t, app, "progress", "complete", "Plot 1", "Foundations", "150")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "clamped")

	_, err := executeCmd(t, app, "progress", "complete", "Plot 1", "Foundations", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a number")
}

func TestProgressCmd_Errors(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "no flags and not interactive",
			args:    []string{"progress", "record", "Plot 1", "Frame"},
			wantMsg: "nothing to record",
		},
		{
			name:    "bad date",
			args:    []string{"progress", "record", "Plot 1", "Frame", "--planned-start", "06/03/2024"},
			wantMsg: "--planned-start",
		},
		{
			name:    "actual end without start",
			args:    []string{"progress", "record", "Plot 1", "Frame", "--actual-end", "2024-03-20"},
			wantErr: domain.ErrInconsistentActualDates,
		},
		{
			name:    "unknown stage",
			args:    []string{"progress", "record", "Plot 1", "Chimney", "--planned-start", "2024-03-01"},
			wantMsg: "stages: Foundations, Frame, Roof",
		},
		{
			name:    "unknown plot",
			args:    []string{"progress", "record", "Plot 7", "Frame", "--planned-start", "2024-03-01"},
			wantMsg: "plot not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCmd(t, app, tt.args...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestProgressCmd_ActualDatesAreAppendOnly(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)

	mustExec(t, app, "progress", "record", "Plot 1", "Foundations", "--actual-start", "2024-03-01")
	_, err := executeCmd(t, app, "progress", "record", "Plot 1", "Foundations", "--actual-start", "2024-03-02")
	assert.ErrorIs(t, err, domain.ErrActualDateAlreadySet)
}

// --- Views ---

func TestStatusAndSummary(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)
	mustExec(t, app, "progress", "record", "Plot 1", "Foundations",
		"--planned-start", "2024-03-01", "--planned-end", "2024-03-05",
		"--actual-start", "2024-03-01", "--actual-end", "2024-03-04", "--complete", "100")
	mustExec(t, app, "progress", "record", "Plot 1", "Frame",
		"--planned-start", "2024-03-06", "--planned-end", "2024-03-30",
		"--actual-start", "2024-03-06", "--complete", "40")

	out := mustExec(t, app, "status", "Plot 1")
	assert.Contains(t, out, "Foundations")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "Current stage: Frame")

	out = mustExec(t, app, "map", "summary", "welbourne")
	assert.Contains(t, out, "Plot 1")
	assert.Contains(t, out, "1 In Progress")

	out = mustExec(t, app, "matrix", "welbourne")
	assert.Contains(t, out, "Plot 1")

	_, err := executeCmd(t, app, "map", "summary", "nowhere")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMatrixCmd_Empty(t *testing.T) {
	app := testApp(t)
	out := mustExec(t, app, "matrix")
	assert.Contains(t, out, "No plots found.")
}

// --- Reference data ---

func TestReferenceCmds(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)

	mustExec(t, app, "homebuilder", "add", "--name", "Acme Homes", "--email", "sales@acme.test")
	out := mustExec(t, app, "homebuilder", "list")
	assert.Contains(t, out, "Acme Homes")
	assert.Contains(t, out, "sales@acme.test")

	mustExec(t, app, "unit-type", "add", "--name", "Four bed", "--description", "Detached four bedroom")
	out = mustExec(t, app, "unit-type", "list")
	assert.Contains(t, out, "Four bed")

	out = mustExec(t, app, "sales", "add", "Plot 1", "--programmed", "2024-06-01",
		"--planned", "2024-06-15:Kitchen supplier", "--by", "sales")
	assert.Contains(t, out, "Recorded sales update for Plot 1")

	out = mustExec(t, app, "sales", "list", "Plot 1")
	assert.Contains(t, out, "2024-06-01")
	assert.Contains(t, out, "2024-06-15")
	assert.Contains(t, out, "Kitchen supplier")

	_, err := executeCmd(t, app, "sales", "add", "Plot 1", "--planned", "soon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

// --- Import ---

const cliSiteYAML = `
construction_types:
  - name: Detached
    stages:
      - name: Foundations
      - name: Frame
maps:
  - name: Welbourne
    slug: welbourne
    plots:
      - name: Plot 1
        construction_type: Detached
        progress:
          - stage: Foundations
            planned_start: "2024-03-01"
            planned_end: "2024-03-05"
      - name: Plot 2
`

func TestImportCmd(t *testing.T) {
	app := testApp(t)
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cliSiteYAML), 0o600))

	out := mustExec(t, app, "import", path)
	assert.Contains(t, out, "Plots")
	assert.Contains(t, out, "Progress rows")

	out = mustExec(t, app, "plot", "list")
	assert.Contains(t, out, "Plot 1")
	assert.Contains(t, out, "Plot 2")

	out = mustExec(t, app, "plan", "verify", "Plot 1")
	assert.Contains(t, out, "All plan histories consistent.")
}

// --- Non-interactive guards ---

func TestDashboardCmd_RequiresTerminal(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "dashboard", "welbourne")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestResolvePlot(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)
	ctx := context.Background()
	mustExec(t, app, "plot", "add", "--name", "plot 1", "--map", "welbourne")

	_, err := resolvePlot(ctx, app, "Plot 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	plots, err := app.Plots.List(ctx)
	require.NoError(t, err)
	require.Len(t, plots, 2)

	got, err := resolvePlot(ctx, app, plots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, plots[0].ID, got.ID)

	got, err = resolvePlot(ctx, app, plots[1].ID[:12])
	require.NoError(t, err)
	assert.Equal(t, plots[1].ID, got.ID)

	_, err = resolvePlot(ctx, app, "")
	require.Error(t, err)
}
