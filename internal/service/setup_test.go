package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/repository"
	"github.com/alexanderramin/sitetrack/internal/testutil"
	"github.com/stretchr/testify/require"
)

type testServices struct {
	db        *sql.DB
	progress  ProgressService
	plots     PlotService
	dashboard DashboardService
	reference ReferenceService
	imports   ImportService

	progressRepo *repository.SQLiteProgressRepo
	historyRepo  *repository.SQLitePlanHistoryRepo
}

func newTestServices(t *testing.T, conn *sql.DB) *testServices {
	t.Helper()
	return newTestServicesWithUoW(t, conn, testutil.NewTestUoW(conn))
}

func newTestServicesWithUoW(t *testing.T, conn *sql.DB, uow db.UnitOfWork) *testServices {
	t.Helper()
	progressRepo := repository.NewSQLiteProgressRepo(conn)
	historyRepo := repository.NewSQLitePlanHistoryRepo(conn)
	mapRepo := repository.NewSQLiteSiteMapRepo(conn)
	plotRepo := repository.NewSQLitePlotRepo(conn)
	return &testServices{
		db:        conn,
		progress:  NewProgressService(progressRepo, historyRepo, uow, ProgressOptions{Retries: DefaultPlanUpdateRetries}),
		plots:     NewPlotService(plotRepo, progressRepo, uow),
		dashboard: NewDashboardService(mapRepo, plotRepo, progressRepo, 0),
		reference: NewReferenceService(
			mapRepo,
			repository.NewSQLiteConstructionTypeRepo(conn),
			repository.NewSQLiteHomebuilderRepo(conn),
			repository.NewSQLiteUnitTypeRepo(conn),
			repository.NewSQLiteSalesUpdateRepo(conn),
			uow,
		),
		imports:      NewImportService(uow),
		progressRepo: progressRepo,
		historyRepo:  historyRepo,
	}
}

type testSite struct {
	siteMap *domain.SiteMap
	ctype   *domain.ConstructionType
	plot    *domain.Plot
}

// stage returns the stage of the test type with the given name.
func (s testSite) stage(t *testing.T, name string) domain.ConstructionStage {
	t.Helper()
	for _, st := range s.ctype.Stages {
		if st.Name == name {
			return st
		}
	}
	t.Fatalf("no stage %q", name)
	return domain.ConstructionStage{}
}

// seedSite creates a map, a three-stage type and one configured plot through
// the services, so the plot's progress rows are bulk seeded.
func seedSite(t *testing.T, svc *testServices) testSite {
	t.Helper()
	ctx := context.Background()

	m := testutil.NewTestMap("Welbourne", testutil.WithSlug("welbourne"))
	require.NoError(t, svc.reference.CreateMap(ctx, m))

	ct := testutil.NewTestType("Detached", "Foundations", "Frame", "Roof")
	require.NoError(t, svc.reference.CreateConstructionType(ctx, ct))

	plot := testutil.NewTestPlot(m.ID, "Plot 1", testutil.WithConstructionType(ct.ID))
	require.NoError(t, svc.plots.Create(ctx, plot))

	return testSite{siteMap: m, ctype: ct, plot: plot}
}

func ptrInt(i int) *int { return &i }

func day(d int) *time.Time {
	return testutil.DatePtr(2024, time.March, d)
}
