package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/repository"
	"github.com/alexanderramin/sitetrack/internal/resolver"
	"github.com/alexanderramin/sitetrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_FirstPlanOnSeededRowIsVersionOne(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)
	ctx := context.Background()
	roof := site.stage(t, "Roof")

	resp, err := svc.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID:              site.plot.ID,
		ConstructionStageID: roof.ID,
		PlannedStartDate:    day(1),
		PlannedEndDate:      day(20),
		RecordedBy:          "site-manager",
	})
	require.NoError(t, err)
	assert.False(t, resp.Created, "row already seeded with the plot")
	assert.True(t, resp.PlanChanged)
	assert.Equal(t, 1, resp.Progress.CurrentPlanVersion)
	assert.Equal(t, 1, resp.Attempts)

	history, err := svc.progress.History(ctx, resp.Progress.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].VersionNumber)
	assert.Equal(t, domain.ReasonInitialPlan, history[0].Reason)
	assert.Equal(t, "site-manager", history[0].ChangedBy)
}

func TestRecord_PlanChangeBumpsVersionAndAppendsHistory(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)
	ctx := context.Background()
	roof := site.stage(t, "Roof")

	_, err := svc.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		PlannedStartDate: day(1), PlannedEndDate: day(20),
	})
	require.NoError(t, err)

	resp, err := svc.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		PlannedEndDate: day(27),
		Reason:         "Scaffold delay",
	})
	require.NoError(t, err)
	assert.True(t, resp.PlanChanged)
	assert.Equal(t, 2, resp.Progress.CurrentPlanVersion)
	assert.True(t, resp.Progress.PlannedStartDate.Equal(*day(1)), "unsupplied side keeps stored value")
	assert.True(t, resp.Progress.PlannedEndDate.Equal(*day(27)))

	history, err := svc.progress.History(ctx, resp.Progress.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Scaffold delay", history[1].Reason)
	tip := resolver.MostRecentPlanVersion(history)
	assert.True(t, tip.PlannedEndDate.Equal(*day(27)))
}

func TestRecord_SameDatesIsNoOp(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)
	ctx := context.Background()
	roof := site.stage(t, "Roof")

	req := contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		PlannedStartDate: day(1), PlannedEndDate: day(20),
	}
	_, err := svc.progress.Record(ctx, req)
	require.NoError(t, err)

	// Same instants in another zone.
	zone := time.FixedZone("CET", 3600)
	start := day(1).In(zone)
	req.PlannedStartDate = &start
	req.Notes = "checked"
	resp, err := svc.progress.Record(ctx, req)
	require.NoError(t, err)
	assert.False(t, resp.PlanChanged)
	assert.Equal(t, 1, resp.Progress.CurrentPlanVersion)
	assert.Equal(t, "checked", resp.Progress.Notes)

	history, err := svc.progress.History(ctx, resp.Progress.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRecord_SubSecondResendIsNoOp(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)
	ctx := context.Background()
	roof := site.stage(t, "Roof")

	at := func(s string) *time.Time {
		ts, err := time.Parse(time.RFC3339Nano, s)
		require.NoError(t, err)
		return &ts
	}
	req := contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		PlannedStartDate: at("2025-02-05T10:00:00.5Z"),
		PlannedEndDate:   at("2025-02-20T10:00:00.5Z"),
	}
	first, err := svc.progress.Record(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 1, first.Progress.CurrentPlanVersion)

	again, err := svc.progress.Record(ctx, req)
	require.NoError(t, err)
	assert.False(t, again.PlanChanged)
	assert.Equal(t, 1, again.Progress.CurrentPlanVersion)

	history, err := svc.progress.History(ctx, first.Progress.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	facts := contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		ProgrammeStartDate: at("2025-01-01T08:00:00.25Z"),
		ProgrammeEndDate:   at("2025-03-01T08:00:00.25Z"),
		ActualStartDate:    at("2025-02-06T07:30:00.25Z"),
	}
	_, err = svc.progress.Record(ctx, facts)
	require.NoError(t, err)
	resp, err := svc.progress.Record(ctx, facts)
	require.NoError(t, err, "resending stored programme and actual dates must not conflict")
	assert.Equal(t, 1, resp.Progress.CurrentPlanVersion)
}

func TestRecord_CreatesMissingRow(t *testing.T) {
	conn := testutil.NewTestDB(t)
	svc := newTestServices(t, conn)
	site := seedSite(t, svc)
	ctx := context.Background()
	frame := site.stage(t, "Frame")

	// Remove the seeded rows to exercise the create path.
	require.NoError(t, svc.progressRepo.DeleteByPlot(ctx, site.plot.ID))

	resp, err := svc.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: frame.ID,
		PlannedStartDate: day(2), PlannedEndDate: day(9),
		CompletionPercentage: ptrInt(150),
	})
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.True(t, resp.PercentageClamped)
	assert.Equal(t, 100, resp.Progress.CompletionPercentage)
	assert.Equal(t, "Frame", resp.Progress.StageName)

	history, err := svc.progress.History(ctx, resp.Progress.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ReasonInitialPlan, history[0].Reason)
}

func TestRecord_StageFromOtherTypeRejected(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)
	ctx := context.Background()

	other := testutil.NewTestType("Bungalow", "Slab")
	require.NoError(t, svc.reference.CreateConstructionType(ctx, other))

	_, err := svc.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: other.Stages[0].ID, CompletionPercentage: ptrInt(10),
	})
	assert.ErrorIs(t, err, ErrStageNotInType)
}

func TestRecord_UnconfiguredPlotRejected(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)
	ctx := context.Background()

	bare := testutil.NewTestPlot(site.siteMap.ID, "Plot 2")
	require.NoError(t, svc.plots.Create(ctx, bare))

	_, err := svc.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID: bare.ID, ConstructionStageID: site.ctype.Stages[0].ID, CompletionPercentage: ptrInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestRecord_RequiresIDs(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	_, err := svc.progress.Record(context.Background(), contract.RecordProgressRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecord_BaselineIsImmutable(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)
	ctx := context.Background()
	roof := site.stage(t, "Roof")

	_, err := svc.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		ProgrammeStartDate: day(1), ProgrammeEndDate: day(15),
	})
	require.NoError(t, err)

	_, err = svc.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		ProgrammeEndDate: day(18),
	})
	assert.ErrorIs(t, err, domain.ErrImmutableBaseline)
}

func TestRecord_ActualEndWithoutStartRejected(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)

	_, err := svc.progress.Record(context.Background(), contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: site.stage(t, "Roof").ID,
		ActualEndDate: day(5),
	})
	assert.ErrorIs(t, err, domain.ErrInconsistentActualDates)
}

func TestRecord_ClassifiesWithClock(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)
	now := testutil.Date(2024, time.March, 17)

	resp, err := svc.progress.Record(context.Background(), contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: site.stage(t, "Roof").ID,
		PlannedStartDate: day(1), PlannedEndDate: day(20), ActualStartDate: day(2),
		Now: &now,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageDelayed, resp.Progress.Status, "within seven days of planned end")
	assert.Equal(t, resolver.StatusColor(domain.StageDelayed), resp.Progress.StatusColor)
}

func TestSetCompletion_ClampsAndKeepsVersion(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)
	ctx := context.Background()
	roof := site.stage(t, "Roof")

	resp, err := svc.progress.SetCompletion(ctx, site.plot.ID, roof.ID, -20)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Progress.CompletionPercentage)
	assert.True(t, resp.PercentageClamped)

	resp, err = svc.progress.SetCompletion(ctx, site.plot.ID, roof.ID, 45)
	require.NoError(t, err)
	assert.Equal(t, 45, resp.Progress.CompletionPercentage)
	assert.False(t, resp.PercentageClamped)
	assert.Equal(t, 1, resp.Progress.CurrentPlanVersion)
}

func TestSetCompletion_KeptByLaterPlanEdit(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)
	ctx := context.Background()
	roof := site.stage(t, "Roof")

	_, err := svc.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		PlannedStartDate: day(1), PlannedEndDate: day(20),
	})
	require.NoError(t, err)

	_, err = svc.progress.SetCompletion(ctx, site.plot.ID, roof.ID, 60)
	require.NoError(t, err)

	resp, err := svc.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		PlannedEndDate: day(25),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Progress.CurrentPlanVersion)
	assert.Equal(t, 60, resp.Progress.CompletionPercentage)

	stored, err := svc.progressRepo.GetByID(ctx, resp.Progress.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, stored.CompletionPercentage)
	assert.Equal(t, 2, stored.CurrentPlanVersion)
}

func TestListByPlot_OrderedByStage(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)

	views, err := svc.progress.ListByPlot(context.Background(), site.plot.ID, time.Now())
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, []string{"Foundations", "Frame", "Roof"},
		[]string{views[0].StageName, views[1].StageName, views[2].StageName})
	for _, v := range views {
		assert.Equal(t, domain.StageNotStarted, v.Status)
	}
}

func TestHistory_UnknownProgress(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	_, err := svc.progress.History(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestVerifyHistory_DetectsGap(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	site := seedSite(t, svc)
	ctx := context.Background()
	roof := site.stage(t, "Roof")

	for _, end := range []int{20, 22, 25} {
		_, err := svc.progress.Record(ctx, contract.RecordProgressRequest{
			PlotID: site.plot.ID, ConstructionStageID: roof.ID,
			PlannedStartDate: day(1), PlannedEndDate: day(end),
		})
		require.NoError(t, err)
	}

	checks, err := svc.progress.VerifyHistory(ctx, site.plot.ID)
	require.NoError(t, err)
	require.Len(t, checks, 3)
	for _, c := range checks {
		assert.True(t, c.OK(), c.Problem)
	}
	assert.Equal(t, 3, checks[2].CurrentVersion)
	assert.Equal(t, 3, checks[2].HistoryRows)

	// Corrupt: drop version 2.
	_, err = svc.db.ExecContext(ctx,
		`DELETE FROM construction_plan_history WHERE construction_progress_id = ? AND version_number = 2`,
		checks[2].ProgressID)
	require.NoError(t, err)

	checks, err = svc.progress.VerifyHistory(ctx, site.plot.ID)
	require.NoError(t, err)
	assert.False(t, checks[2].OK())
	assert.Contains(t, checks[2].Problem, "not contiguous")
}

func TestRecord_RollbackWhenHistoryAppendFails(t *testing.T) {
	conn := testutil.NewTestDB(t)
	svc := newTestServices(t, conn)
	site := seedSite(t, svc)
	ctx := context.Background()
	roof := site.stage(t, "Roof")

	_, err := svc.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		PlannedStartDate: day(1), PlannedEndDate: day(20),
	})
	require.NoError(t, err)

	failing := newTestServicesWithUoW(t, conn, &testutil.FaultyUoW{
		DB:        conn,
		Statement: "INSERT INTO construction_plan_history",
		FailOn:    1,
		Err:    fmt.Errorf("injected history failure"),
	})
	_, err = failing.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		PlannedEndDate: day(28),
	})
	require.ErrorContains(t, err, "injected history failure")

	row, err := svc.progressRepo.GetByPlotStage(ctx, site.plot.ID, roof.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, row.CurrentPlanVersion, "version unchanged after rollback")
	assert.True(t, row.PlannedEndDate.Equal(*day(20)))
}

// raceOnceUoW simulates a concurrent planner: the first progress update it
// sees is preceded by a version bump inside the same transaction, so the
// compare-and-swap fails and the transaction rolls back.
type raceOnceUoW struct {
	DB    *sql.DB
	fired atomic.Bool
}

func (u *raceOnceUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, &raceOnExec{DBTX: tx, uow: u}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type raceOnExec struct {
	db.DBTX
	uow *raceOnceUoW
}

func (r *raceOnExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.HasPrefix(strings.TrimSpace(query), "UPDATE construction_progress SET") && r.uow.fired.CompareAndSwap(false, true) {
		id := args[len(args)-2]
		if _, err := r.DBTX.ExecContext(ctx,
			`UPDATE construction_progress SET current_plan_version = current_plan_version + 1 WHERE id = ?`, id); err != nil {
			return nil, err
		}
	}
	return r.DBTX.ExecContext(ctx, query, args...)
}

func TestRecord_RetriesAfterVersionRace(t *testing.T) {
	conn := testutil.NewTestDB(t)
	svc := newTestServices(t, conn)
	site := seedSite(t, svc)
	ctx := context.Background()
	roof := site.stage(t, "Roof")

	racing := newTestServicesWithUoW(t, conn, &raceOnceUoW{DB: conn})
	resp, err := racing.progress.Record(ctx, contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		PlannedStartDate: day(1), PlannedEndDate: day(20),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Attempts)
	assert.Equal(t, 1, resp.Progress.CurrentPlanVersion)

	checks, err := svc.progress.VerifyHistory(ctx, site.plot.ID)
	require.NoError(t, err)
	for _, c := range checks {
		assert.True(t, c.OK(), c.Problem)
	}
}

func TestRecord_GivesUpAfterRetries(t *testing.T) {
	conn := testutil.NewTestDB(t)
	svc := newTestServices(t, conn)
	site := seedSite(t, svc)
	roof := site.stage(t, "Roof")

	uow := &raceOnceUoW{DB: conn}
	noRetry := NewProgressService(svc.progressRepo, svc.historyRepo, uow, ProgressOptions{Retries: 0})
	_, err := noRetry.Record(context.Background(), contract.RecordProgressRequest{
		PlotID: site.plot.ID, ConstructionStageID: roof.ID,
		PlannedStartDate: day(1), PlannedEndDate: day(20),
	})
	assert.ErrorIs(t, err, domain.ErrVersionRace)
}

// TestRecord_ConcurrentPlanEdits runs several planners against the same row on
// a file database. Every edit lands and the history stays contiguous.
func TestRecord_ConcurrentPlanEdits(t *testing.T) {
	conn := testutil.NewFileTestDB(t)
	svc := newTestServices(t, conn)
	svc.progress = NewProgressService(svc.progressRepo, svc.historyRepo, testutil.NewTestUoW(conn), ProgressOptions{Retries: 20})
	site := seedSite(t, svc)
	ctx := context.Background()
	roof := site.stage(t, "Roof")

	const writers = 5
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.progress.Record(ctx, contract.RecordProgressRequest{
				PlotID: site.plot.ID, ConstructionStageID: roof.ID,
				PlannedStartDate: day(1), PlannedEndDate: day(10 + n),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	row, err := svc.progressRepo.GetByPlotStage(ctx, site.plot.ID, roof.ID)
	require.NoError(t, err)
	history, err := svc.historyRepo.ListByProgress(ctx, row.ID)
	require.NoError(t, err)
	assert.Len(t, history, row.CurrentPlanVersion)
	assert.NoError(t, resolver.ValidateHistory(*row, history))
}
