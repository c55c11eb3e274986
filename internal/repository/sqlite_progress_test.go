package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressRepo_CreateAndGet(t *testing.T) {
	conn := testutil.NewTestDB(t)
	ctx := context.Background()
	plot, ct := seedPlot(t, conn, "Foundations")
	repo := NewSQLiteProgressRepo(conn)

	p := testutil.NewTestProgress(plot.ID, ct.Stages[0],
		testutil.WithProgramme(testutil.Date(2024, 1, 1), testutil.Date(2024, 1, 31)),
		testutil.WithPlanned(testutil.Date(2024, 1, 3), testutil.Date(2024, 2, 2)),
		testutil.WithActualStart(testutil.Date(2024, 1, 4)),
		testutil.WithCompletion(35),
	)
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, plot.ID, got.PlotID)
	assert.Equal(t, 35, got.CompletionPercentage)
	assert.Equal(t, 1, got.CurrentPlanVersion)
	assert.True(t, got.ProgrammeStartDate.Equal(testutil.Date(2024, 1, 1)))
	assert.True(t, got.PlannedEndDate.Equal(testutil.Date(2024, 2, 2)))
	assert.True(t, got.ActualStartDate.Equal(testutil.Date(2024, 1, 4)))
	assert.Nil(t, got.ActualEndDate)
	require.NotNil(t, got.Stage)
	assert.Equal(t, "Foundations", got.Stage.Name)
	assert.Equal(t, 1, got.Stage.SortOrder)
}

func TestProgressRepo_GetByID_NotFound(t *testing.T) {
	conn := testutil.NewTestDB(t)
	_, err := NewSQLiteProgressRepo(conn).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProgressRepo_Create_DuplicatePlotStage(t *testing.T) {
	conn := testutil.NewTestDB(t)
	ctx := context.Background()
	plot, ct := seedPlot(t, conn, "Foundations")
	repo := NewSQLiteProgressRepo(conn)

	require.NoError(t, repo.Create(ctx, testutil.NewTestProgress(plot.ID, ct.Stages[0])))
	err := repo.Create(ctx, testutil.NewTestProgress(plot.ID, ct.Stages[0]))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestProgressRepo_ListByPlot_OrderedBySortOrder(t *testing.T) {
	conn := testutil.NewTestDB(t)
	ctx := context.Background()
	plot, ct := seedPlot(t, conn, "Foundations", "Frame", "Roof")
	repo := NewSQLiteProgressRepo(conn)

	// Insert in reverse so row order cannot come from insertion order.
	rows := []*domain.ConstructionProgress{
		testutil.NewTestProgress(plot.ID, ct.Stages[2]),
		testutil.NewTestProgress(plot.ID, ct.Stages[0]),
		testutil.NewTestProgress(plot.ID, ct.Stages[1]),
	}
	require.NoError(t, repo.CreateMany(ctx, rows))

	got, err := repo.ListByPlot(ctx, plot.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Foundations", got[0].StageName())
	assert.Equal(t, "Frame", got[1].StageName())
	assert.Equal(t, "Roof", got[2].StageName())
}

func TestProgressRepo_ListByMap(t *testing.T) {
	conn := testutil.NewTestDB(t)
	ctx := context.Background()
	plot, ct := seedPlot(t, conn, "Foundations", "Frame")
	repo := NewSQLiteProgressRepo(conn)

	other := testutil.NewTestPlot(plot.MapID, "Plot 2", testutil.WithConstructionType(ct.ID))
	require.NoError(t, NewSQLitePlotRepo(conn).Create(ctx, other))

	require.NoError(t, repo.CreateMany(ctx, []*domain.ConstructionProgress{
		testutil.NewTestProgress(plot.ID, ct.Stages[0]),
		testutil.NewTestProgress(plot.ID, ct.Stages[1]),
		testutil.NewTestProgress(other.ID, ct.Stages[0]),
	}))

	got, err := repo.ListByMap(ctx, plot.MapID)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	none, err := repo.ListByMap(ctx, "no-such-map")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProgressRepo_UpdateIfVersion(t *testing.T) {
	conn := testutil.NewTestDB(t)
	ctx := context.Background()
	plot, ct := seedPlot(t, conn, "Foundations")
	repo := NewSQLiteProgressRepo(conn)

	p := testutil.NewTestProgress(plot.ID, ct.Stages[0],
		testutil.WithPlanned(testutil.Date(2024, 1, 1), testutil.Date(2024, 1, 31)))
	require.NoError(t, repo.Create(ctx, p))

	p.PlannedEndDate = testutil.DatePtr(2024, 2, 15)
	p.CurrentPlanVersion = 2
	require.NoError(t, repo.UpdateIfVersion(ctx, p, 1))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentPlanVersion)
	assert.True(t, got.PlannedEndDate.Equal(testutil.Date(2024, 2, 15)))

	// A writer still holding version 1 loses.
	stale := *p
	stale.CurrentPlanVersion = 2
	err = repo.UpdateIfVersion(ctx, &stale, 1)
	assert.ErrorIs(t, err, domain.ErrVersionRace)
}

func TestProgressRepo_UpdateIfVersion_NotFound(t *testing.T) {
	conn := testutil.NewTestDB(t)
	p := &domain.ConstructionProgress{ID: "missing", CurrentPlanVersion: 2, UpdatedAt: time.Now()}
	err := NewSQLiteProgressRepo(conn).UpdateIfVersion(context.Background(), p, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProgressRepo_CompletionCheckConstraint(t *testing.T) {
	conn := testutil.NewTestDB(t)
	ctx := context.Background()
	plot, ct := seedPlot(t, conn, "Foundations")
	repo := NewSQLiteProgressRepo(conn)

	p := testutil.NewTestProgress(plot.ID, ct.Stages[0])
	require.NoError(t, repo.Create(ctx, p))
	p.CompletionPercentage = 101
	assert.Error(t, repo.UpdateIfVersion(ctx, p, p.CurrentPlanVersion))
}

func TestProgressRepo_DeleteByPlot_CascadesHistory(t *testing.T) {
	conn := testutil.NewTestDB(t)
	ctx := context.Background()
	plot, ct := seedPlot(t, conn, "Foundations")
	repo := NewSQLiteProgressRepo(conn)
	history := NewSQLitePlanHistoryRepo(conn)

	p := testutil.NewTestProgress(plot.ID, ct.Stages[0])
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, history.Append(ctx,
		testutil.NewTestHistory(p.ID, 1, testutil.Date(2024, 1, 1), testutil.Date(2024, 1, 31))))

	require.NoError(t, repo.DeleteByPlot(ctx, plot.ID))

	rows, err := repo.ListByPlot(ctx, plot.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	h, err := history.ListByProgress(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, h)
}
