package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/testutil"
	"github.com/stretchr/testify/require"
)

// seedPlot stores a map, a construction type with the given stages and a plot
// configured with that type.
func seedPlot(t *testing.T, conn *sql.DB, stageNames ...string) (*domain.Plot, *domain.ConstructionType) {
	t.Helper()
	ctx := context.Background()

	m := testutil.NewTestMap("Welbourne")
	require.NoError(t, NewSQLiteSiteMapRepo(conn).Create(ctx, m))

	ct := testutil.NewTestType("Detached", stageNames...)
	require.NoError(t, NewSQLiteConstructionTypeRepo(conn).Create(ctx, ct))

	plot := testutil.NewTestPlot(m.ID, "Plot 1", testutil.WithConstructionType(ct.ID))
	require.NoError(t, NewSQLitePlotRepo(conn).Create(ctx, plot))
	return plot, ct
}
