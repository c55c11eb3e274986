package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/importer"
	"github.com/alexanderramin/sitetrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const siteYAML = `
construction_types:
  - name: Detached
    stages:
      - name: Foundations
      - name: Frame
      - name: Roof
homebuilders:
  - name: Acme Homes
unit_types:
  - name: Four bed
maps:
  - name: Welbourne
    slug: welbourne
    width: 2000
    height: 1500
    plots:
      - name: Plot 1
        construction_type: Detached
        homebuilder: Acme Homes
        unit_type: Four bed
        coordinates: [[0, 0], [4, 0], [4, 2], [0, 2]]
        progress:
          - stage: Foundations
            planned_start: "2024-03-01"
            planned_end: "2024-03-05"
            actual_start: "2024-03-01"
            actual_end: "2024-03-04"
            completion: 100
          - stage: Frame
            planned_start: "2024-03-06"
            planned_end: "2024-03-30"
            actual_start: "2024-03-06"
            completion: 40
      - name: Plot 2
`

func TestImportFile_SeedsSite(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(siteYAML), 0o600))

	result, err := svc.imports.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ConstructionTypeCount)
	assert.Equal(t, 1, result.MapCount)
	assert.Equal(t, 2, result.PlotCount)
	assert.Equal(t, 3, result.ProgressRowCount)

	resp, err := svc.dashboard.MapSummary(ctx, "welbourne", testutil.Date(2024, time.March, 10))
	require.NoError(t, err)
	require.Len(t, resp.Plots, 2)
	p1 := resp.Plots[0]
	assert.Equal(t, "Plot 1", p1.Name)
	assert.Equal(t, domain.PlotInProgress, p1.Status)
	assert.Equal(t, 40, p1.Percentage)
	assert.Equal(t, "Frame", p1.CurrentStage)
	require.NotNil(t, p1.CentroidX)
	assert.Equal(t, 2.0, *p1.CentroidX)

	checks, err := svc.progress.VerifyHistory(ctx, p1.PlotID)
	require.NoError(t, err)
	for _, c := range checks {
		assert.True(t, c.OK(), c.Problem)
	}
}

func TestImportSchema_ValidationErrors(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	schema := &importer.SiteSchema{
		Maps: []importer.MapImport{{Name: "X", Slug: "x", Plots: []importer.PlotImport{{Name: "P", ConstructionType: "Nope"}}}},
	}
	_, err := svc.imports.ImportSchema(context.Background(), schema)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorContains(t, err, "import validation failed (1 errors)")
}

func TestImportSchema_RefusesOutOfRangeCompletion(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	schema, err := importer.ParseSiteSchema([]byte(strings.Replace(siteYAML, "completion: 40", "completion: 140", 1)))
	require.NoError(t, err)

	_, err = svc.imports.ImportSchema(context.Background(), schema)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, domain.ErrInvalidPercentage)

	maps, err := svc.reference.ListMaps(context.Background())
	require.NoError(t, err)
	assert.Empty(t, maps)
}

func TestImportSchema_AtomicOnConflict(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	ctx := context.Background()
	require.NoError(t, svc.reference.CreateMap(ctx, &domain.SiteMap{Name: "Existing", Slug: "welbourne"}))

	schema, err := importer.ParseSiteSchema([]byte(siteYAML))
	require.NoError(t, err)
	_, err = svc.imports.ImportSchema(ctx, schema)
	require.Error(t, err)

	types, err := svc.reference.ListConstructionTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, types, "construction types rolled back with the failed map")
}

func TestImportFile_Missing(t *testing.T) {
	svc := newTestServices(t, testutil.NewTestDB(t))
	_, err := svc.imports.ImportFile(context.Background(), "/nonexistent/site.yaml")
	assert.ErrorContains(t, err, "loading import file")
}
