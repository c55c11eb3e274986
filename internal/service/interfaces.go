package service

import (
	"context"
	"time"

	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/importer"
)

// ProgressService records construction progress and maintains plan history.
type ProgressService interface {
	// Record creates the (plot, stage) row on first use and updates it afterwards.
	Record(ctx context.Context, req contract.RecordProgressRequest) (*contract.RecordProgressResponse, error)
	// SetCompletion clamps pct to [0,100] and records it for the stage.
	SetCompletion(ctx context.Context, plotID, stageID string, pct int) (*contract.RecordProgressResponse, error)
	ListByPlot(ctx context.Context, plotID string, now time.Time) ([]contract.ProgressView, error)
	History(ctx context.Context, progressID string) ([]domain.ConstructionPlanHistory, error)
	VerifyHistory(ctx context.Context, plotID string) ([]contract.HistoryCheck, error)
}

type PlotService interface {
	// Create stores the plot and, when it has a construction type, one
	// progress row per stage.
	Create(ctx context.Context, p *domain.Plot) error
	GetByID(ctx context.Context, id string) (*domain.Plot, error)
	List(ctx context.Context) ([]*domain.Plot, error)
	ListByMap(ctx context.Context, mapID string) ([]*domain.Plot, error)
	Update(ctx context.Context, p *domain.Plot) error
	Delete(ctx context.Context, id string) error
	// AssignConstructionType replaces the plot's stage rows with fresh rows
	// for the new type. It fails with domain.ErrProgressRecorded when any row
	// holds dates or plan history.
	AssignConstructionType(ctx context.Context, plotID, typeID string) error
}

type DashboardService interface {
	MapSummary(ctx context.Context, slug string, now time.Time) (*contract.MapSummaryResponse, error)
	PlotDetail(ctx context.Context, plotID string, now time.Time) (*contract.PlotDetailResponse, error)
	// Matrix lays out every plot on the map against every stage. An empty
	// slug covers all maps.
	Matrix(ctx context.Context, slug string, now time.Time) (*contract.MatrixResponse, error)
}

type ReferenceService interface {
	CreateMap(ctx context.Context, m *domain.SiteMap) error
	GetMap(ctx context.Context, slug string) (*domain.SiteMap, error)
	ListMaps(ctx context.Context) ([]*domain.SiteMap, error)

	CreateConstructionType(ctx context.Context, t *domain.ConstructionType) error
	GetConstructionType(ctx context.Context, idOrName string) (*domain.ConstructionType, error)
	ListConstructionTypes(ctx context.Context) ([]*domain.ConstructionType, error)

	CreateHomebuilder(ctx context.Context, h *domain.Homebuilder) error
	ListHomebuilders(ctx context.Context) ([]*domain.Homebuilder, error)
	CreateUnitType(ctx context.Context, u *domain.UnitType) error
	ListUnitTypes(ctx context.Context) ([]*domain.UnitType, error)

	CreateSalesUpdate(ctx context.Context, s *domain.SalesUpdate) error
	ListSalesUpdates(ctx context.Context, plotID string) ([]*domain.SalesUpdate, error)
}

// ImportResult holds the outcome of a site import.
type ImportResult struct {
	ConstructionTypeCount int
	HomebuilderCount      int
	UnitTypeCount         int
	MapCount              int
	PlotCount             int
	ProgressRowCount      int
}

type ImportService interface {
	ImportFile(ctx context.Context, filePath string) (*ImportResult, error)
	ImportSchema(ctx context.Context, schema *importer.SiteSchema) (*ImportResult, error)
}
