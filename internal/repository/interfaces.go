package repository

import (
	"context"

	"github.com/alexanderramin/sitetrack/internal/domain"
)

type SiteMapRepo interface {
	Create(ctx context.Context, m *domain.SiteMap) error
	GetByID(ctx context.Context, id string) (*domain.SiteMap, error)
	GetBySlug(ctx context.Context, slug string) (*domain.SiteMap, error)
	List(ctx context.Context) ([]*domain.SiteMap, error)
}

type PlotRepo interface {
	Create(ctx context.Context, p *domain.Plot) error
	GetByID(ctx context.Context, id string) (*domain.Plot, error)
	ListByMap(ctx context.Context, mapID string) ([]*domain.Plot, error)
	List(ctx context.Context) ([]*domain.Plot, error)
	Update(ctx context.Context, p *domain.Plot) error
	Delete(ctx context.Context, id string) error
}

type ConstructionTypeRepo interface {
	Create(ctx context.Context, t *domain.ConstructionType) error
	AddStage(ctx context.Context, s *domain.ConstructionStage) error
	GetByID(ctx context.Context, id string) (*domain.ConstructionType, error)
	GetByName(ctx context.Context, name string) (*domain.ConstructionType, error)
	List(ctx context.Context) ([]*domain.ConstructionType, error)
	GetStage(ctx context.Context, id string) (*domain.ConstructionStage, error)
}

// ProgressRepo stores construction progress rows. Rows are returned with
// their stage metadata attached.
type ProgressRepo interface {
	Create(ctx context.Context, p *domain.ConstructionProgress) error
	CreateMany(ctx context.Context, rows []*domain.ConstructionProgress) error
	GetByID(ctx context.Context, id string) (*domain.ConstructionProgress, error)
	GetByPlotStage(ctx context.Context, plotID, stageID string) (*domain.ConstructionProgress, error)
	ListByPlot(ctx context.Context, plotID string) ([]domain.ConstructionProgress, error)
	ListByMap(ctx context.Context, mapID string) ([]domain.ConstructionProgress, error)
	// UpdateIfVersion writes p only if the stored plan version still equals
	// expectedVersion; otherwise it returns domain.ErrVersionRace.
	UpdateIfVersion(ctx context.Context, p *domain.ConstructionProgress, expectedVersion int) error
	DeleteByPlot(ctx context.Context, plotID string) error
}

// PlanHistoryRepo is append-only.
type PlanHistoryRepo interface {
	Append(ctx context.Context, h *domain.ConstructionPlanHistory) error
	ListByProgress(ctx context.Context, progressID string) ([]domain.ConstructionPlanHistory, error)
}

type HomebuilderRepo interface {
	Create(ctx context.Context, h *domain.Homebuilder) error
	GetByID(ctx context.Context, id string) (*domain.Homebuilder, error)
	List(ctx context.Context) ([]*domain.Homebuilder, error)
}

type UnitTypeRepo interface {
	Create(ctx context.Context, u *domain.UnitType) error
	List(ctx context.Context) ([]*domain.UnitType, error)
}

type SalesUpdateRepo interface {
	Create(ctx context.Context, s *domain.SalesUpdate) error
	List(ctx context.Context, plotID string) ([]*domain.SalesUpdate, error)
}
