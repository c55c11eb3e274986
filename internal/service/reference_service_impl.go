package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/repository"
	"github.com/google/uuid"
)

type referenceService struct {
	maps         repository.SiteMapRepo
	types        repository.ConstructionTypeRepo
	homebuilders repository.HomebuilderRepo
	unitTypes    repository.UnitTypeRepo
	sales        repository.SalesUpdateRepo
	uow          db.UnitOfWork
}

func NewReferenceService(
	maps repository.SiteMapRepo,
	types repository.ConstructionTypeRepo,
	homebuilders repository.HomebuilderRepo,
	unitTypes repository.UnitTypeRepo,
	sales repository.SalesUpdateRepo,
	uow db.UnitOfWork,
) ReferenceService {
	return &referenceService{
		maps:         maps,
		types:        types,
		homebuilders: homebuilders,
		unitTypes:    unitTypes,
		sales:        sales,
		uow:          uow,
	}
}

func (s *referenceService) CreateMap(ctx context.Context, m *domain.SiteMap) error {
	if err := m.ValidateSlug(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	return s.maps.Create(ctx, m)
}

func (s *referenceService) GetMap(ctx context.Context, slug string) (*domain.SiteMap, error) {
	return s.maps.GetBySlug(ctx, slug)
}

func (s *referenceService) ListMaps(ctx context.Context) ([]*domain.SiteMap, error) {
	return s.maps.List(ctx)
}

// CreateConstructionType stores the type and its stages atomically. Stages
// without a sort order are numbered by position. Stage names must be unique
// within the type.
func (s *referenceService) CreateConstructionType(ctx context.Context, t *domain.ConstructionType) error {
	if t.Name == "" {
		return fmt.Errorf("%w: construction type name is required", ErrInvalidInput)
	}
	seen := make(map[string]bool, len(t.Stages))
	for _, st := range t.Stages {
		if st.Name == "" {
			return fmt.Errorf("%w: stage name is required", ErrInvalidInput)
		}
		if seen[st.Name] {
			return fmt.Errorf("%w: duplicate stage name %q", ErrInvalidInput, st.Name)
		}
		seen[st.Name] = true
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	for i := range t.Stages {
		st := &t.Stages[i]
		if st.ID == "" {
			st.ID = uuid.New().String()
		}
		if st.SortOrder == 0 {
			st.SortOrder = i + 1
		}
		st.CreatedAt, st.UpdatedAt = now, now
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteConstructionTypeRepo(tx).Create(ctx, t)
	})
}

func (s *referenceService) GetConstructionType(ctx context.Context, idOrName string) (*domain.ConstructionType, error) {
	t, err := s.types.GetByID(ctx, idOrName)
	if errors.Is(err, repository.ErrNotFound) {
		return s.types.GetByName(ctx, idOrName)
	}
	return t, err
}

func (s *referenceService) ListConstructionTypes(ctx context.Context) ([]*domain.ConstructionType, error) {
	return s.types.List(ctx)
}

func (s *referenceService) CreateHomebuilder(ctx context.Context, h *domain.Homebuilder) error {
	if h.Name == "" {
		return fmt.Errorf("%w: homebuilder name is required", ErrInvalidInput)
	}
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	h.CreatedAt, h.UpdatedAt = now, now
	return s.homebuilders.Create(ctx, h)
}

func (s *referenceService) ListHomebuilders(ctx context.Context) ([]*domain.Homebuilder, error) {
	return s.homebuilders.List(ctx)
}

func (s *referenceService) CreateUnitType(ctx context.Context, u *domain.UnitType) error {
	if u.Name == "" {
		return fmt.Errorf("%w: unit type name is required", ErrInvalidInput)
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	return s.unitTypes.Create(ctx, u)
}

func (s *referenceService) ListUnitTypes(ctx context.Context) ([]*domain.UnitType, error) {
	return s.unitTypes.List(ctx)
}

func (s *referenceService) CreateSalesUpdate(ctx context.Context, su *domain.SalesUpdate) error {
	if su.PlotID == "" {
		return fmt.Errorf("%w: plot id is required", ErrInvalidInput)
	}
	if su.ID == "" {
		su.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	su.CreatedAt = now
	for i := range su.PlannedDeliveryDates {
		d := &su.PlannedDeliveryDates[i]
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		d.CreatedAt = now
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteSalesUpdateRepo(tx).Create(ctx, su)
	})
}

func (s *referenceService) ListSalesUpdates(ctx context.Context, plotID string) ([]*domain.SalesUpdate, error) {
	return s.sales.List(ctx, plotID)
}
