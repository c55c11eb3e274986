package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/repository"
	"github.com/google/uuid"
)

type plotService struct {
	plots    repository.PlotRepo
	progress repository.ProgressRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewPlotService(plots repository.PlotRepo, progress repository.ProgressRepo, uow db.UnitOfWork, observers ...UseCaseObserver) PlotService {
	return &plotService{
		plots:    plots,
		progress: progress,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *plotService) Create(ctx context.Context, p *domain.Plot) (err error) {
	fields := map[string]any{"plot": p.Name, "map_id": p.MapID}
	done := observe(ctx, s.observer, "create-plot", fields)
	defer func() { done(err) }()

	if p.Name == "" || p.MapID == "" {
		return fmt.Errorf("%w: plot name and map id are required", ErrInvalidInput)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	applyCentroid(p)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLitePlotRepo(tx).Create(ctx, p); err != nil {
			return err
		}
		if !p.IsConfigured() {
			return nil
		}
		ct, err := repository.NewSQLiteConstructionTypeRepo(tx).GetByID(ctx, *p.ConstructionTypeID)
		if err != nil {
			return err
		}
		rows, err := seedStageRows(ctx, tx, p.ID, ct, now)
		if err != nil {
			return err
		}
		fields["stage_rows"] = len(rows)
		p.Progress = derefRows(rows)
		return nil
	})
}

func (s *plotService) GetByID(ctx context.Context, id string) (*domain.Plot, error) {
	p, err := s.plots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Progress, err = s.progress.ListByPlot(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *plotService) List(ctx context.Context) ([]*domain.Plot, error) {
	return s.plots.List(ctx)
}

func (s *plotService) ListByMap(ctx context.Context, mapID string) ([]*domain.Plot, error) {
	return s.plots.ListByMap(ctx, mapID)
}

// Update saves descriptive fields. The construction type is changed only
// through AssignConstructionType.
func (s *plotService) Update(ctx context.Context, p *domain.Plot) error {
	current, err := s.plots.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.ConstructionTypeID = current.ConstructionTypeID
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	applyCentroid(p)
	return s.plots.Update(ctx, p)
}

func (s *plotService) Delete(ctx context.Context, id string) error {
	return s.plots.Delete(ctx, id)
}

// AssignConstructionType replaces the plot's type and reseeds its stage rows.
// Rows with only a completion percentage are discarded; any recorded date or
// plan history refuses the change with domain.ErrProgressRecorded.
func (s *plotService) AssignConstructionType(ctx context.Context, plotID, typeID string) (err error) {
	done := observe(ctx, s.observer, "assign-construction-type", map[string]any{"plot_id": plotID, "type_id": typeID})
	defer func() { done(err) }()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txPlots := repository.NewSQLitePlotRepo(tx)
		plot, err := txPlots.GetByID(ctx, plotID)
		if err != nil {
			return err
		}
		if plot.ConstructionTypeID != nil && *plot.ConstructionTypeID == typeID {
			return nil
		}
		ct, err := repository.NewSQLiteConstructionTypeRepo(tx).GetByID(ctx, typeID)
		if err != nil {
			return err
		}

		txProgress := repository.NewSQLiteProgressRepo(tx)
		rows, err := txProgress.ListByPlot(ctx, plotID)
		if err != nil {
			return err
		}
		for i := range rows {
			if rows[i].HasRecordedDates() {
				return fmt.Errorf("plot %s stage %q: %w", plot.Name, rows[i].StageName(), domain.ErrProgressRecorded)
			}
		}
		if err := txProgress.DeleteByPlot(ctx, plotID); err != nil {
			return err
		}
		now := time.Now().UTC()
		plot.ConstructionTypeID = &ct.ID
		plot.UpdatedAt = now
		if err := txPlots.Update(ctx, plot); err != nil {
			return err
		}
		_, err = seedStageRows(ctx, tx, plotID, ct, now)
		return err
	})
}

// applyCentroid places the plot's lat/long at the mean of its polygon.
func applyCentroid(p *domain.Plot) {
	if x, y, ok := p.Centroid(); ok {
		p.Longitude, p.Latitude = x, y
	}
}

func derefRows(rows []*domain.ConstructionProgress) []domain.ConstructionProgress {
	out := make([]domain.ConstructionProgress, len(rows))
	for i, r := range rows {
		out[i] = *r
	}
	return out
}
