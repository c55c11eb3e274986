package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/repository"
	"github.com/alexanderramin/sitetrack/internal/resolver"
	"github.com/google/uuid"
)

// DefaultPlanUpdateRetries is how many times Record retries after losing a
// version race before giving up.
const DefaultPlanUpdateRetries = 3

// ProgressOptions tunes the progress service. A negative Retries selects
// DefaultPlanUpdateRetries; zero disables retrying. A zero DelayWindow uses
// the resolver default.
type ProgressOptions struct {
	Retries     int
	DelayWindow time.Duration
}

type progressService struct {
	progress   repository.ProgressRepo
	history    repository.PlanHistoryRepo
	uow        db.UnitOfWork
	retries    int
	classifier resolver.Classifier
	observer   UseCaseObserver
}

func NewProgressService(
	progress repository.ProgressRepo,
	history repository.PlanHistoryRepo,
	uow db.UnitOfWork,
	opts ProgressOptions,
	observers ...UseCaseObserver,
) ProgressService {
	retries := opts.Retries
	if retries < 0 {
		retries = DefaultPlanUpdateRetries
	}
	return &progressService{
		progress:   progress,
		history:    history,
		uow:        uow,
		retries:    retries,
		classifier: resolver.NewClassifier(opts.DelayWindow),
		observer:   useCaseObserverOrNoop(observers),
	}
}

func (s *progressService) Record(ctx context.Context, req contract.RecordProgressRequest) (resp *contract.RecordProgressResponse, err error) {
	fields := map[string]any{
		"plot_id":  req.PlotID,
		"stage_id": req.ConstructionStageID,
	}
	done := observe(ctx, s.observer, "record-progress", fields)
	defer func() { done(err) }()

	if req.PlotID == "" || req.ConstructionStageID == "" {
		return nil, fmt.Errorf("%w: plot id and construction stage id are required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	if req.Now != nil {
		now = req.Now.UTC()
	}
	upd := resolver.ProgressUpdate{
		ProgrammeStartDate:   req.ProgrammeStartDate,
		ProgrammeEndDate:     req.ProgrammeEndDate,
		PlannedStartDate:     req.PlannedStartDate,
		PlannedEndDate:       req.PlannedEndDate,
		ActualStartDate:      req.ActualStartDate,
		ActualEndDate:        req.ActualEndDate,
		CompletionPercentage: req.CompletionPercentage,
		Notes:                req.Notes,
		RecordedBy:           req.RecordedBy,
		Reason:               req.Reason,
	}

	for attempt := 1; ; attempt++ {
		resp, err = s.recordOnce(ctx, req.PlotID, req.ConstructionStageID, upd, now)
		if err == nil {
			resp.Attempts = attempt
			fields["attempts"] = attempt
			fields["plan_changed"] = resp.PlanChanged
			return resp, nil
		}
		retryable := errors.Is(err, domain.ErrVersionRace) || repository.IsBusy(err)
		if !retryable || attempt > s.retries {
			fields["attempts"] = attempt
			return nil, err
		}
	}
}

func (s *progressService) recordOnce(ctx context.Context, plotID, stageID string, upd resolver.ProgressUpdate, now time.Time) (*contract.RecordProgressResponse, error) {
	resp := &contract.RecordProgressResponse{}
	var stored domain.ConstructionProgress

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txProgress := repository.NewSQLiteProgressRepo(tx)

		existing, err := txProgress.GetByPlotStage(ctx, plotID, stageID)
		if errors.Is(err, repository.ErrNotFound) {
			row, err := s.createRow(ctx, tx, plotID, stageID, upd, now)
			if err != nil {
				return err
			}
			stored = row
			resp.Created = true
			resp.PlanChanged = upd.HasPlannedDates()
			if upd.CompletionPercentage != nil {
				_, resp.PercentageClamped = resolver.ClampPercentage(*upd.CompletionPercentage)
			}
			return nil
		}
		if err != nil {
			return err
		}

		res, err := applyAndStore(ctx, tx, *existing, upd, now)
		if err != nil {
			return err
		}
		stored = res.Updated
		resp.PlanChanged = res.PlanChanged()
		resp.PercentageClamped = res.PercentageClamped
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp.Progress = toProgressView(stored, s.classifier, now)
	return resp, nil
}

// createRow seeds the first row for (plot, stage). The stage must belong to
// the plot's construction type.
func (s *progressService) createRow(ctx context.Context, tx db.DBTX, plotID, stageID string, upd resolver.ProgressUpdate, now time.Time) (domain.ConstructionProgress, error) {
	plot, err := repository.NewSQLitePlotRepo(tx).GetByID(ctx, plotID)
	if err != nil {
		return domain.ConstructionProgress{}, err
	}
	if !plot.IsConfigured() {
		return domain.ConstructionProgress{}, fmt.Errorf("plot %s: %w", plot.Name, domain.ErrNotConfigured)
	}
	stage, err := repository.NewSQLiteConstructionTypeRepo(tx).GetStage(ctx, stageID)
	if err != nil {
		return domain.ConstructionProgress{}, err
	}
	if stage.ConstructionTypeID != *plot.ConstructionTypeID {
		return domain.ConstructionProgress{}, fmt.Errorf("stage %q on plot %s: %w", stage.Name, plot.Name, ErrStageNotInType)
	}

	row, hist, err := resolver.SeedProgress(plotID, stageID, upd, now)
	if err != nil {
		return domain.ConstructionProgress{}, err
	}
	row.ID = uuid.New().String()
	row.Stage = stage

	if err := repository.NewSQLiteProgressRepo(tx).Create(ctx, &row); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Another writer created the row first; retry as an update.
			return domain.ConstructionProgress{}, fmt.Errorf("creating progress: %w", domain.ErrVersionRace)
		}
		return domain.ConstructionProgress{}, err
	}
	if hist != nil {
		hist.ID = newHistoryID()
		hist.ConstructionProgressID = row.ID
		if err := repository.NewSQLitePlanHistoryRepo(tx).Append(ctx, hist); err != nil {
			return domain.ConstructionProgress{}, err
		}
	}
	return row, nil
}

// SetCompletion goes through Record so the write is version checked.
func (s *progressService) SetCompletion(ctx context.Context, plotID, stageID string, pct int) (*contract.RecordProgressResponse, error) {
	return s.Record(ctx, contract.RecordProgressRequest{
		PlotID:               plotID,
		ConstructionStageID:  stageID,
		CompletionPercentage: &pct,
	})
}

func (s *progressService) ListByPlot(ctx context.Context, plotID string, now time.Time) ([]contract.ProgressView, error) {
	rows, err := s.progress.ListByPlot(ctx, plotID)
	if err != nil {
		return nil, err
	}
	rows = resolver.SortStages(rows)
	out := make([]contract.ProgressView, 0, len(rows))
	for _, r := range rows {
		out = append(out, toProgressView(r, s.classifier, now))
	}
	return out, nil
}

func (s *progressService) History(ctx context.Context, progressID string) ([]domain.ConstructionPlanHistory, error) {
	if _, err := s.progress.GetByID(ctx, progressID); err != nil {
		return nil, err
	}
	return s.history.ListByProgress(ctx, progressID)
}

func (s *progressService) VerifyHistory(ctx context.Context, plotID string) (checks []contract.HistoryCheck, err error) {
	done := observe(ctx, s.observer, "verify-history", map[string]any{"plot_id": plotID})
	defer func() { done(err) }()

	rows, err := s.progress.ListByPlot(ctx, plotID)
	if err != nil {
		return nil, err
	}
	for _, r := range resolver.SortStages(rows) {
		history, err := s.history.ListByProgress(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		c := contract.HistoryCheck{
			ProgressID:     r.ID,
			StageName:      r.StageName(),
			CurrentVersion: r.CurrentPlanVersion,
			HistoryRows:    len(history),
		}
		if verr := resolver.ValidateHistory(r, history); verr != nil {
			c.Problem = verr.Error()
		}
		checks = append(checks, c)
	}
	return checks, nil
}
