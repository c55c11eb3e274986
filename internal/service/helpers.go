package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/repository"
	"github.com/alexanderramin/sitetrack/internal/resolver"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func newHistoryID() string {
	return ulid.Make().String()
}

// seedStageRows creates one blank version-1 progress row per stage of ct.
func seedStageRows(ctx context.Context, tx db.DBTX, plotID string, ct *domain.ConstructionType, now time.Time) ([]*domain.ConstructionProgress, error) {
	stages := ct.OrderedStages()
	rows := make([]*domain.ConstructionProgress, 0, len(stages))
	for i := range stages {
		st := stages[i]
		rows = append(rows, &domain.ConstructionProgress{
			ID:                  uuid.New().String(),
			PlotID:              plotID,
			ConstructionStageID: st.ID,
			CurrentPlanVersion:  1,
			CreatedAt:           now,
			UpdatedAt:           now,
			Stage:               &st,
		})
	}
	if err := repository.NewSQLiteProgressRepo(tx).CreateMany(ctx, rows); err != nil {
		return nil, fmt.Errorf("seeding progress rows: %w", err)
	}
	return rows, nil
}

// applyAndStore applies upd to existing and persists the row and any new
// history row through tx.
func applyAndStore(ctx context.Context, tx db.DBTX, existing domain.ConstructionProgress, upd resolver.ProgressUpdate, now time.Time) (resolver.PlanUpdateResult, error) {
	res, err := resolver.ApplyPlannedDateUpdate(existing, upd, now)
	if err != nil {
		return res, err
	}
	if err := repository.NewSQLiteProgressRepo(tx).UpdateIfVersion(ctx, &res.Updated, res.ExpectedVersion); err != nil {
		return res, err
	}
	if res.NewHistory != nil {
		res.NewHistory.ID = newHistoryID()
		if err := repository.NewSQLitePlanHistoryRepo(tx).Append(ctx, res.NewHistory); err != nil {
			return res, err
		}
	}
	return res, nil
}

func toProgressView(p domain.ConstructionProgress, c resolver.Classifier, now time.Time) contract.ProgressView {
	v := contract.ProgressView{
		ID:                   p.ID,
		PlotID:               p.PlotID,
		ConstructionStageID:  p.ConstructionStageID,
		StageName:            p.StageName(),
		ProgrammeStartDate:   p.ProgrammeStartDate,
		ProgrammeEndDate:     p.ProgrammeEndDate,
		PlannedStartDate:     p.PlannedStartDate,
		PlannedEndDate:       p.PlannedEndDate,
		ActualStartDate:      p.ActualStartDate,
		ActualEndDate:        p.ActualEndDate,
		CurrentPlanVersion:   p.CurrentPlanVersion,
		CompletionPercentage: p.CompletionPercentage,
		Notes:                p.Notes,
		RecordedBy:           p.RecordedBy,
		UpdatedAt:            p.UpdatedAt,
	}
	if p.Stage != nil {
		v.SortOrder = p.Stage.SortOrder
		v.StageColor = p.Stage.Color
	}
	// Stored rows cannot hold an end without a start; fall back to
	// not-started rather than failing the whole view.
	status, err := c.ClassifyProgress(&p, now)
	if err != nil {
		status = domain.StageNotStarted
	}
	v.Status = status
	v.StatusColor = resolver.StatusColor(status)
	return v
}

// toSummaryView resolves a plot's marker. Plots without a construction type
// report NOT_CONFIGURED.
func toSummaryView(plot *domain.Plot, rows []domain.ConstructionProgress) contract.PlotSummaryView {
	v := contract.PlotSummaryView{
		PlotID:      plot.ID,
		Name:        plot.Name,
		Coordinates: plot.Coordinates,
	}
	if x, y, ok := plot.Centroid(); ok {
		v.CentroidX, v.CentroidY = &x, &y
	}
	if !plot.IsConfigured() {
		v.Status = domain.PlotNotConfigured
		v.Color = domain.NotStartedColor
		return v
	}
	s := resolver.Summarize(rows)
	v.Status = s.Status
	v.Percentage = s.Percentage
	v.Color = s.Color
	v.CurrentStage = s.StageName()
	return v
}

// validationErrors lists every import problem while still matching
// ErrInvalidInput and each underlying error with errors.Is.
type validationErrors struct {
	msg  string
	errs []error
}

func (e *validationErrors) Error() string { return e.msg }

func (e *validationErrors) Unwrap() []error {
	return append([]error{ErrInvalidInput}, e.errs...)
}

func formatValidationErrors(errs []error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: import validation failed (%d errors):", ErrInvalidInput, len(errs))
	for _, e := range errs {
		b.WriteString("\n  - " + e.Error())
	}
	return &validationErrors{msg: b.String(), errs: errs}
}
