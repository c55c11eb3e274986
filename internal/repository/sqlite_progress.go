package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
)

// progressColumns selects a progress row joined with its stage.
const progressColumns = `cp.id, cp.plot_id, cp.construction_stage_id,
		cp.programme_start_date, cp.programme_end_date,
		cp.planned_start_date, cp.planned_end_date, cp.current_plan_version,
		cp.actual_start_date, cp.actual_end_date,
		cp.completion_percentage, cp.notes, cp.recorded_by, cp.created_at, cp.updated_at,
		s.id, s.construction_type_id, s.name, s.description, s.sort_order, s.color, s.created_at, s.updated_at`

const progressFrom = ` FROM construction_progress cp
		JOIN construction_stages s ON s.id = cp.construction_stage_id`

// SQLiteProgressRepo implements ProgressRepo using a SQLite database.
type SQLiteProgressRepo struct {
	db db.DBTX
}

func NewSQLiteProgressRepo(conn db.DBTX) *SQLiteProgressRepo {
	return &SQLiteProgressRepo{db: conn}
}

func (r *SQLiteProgressRepo) Create(ctx context.Context, p *domain.ConstructionProgress) error {
	query := `INSERT INTO construction_progress (id, plot_id, construction_stage_id,
		programme_start_date, programme_end_date, planned_start_date, planned_end_date,
		current_plan_version, actual_start_date, actual_end_date,
		completion_percentage, notes, recorded_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.PlotID,
		p.ConstructionStageID,
		nullableTimeToString(p.ProgrammeStartDate),
		nullableTimeToString(p.ProgrammeEndDate),
		nullableTimeToString(p.PlannedStartDate),
		nullableTimeToString(p.PlannedEndDate),
		p.CurrentPlanVersion,
		nullableTimeToString(p.ActualStartDate),
		nullableTimeToString(p.ActualEndDate),
		p.CompletionPercentage,
		p.Notes,
		p.RecordedBy,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("progress for plot %s stage %s: %w", p.PlotID, p.ConstructionStageID, ErrDuplicate)
		}
		return fmt.Errorf("inserting construction progress: %w", err)
	}
	return nil
}

// CreateMany inserts rows in order; callers wrap it in a UnitOfWork for atomicity.
func (r *SQLiteProgressRepo) CreateMany(ctx context.Context, rows []*domain.ConstructionProgress) error {
	for _, p := range rows {
		if err := r.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteProgressRepo) GetByID(ctx context.Context, id string) (*domain.ConstructionProgress, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+progressColumns+progressFrom+` WHERE cp.id = ?`, id)
	return r.scanOne(row)
}

func (r *SQLiteProgressRepo) GetByPlotStage(ctx context.Context, plotID, stageID string) (*domain.ConstructionProgress, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+progressFrom+` WHERE cp.plot_id = ? AND cp.construction_stage_id = ?`,
		plotID, stageID)
	return r.scanOne(row)
}

func (r *SQLiteProgressRepo) ListByPlot(ctx context.Context, plotID string) ([]domain.ConstructionProgress, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+progressColumns+progressFrom+` WHERE cp.plot_id = ? ORDER BY s.sort_order`, plotID)
	if err != nil {
		return nil, fmt.Errorf("listing progress by plot: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *SQLiteProgressRepo) ListByMap(ctx context.Context, mapID string) ([]domain.ConstructionProgress, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+progressColumns+progressFrom+`
		JOIN plots p ON p.id = cp.plot_id
		WHERE p.map_id = ?
		ORDER BY cp.plot_id, s.sort_order`, mapID)
	if err != nil {
		return nil, fmt.Errorf("listing progress by map: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *SQLiteProgressRepo) UpdateIfVersion(ctx context.Context, p *domain.ConstructionProgress, expectedVersion int) error {
	query := `UPDATE construction_progress SET
		programme_start_date = ?, programme_end_date = ?,
		planned_start_date = ?, planned_end_date = ?, current_plan_version = ?,
		actual_start_date = ?, actual_end_date = ?,
		completion_percentage = ?, notes = ?, recorded_by = ?, updated_at = ?
		WHERE id = ? AND current_plan_version = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableTimeToString(p.ProgrammeStartDate),
		nullableTimeToString(p.ProgrammeEndDate),
		nullableTimeToString(p.PlannedStartDate),
		nullableTimeToString(p.PlannedEndDate),
		p.CurrentPlanVersion,
		nullableTimeToString(p.ActualStartDate),
		nullableTimeToString(p.ActualEndDate),
		p.CompletionPercentage,
		p.Notes,
		p.RecordedBy,
		formatTime(p.UpdatedAt),
		p.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("updating construction progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM construction_progress WHERE id = ?`, p.ID).Scan(&exists); err != nil {
		return fmt.Errorf("checking construction progress: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("construction progress %s: %w", p.ID, ErrNotFound)
	}
	return fmt.Errorf("construction progress %s expected version %d: %w", p.ID, expectedVersion, domain.ErrVersionRace)
}

func (r *SQLiteProgressRepo) DeleteByPlot(ctx context.Context, plotID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM construction_progress WHERE plot_id = ?`, plotID); err != nil {
		return fmt.Errorf("deleting progress for plot: %w", err)
	}
	return nil
}

func (r *SQLiteProgressRepo) scanOne(row *sql.Row) (*domain.ConstructionProgress, error) {
	p, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("construction progress: %w", ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (r *SQLiteProgressRepo) scanAll(rows *sql.Rows) ([]domain.ConstructionProgress, error) {
	var out []domain.ConstructionProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating construction progress: %w", err)
	}
	return out, nil
}

func scanProgress(s rowScanner) (*domain.ConstructionProgress, error) {
	var p domain.ConstructionProgress
	var st domain.ConstructionStage
	var progStart, progEnd, planStart, planEnd, actStart, actEnd sql.NullString
	var createdAt, updatedAt, stageCreated, stageUpdated, color string

	err := s.Scan(
		&p.ID, &p.PlotID, &p.ConstructionStageID,
		&progStart, &progEnd,
		&planStart, &planEnd, &p.CurrentPlanVersion,
		&actStart, &actEnd,
		&p.CompletionPercentage, &p.Notes, &p.RecordedBy, &createdAt, &updatedAt,
		&st.ID, &st.ConstructionTypeID, &st.Name, &st.Description, &st.SortOrder, &color, &stageCreated, &stageUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning construction progress: %w", err)
	}

	p.ProgrammeStartDate = parseNullableTime(progStart)
	p.ProgrammeEndDate = parseNullableTime(progEnd)
	p.PlannedStartDate = parseNullableTime(planStart)
	p.PlannedEndDate = parseNullableTime(planEnd)
	p.ActualStartDate = parseNullableTime(actStart)
	p.ActualEndDate = parseNullableTime(actEnd)

	var parseErr error
	if p.CreatedAt, parseErr = parseTime(createdAt); parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	if p.UpdatedAt, parseErr = parseTime(updatedAt); parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	st.Color = domain.ColorToken(color)
	st.CreatedAt, _ = parseTime(stageCreated)
	st.UpdatedAt, _ = parseTime(stageUpdated)
	p.Stage = &st
	return &p, nil
}
