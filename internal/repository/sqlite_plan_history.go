package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
)

// SQLitePlanHistoryRepo implements PlanHistoryRepo. Rows are never updated or deleted
// individually; they go away only with their progress row.
type SQLitePlanHistoryRepo struct {
	db db.DBTX
}

func NewSQLitePlanHistoryRepo(conn db.DBTX) *SQLitePlanHistoryRepo {
	return &SQLitePlanHistoryRepo{db: conn}
}

// Append inserts h. A second row with the same version for the same progress
// id is reported as domain.ErrVersionRace.
func (r *SQLitePlanHistoryRepo) Append(ctx context.Context, h *domain.ConstructionPlanHistory) error {
	query := `INSERT INTO construction_plan_history (id, construction_progress_id, version_number,
		planned_start_date, planned_end_date, reason, changed_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		h.ID,
		h.ConstructionProgressID,
		h.VersionNumber,
		nullableTimeToString(h.PlannedStartDate),
		nullableTimeToString(h.PlannedEndDate),
		h.Reason,
		h.ChangedBy,
		formatTime(h.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("plan history %s version %d: %w", h.ConstructionProgressID, h.VersionNumber, domain.ErrVersionRace)
		}
		return fmt.Errorf("appending plan history: %w", err)
	}
	return nil
}

// ListByProgress returns history ordered by ascending version.
func (r *SQLitePlanHistoryRepo) ListByProgress(ctx context.Context, progressID string) ([]domain.ConstructionPlanHistory, error) {
	query := `SELECT id, construction_progress_id, version_number, planned_start_date, planned_end_date,
		reason, changed_by, created_at
		FROM construction_plan_history WHERE construction_progress_id = ? ORDER BY version_number`
	rows, err := r.db.QueryContext(ctx, query, progressID)
	if err != nil {
		return nil, fmt.Errorf("listing plan history: %w", err)
	}
	defer rows.Close()

	var out []domain.ConstructionPlanHistory
	for rows.Next() {
		var h domain.ConstructionPlanHistory
		var start, end sql.NullString
		var createdAt string
		if err := rows.Scan(&h.ID, &h.ConstructionProgressID, &h.VersionNumber, &start, &end,
			&h.Reason, &h.ChangedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning plan history: %w", err)
		}
		h.PlannedStartDate = parseNullableTime(start)
		h.PlannedEndDate = parseNullableTime(end)
		var parseErr error
		if h.CreatedAt, parseErr = parseTime(createdAt); parseErr != nil {
			return nil, fmt.Errorf("parsing created_at: %w", parseErr)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan history: %w", err)
	}
	return out, nil
}
