package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
)

type SQLiteSalesUpdateRepo struct {
	db db.DBTX
}

func NewSQLiteSalesUpdateRepo(conn db.DBTX) *SQLiteSalesUpdateRepo {
	return &SQLiteSalesUpdateRepo{db: conn}
}

// Create inserts the update together with its planned delivery dates.
func (r *SQLiteSalesUpdateRepo) Create(ctx context.Context, s *domain.SalesUpdate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sales_updates (id, plot_id, programmed_delivery_date, actual_delivery_date, notes, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.PlotID,
		nullableTimeToString(s.ProgrammedDeliveryDate),
		nullableTimeToString(s.ActualDeliveryDate),
		s.Notes, s.CreatedBy, formatTime(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting sales update: %w", err)
	}
	for i := range s.PlannedDeliveryDates {
		d := &s.PlannedDeliveryDates[i]
		d.SalesUpdateID = s.ID
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO planned_delivery_dates (id, sales_update_id, planned_date, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
			d.ID, d.SalesUpdateID, formatTime(d.PlannedDate), d.Reason, formatTime(d.CreatedAt))
		if err != nil {
			return fmt.Errorf("inserting planned delivery date: %w", err)
		}
	}
	return nil
}

// List returns updates newest first. An empty plotID lists every plot.
func (r *SQLiteSalesUpdateRepo) List(ctx context.Context, plotID string) ([]*domain.SalesUpdate, error) {
	query := `SELECT id, plot_id, programmed_delivery_date, actual_delivery_date, notes, created_by, created_at
		FROM sales_updates`
	var args []any
	if plotID != "" {
		query += ` WHERE plot_id = ?`
		args = append(args, plotID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sales updates: %w", err)
	}
	var out []*domain.SalesUpdate
	for rows.Next() {
		var s domain.SalesUpdate
		var programmed, actual sql.NullString
		var createdAt string
		if err := rows.Scan(&s.ID, &s.PlotID, &programmed, &actual, &s.Notes, &s.CreatedBy, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning sales update: %w", err)
		}
		s.ProgrammedDeliveryDate = parseNullableTime(programmed)
		s.ActualDeliveryDate = parseNullableTime(actual)
		s.CreatedAt, _ = parseTime(createdAt)
		out = append(out, &s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sales updates: %w", err)
	}

	for _, s := range out {
		if s.PlannedDeliveryDates, err = r.listPlannedDates(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SQLiteSalesUpdateRepo) listPlannedDates(ctx context.Context, salesUpdateID string) ([]domain.PlannedDeliveryDate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sales_update_id, planned_date, reason, created_at
		FROM planned_delivery_dates WHERE sales_update_id = ? ORDER BY created_at, id`, salesUpdateID)
	if err != nil {
		return nil, fmt.Errorf("listing planned delivery dates: %w", err)
	}
	defer rows.Close()

	var out []domain.PlannedDeliveryDate
	for rows.Next() {
		var d domain.PlannedDeliveryDate
		var planned, createdAt string
		if err := rows.Scan(&d.ID, &d.SalesUpdateID, &planned, &d.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning planned delivery date: %w", err)
		}
		d.PlannedDate, _ = parseTime(planned)
		d.CreatedAt, _ = parseTime(createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}
