package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
)

type SQLiteHomebuilderRepo struct {
	db db.DBTX
}

func NewSQLiteHomebuilderRepo(conn db.DBTX) *SQLiteHomebuilderRepo {
	return &SQLiteHomebuilderRepo{db: conn}
}

const homebuilderColumns = `id, name, contact_email, contact_phone, address, website, created_at, updated_at`

func (r *SQLiteHomebuilderRepo) Create(ctx context.Context, h *domain.Homebuilder) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO homebuilders (`+homebuilderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.ContactEmail, h.ContactPhone, h.Address, h.Website,
		formatTime(h.CreatedAt), formatTime(h.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("homebuilder %q: %w", h.Name, ErrDuplicate)
		}
		return fmt.Errorf("inserting homebuilder: %w", err)
	}
	return nil
}

func (r *SQLiteHomebuilderRepo) GetByID(ctx context.Context, id string) (*domain.Homebuilder, error) {
	h, err := scanHomebuilder(r.db.QueryRowContext(ctx, `SELECT `+homebuilderColumns+` FROM homebuilders WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("homebuilder %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return h, nil
}

func (r *SQLiteHomebuilderRepo) List(ctx context.Context) ([]*domain.Homebuilder, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+homebuilderColumns+` FROM homebuilders ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing homebuilders: %w", err)
	}
	defer rows.Close()

	var out []*domain.Homebuilder
	for rows.Next() {
		h, err := scanHomebuilder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHomebuilder(s rowScanner) (*domain.Homebuilder, error) {
	var h domain.Homebuilder
	var createdAt, updatedAt string
	if err := s.Scan(&h.ID, &h.Name, &h.ContactEmail, &h.ContactPhone, &h.Address, &h.Website,
		&createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning homebuilder: %w", err)
	}
	h.CreatedAt, _ = parseTime(createdAt)
	h.UpdatedAt, _ = parseTime(updatedAt)
	return &h, nil
}

type SQLiteUnitTypeRepo struct {
	db db.DBTX
}

func NewSQLiteUnitTypeRepo(conn db.DBTX) *SQLiteUnitTypeRepo {
	return &SQLiteUnitTypeRepo{db: conn}
}

func (r *SQLiteUnitTypeRepo) Create(ctx context.Context, u *domain.UnitType) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO unit_types (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Description, formatTime(u.CreatedAt), formatTime(u.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("unit type %q: %w", u.Name, ErrDuplicate)
		}
		return fmt.Errorf("inserting unit type: %w", err)
	}
	return nil
}

func (r *SQLiteUnitTypeRepo) List(ctx context.Context) ([]*domain.UnitType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, created_at, updated_at FROM unit_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing unit types: %w", err)
	}
	defer rows.Close()

	var out []*domain.UnitType
	for rows.Next() {
		var u domain.UnitType
		var createdAt, updatedAt string
		if err := rows.Scan(&u.ID, &u.Name, &u.Description, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning unit type: %w", err)
		}
		u.CreatedAt, _ = parseTime(createdAt)
		u.UpdatedAt, _ = parseTime(updatedAt)
		out = append(out, &u)
	}
	return out, rows.Err()
}
