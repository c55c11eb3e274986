package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
)

type SQLiteConstructionTypeRepo struct {
	db db.DBTX
}

func NewSQLiteConstructionTypeRepo(conn db.DBTX) *SQLiteConstructionTypeRepo {
	return &SQLiteConstructionTypeRepo{db: conn}
}

const stageColumns = `id, construction_type_id, name, description, sort_order, color, created_at, updated_at`

// Create inserts the type and any stages attached to it.
func (r *SQLiteConstructionTypeRepo) Create(ctx context.Context, t *domain.ConstructionType) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO construction_types (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("construction type %q: %w", t.Name, ErrDuplicate)
		}
		return fmt.Errorf("inserting construction type: %w", err)
	}
	for i := range t.Stages {
		t.Stages[i].ConstructionTypeID = t.ID
		if err := r.AddStage(ctx, &t.Stages[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteConstructionTypeRepo) AddStage(ctx context.Context, s *domain.ConstructionStage) error {
	color := s.Color
	if color == "" {
		color = domain.NotStartedColor
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO construction_stages (`+stageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ConstructionTypeID, s.Name, s.Description, s.SortOrder, string(color),
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("stage sort order %d: %w", s.SortOrder, ErrDuplicate)
		}
		return fmt.Errorf("inserting construction stage: %w", err)
	}
	return nil
}

func (r *SQLiteConstructionTypeRepo) GetByID(ctx context.Context, id string) (*domain.ConstructionType, error) {
	return r.getOne(ctx, `SELECT id, name, description, created_at, updated_at FROM construction_types WHERE id = ?`, id)
}

func (r *SQLiteConstructionTypeRepo) GetByName(ctx context.Context, name string) (*domain.ConstructionType, error) {
	return r.getOne(ctx, `SELECT id, name, description, created_at, updated_at FROM construction_types WHERE name = ?`, name)
}

func (r *SQLiteConstructionTypeRepo) List(ctx context.Context) ([]*domain.ConstructionType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, created_at, updated_at FROM construction_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing construction types: %w", err)
	}
	var out []*domain.ConstructionType
	for rows.Next() {
		t, err := scanConstructionType(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating construction types: %w", err)
	}

	// Stages are loaded after the cursor closes; a pinned single connection cannot run both.
	for _, t := range out {
		if t.Stages, err = r.listStages(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SQLiteConstructionTypeRepo) GetStage(ctx context.Context, id string) (*domain.ConstructionStage, error) {
	s, err := scanStage(r.db.QueryRowContext(ctx, `SELECT `+stageColumns+` FROM construction_stages WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("construction stage %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return s, nil
}

func (r *SQLiteConstructionTypeRepo) getOne(ctx context.Context, query, arg string) (*domain.ConstructionType, error) {
	t, err := scanConstructionType(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("construction type %s: %w", arg, ErrNotFound)
		}
		return nil, err
	}
	if t.Stages, err = r.listStages(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *SQLiteConstructionTypeRepo) listStages(ctx context.Context, typeID string) ([]domain.ConstructionStage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stageColumns+` FROM construction_stages WHERE construction_type_id = ? ORDER BY sort_order`, typeID)
	if err != nil {
		return nil, fmt.Errorf("listing construction stages: %w", err)
	}
	defer rows.Close()

	var out []domain.ConstructionStage
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func scanConstructionType(s rowScanner) (*domain.ConstructionType, error) {
	var t domain.ConstructionType
	var createdAt, updatedAt string
	if err := s.Scan(&t.ID, &t.Name, &t.Description, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning construction type: %w", err)
	}
	t.CreatedAt, _ = parseTime(createdAt)
	t.UpdatedAt, _ = parseTime(updatedAt)
	return &t, nil
}

func scanStage(s rowScanner) (*domain.ConstructionStage, error) {
	var st domain.ConstructionStage
	var color, createdAt, updatedAt string
	if err := s.Scan(&st.ID, &st.ConstructionTypeID, &st.Name, &st.Description, &st.SortOrder, &color,
		&createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning construction stage: %w", err)
	}
	st.Color = domain.ColorToken(color)
	st.CreatedAt, _ = parseTime(createdAt)
	st.UpdatedAt, _ = parseTime(updatedAt)
	return &st, nil
}
