package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
)

type SQLiteSiteMapRepo struct {
	db db.DBTX
}

func NewSQLiteSiteMapRepo(conn db.DBTX) *SQLiteSiteMapRepo {
	return &SQLiteSiteMapRepo{db: conn}
}

const siteMapColumns = `id, name, slug, image_path, natural_width, natural_height, created_at, updated_at`

func (r *SQLiteSiteMapRepo) Create(ctx context.Context, m *domain.SiteMap) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO site_maps (`+siteMapColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Slug, m.ImagePath, m.NaturalWidth, m.NaturalHeight,
		formatTime(m.CreatedAt), formatTime(m.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("map slug %q: %w", m.Slug, ErrDuplicate)
		}
		return fmt.Errorf("inserting site map: %w", err)
	}
	return nil
}

func (r *SQLiteSiteMapRepo) GetByID(ctx context.Context, id string) (*domain.SiteMap, error) {
	return r.getOne(ctx, `SELECT `+siteMapColumns+` FROM site_maps WHERE id = ?`, id)
}

func (r *SQLiteSiteMapRepo) GetBySlug(ctx context.Context, slug string) (*domain.SiteMap, error) {
	return r.getOne(ctx, `SELECT `+siteMapColumns+` FROM site_maps WHERE slug = ?`, slug)
}

func (r *SQLiteSiteMapRepo) List(ctx context.Context) ([]*domain.SiteMap, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+siteMapColumns+` FROM site_maps ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing site maps: %w", err)
	}
	defer rows.Close()

	var out []*domain.SiteMap
	for rows.Next() {
		m, err := scanSiteMap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteSiteMapRepo) getOne(ctx context.Context, query string, arg string) (*domain.SiteMap, error) {
	m, err := scanSiteMap(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("site map %s: %w", arg, ErrNotFound)
		}
		return nil, err
	}
	return m, nil
}

func scanSiteMap(s rowScanner) (*domain.SiteMap, error) {
	var m domain.SiteMap
	var createdAt, updatedAt string
	if err := s.Scan(&m.ID, &m.Name, &m.Slug, &m.ImagePath, &m.NaturalWidth, &m.NaturalHeight,
		&createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning site map: %w", err)
	}
	m.CreatedAt, _ = parseTime(createdAt)
	m.UpdatedAt, _ = parseTime(updatedAt)
	return &m, nil
}
