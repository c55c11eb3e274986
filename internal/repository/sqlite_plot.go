package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/domain"
)

type SQLitePlotRepo struct {
	db db.DBTX
}

func NewSQLitePlotRepo(conn db.DBTX) *SQLitePlotRepo {
	return &SQLitePlotRepo{db: conn}
}

const plotColumns = `id, map_id, name, latitude, longitude, coordinates, street_address,
		homebuilder_id, construction_type_id, unit_type_id,
		number_of_beds, number_of_storeys, square_footage, minimum_sale_price,
		description, contractor, notes, created_at, updated_at`

func (r *SQLitePlotRepo) Create(ctx context.Context, p *domain.Plot) error {
	coords, err := encodeCoordinates(p.Coordinates)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO plots (`+plotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.MapID, p.Name, p.Latitude, p.Longitude, coords, p.StreetAddress,
		nullableStrToValue(p.HomebuilderID),
		nullableStrToValue(p.ConstructionTypeID),
		nullableStrToValue(p.UnitTypeID),
		nullableIntToValue(p.NumberOfBeds),
		nullableIntToValue(p.NumberOfStoreys),
		nullableIntToValue(p.SquareFootage),
		nullableIntToValue(p.MinimumSalePrice),
		p.Description, p.Contractor, p.Notes,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting plot: %w", err)
	}
	return nil
}

func (r *SQLitePlotRepo) GetByID(ctx context.Context, id string) (*domain.Plot, error) {
	p, err := scanPlot(r.db.QueryRowContext(ctx, `SELECT `+plotColumns+` FROM plots WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("plot %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (r *SQLitePlotRepo) ListByMap(ctx context.Context, mapID string) ([]*domain.Plot, error) {
	return r.list(ctx, `SELECT `+plotColumns+` FROM plots WHERE map_id = ? ORDER BY name`, mapID)
}

func (r *SQLitePlotRepo) List(ctx context.Context) ([]*domain.Plot, error) {
	return r.list(ctx, `SELECT `+plotColumns+` FROM plots ORDER BY map_id, name`)
}

func (r *SQLitePlotRepo) Update(ctx context.Context, p *domain.Plot) error {
	coords, err := encodeCoordinates(p.Coordinates)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE plots SET
		map_id = ?, name = ?, latitude = ?, longitude = ?, coordinates = ?, street_address = ?,
		homebuilder_id = ?, construction_type_id = ?, unit_type_id = ?,
		number_of_beds = ?, number_of_storeys = ?, square_footage = ?, minimum_sale_price = ?,
		description = ?, contractor = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		p.MapID, p.Name, p.Latitude, p.Longitude, coords, p.StreetAddress,
		nullableStrToValue(p.HomebuilderID),
		nullableStrToValue(p.ConstructionTypeID),
		nullableStrToValue(p.UnitTypeID),
		nullableIntToValue(p.NumberOfBeds),
		nullableIntToValue(p.NumberOfStoreys),
		nullableIntToValue(p.SquareFootage),
		nullableIntToValue(p.MinimumSalePrice),
		p.Description, p.Contractor, p.Notes, formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating plot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plot %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLitePlotRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting plot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plot %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLitePlotRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Plot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing plots: %w", err)
	}
	defer rows.Close()

	var out []*domain.Plot
	for rows.Next() {
		p, err := scanPlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plots: %w", err)
	}
	return out, nil
}

func scanPlot(s rowScanner) (*domain.Plot, error) {
	var p domain.Plot
	var coords, homebuilderID, typeID, unitTypeID sql.NullString
	var beds, storeys, sqft, price sql.NullInt64
	var createdAt, updatedAt string

	err := s.Scan(&p.ID, &p.MapID, &p.Name, &p.Latitude, &p.Longitude, &coords, &p.StreetAddress,
		&homebuilderID, &typeID, &unitTypeID,
		&beds, &storeys, &sqft, &price,
		&p.Description, &p.Contractor, &p.Notes, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning plot: %w", err)
	}

	if coords.Valid && coords.String != "" {
		if err := json.Unmarshal([]byte(coords.String), &p.Coordinates); err != nil {
			return nil, fmt.Errorf("decoding plot %s coordinates: %w", p.ID, err)
		}
	}
	p.HomebuilderID = parseNullableStr(homebuilderID)
	p.ConstructionTypeID = parseNullableStr(typeID)
	p.UnitTypeID = parseNullableStr(unitTypeID)
	p.NumberOfBeds = parseNullableInt(beds)
	p.NumberOfStoreys = parseNullableInt(storeys)
	p.SquareFootage = parseNullableInt(sqft)
	p.MinimumSalePrice = parseNullableInt(price)
	p.CreatedAt, _ = parseTime(createdAt)
	p.UpdatedAt, _ = parseTime(updatedAt)
	return &p, nil
}

// encodeCoordinates stores the polygon as a JSON array of [x, y] pairs.
func encodeCoordinates(c [][2]float64) (any, error) {
	if len(c) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding coordinates: %w", err)
	}
	return string(b), nil
}
