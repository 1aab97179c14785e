package postgres

import (
	"context"
	"database/sql"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

// CabRepository is a PostgreSQL implementation of repository.CabRepository.
type CabRepository struct {
	q Querier
}

const cabColumns = `id, driver_id, license_plate, make, model, cab_type, capacity, is_active,
	current_lat, current_lng, created_at, updated_at`

// Create persists a new cab.
func (r *CabRepository) Create(ctx context.Context, cab *domain.Cab) error {
	query := `
		INSERT INTO cabs (id, driver_id, license_plate, make, model, cab_type, capacity, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		cab.ID,
		cab.DriverID,
		cab.LicensePlate,
		cab.Make,
		cab.Model,
		cab.Type,
		cab.Capacity,
		cab.Active,
		cab.CreatedAt,
		cab.UpdatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a cab by ID.
func (r *CabRepository) GetByID(ctx context.Context, id string) (*domain.Cab, error) {
	query := `SELECT ` + cabColumns + ` FROM cabs WHERE id = $1`
	cab, err := scanCab(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return cab, nil
}

// GetByDriverID retrieves the cab owned by a driver.
func (r *CabRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.Cab, error) {
	query := `SELECT ` + cabColumns + ` FROM cabs WHERE driver_id = $1`
	cab, err := scanCab(r.q.QueryRowContext(ctx, query, driverID))
	if err != nil {
		return nil, mapError(err)
	}
	return cab, nil
}

// ListActive retrieves all active cabs.
func (r *CabRepository) ListActive(ctx context.Context) ([]*domain.Cab, error) {
	query := `SELECT ` + cabColumns + ` FROM cabs WHERE is_active ORDER BY id`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cabs []*domain.Cab
	for rows.Next() {
		cab, err := scanCab(rows)
		if err != nil {
			return nil, err
		}
		cabs = append(cabs, cab)
	}
	return cabs, rows.Err()
}

// Update updates an existing cab.
func (r *CabRepository) Update(ctx context.Context, cab *domain.Cab) error {
	query := `
		UPDATE cabs
		SET license_plate = $1, make = $2, model = $3, cab_type = $4, capacity = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := r.q.ExecContext(ctx, query,
		cab.LicensePlate,
		cab.Make,
		cab.Model,
		cab.Type,
		cab.Capacity,
		cab.Active,
		cab.UpdatedAt,
		cab.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOne(result, repository.ErrNotFound)
}

func scanCab(row scanner) (*domain.Cab, error) {
	var cab domain.Cab
	var lat, lng sql.NullFloat64

	if err := row.Scan(
		&cab.ID,
		&cab.DriverID,
		&cab.LicensePlate,
		&cab.Make,
		&cab.Model,
		&cab.Type,
		&cab.Capacity,
		&cab.Active,
		&lat,
		&lng,
		&cab.CreatedAt,
		&cab.UpdatedAt,
	); err != nil {
		return nil, err
	}

	cab.Location = domain.Location{Lat: lat.Float64, Lng: lng.Float64}
	return &cab, nil
}
