package postgres

import (
	"context"
	"database/sql"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

// AvailabilityRegistry is a PostgreSQL implementation of repository.AvailabilityRegistry.
// Availability lives on the driver's account row; Claim is a conditional update,
// so two transactions can never both flip the same driver.
type AvailabilityRegistry struct {
	q Querier
}

const availabilityColumns = `a.id, a.is_available, a.current_lat, a.current_lng, COALESCE(a.current_address, ''),
	c.id, c.cab_type, c.is_active, a.created_at`

// Get returns a driver's availability record.
func (r *AvailabilityRegistry) Get(ctx context.Context, driverID string) (*domain.DriverAvailability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM accounts a LEFT JOIN cabs c ON c.driver_id = a.id
		WHERE a.id = $1 AND a.role = 'DRIVER'
	`
	rec, err := scanAvailability(r.q.QueryRowContext(ctx, query, driverID))
	if err != nil {
		return nil, mapError(err)
	}
	return rec, nil
}

// Candidates returns matchable drivers for a cab class, oldest registration first.
func (r *AvailabilityRegistry) Candidates(ctx context.Context, cabType domain.CabType) ([]domain.DriverAvailability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM accounts a JOIN cabs c ON c.driver_id = a.id
		WHERE a.role = 'DRIVER' AND a.is_available AND c.is_active AND c.cab_type = $1
		ORDER BY a.created_at, a.id
	`

	rows, err := r.q.QueryContext(ctx, query, cabType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.DriverAvailability
	for rows.Next() {
		rec, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *rec)
	}
	return candidates, rows.Err()
}

// Claim flips is_available from true to false. The row lock taken by the
// update serializes concurrent claims; the loser sees the flag already false.
func (r *AvailabilityRegistry) Claim(ctx context.Context, driverID string) (bool, error) {
	query := `UPDATE accounts SET is_available = false WHERE id = $1 AND role = 'DRIVER' AND is_available`

	result, err := r.q.ExecContext(ctx, query, driverID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rowsAffected == 1 {
		return true, nil
	}

	if _, err := r.Get(ctx, driverID); err != nil {
		return false, err
	}
	return false, nil
}

// Release marks the driver available again.
func (r *AvailabilityRegistry) Release(ctx context.Context, driverID string) error {
	return r.SetAvailable(ctx, driverID, true)
}

// LockDriver takes the row lock on the driver's account.
func (r *AvailabilityRegistry) LockDriver(ctx context.Context, driverID string) error {
	query := `SELECT id FROM accounts WHERE id = $1 AND role = 'DRIVER' FOR UPDATE`

	var id string
	if err := r.q.QueryRowContext(ctx, query, driverID).Scan(&id); err != nil {
		return mapError(err)
	}
	return nil
}

// SetAvailable sets the availability flag unconditionally.
func (r *AvailabilityRegistry) SetAvailable(ctx context.Context, driverID string, available bool) error {
	query := `UPDATE accounts SET is_available = $1 WHERE id = $2 AND role = 'DRIVER'`

	result, err := r.q.ExecContext(ctx, query, available, driverID)
	if err != nil {
		return err
	}
	return expectOne(result, repository.ErrNotFound)
}

// UpdateLocation stores the driver's position and mirrors it onto the cab.
func (r *AvailabilityRegistry) UpdateLocation(ctx context.Context, driverID string, loc domain.Location) error {
	query := `
		UPDATE accounts SET current_lat = $1, current_lng = $2, current_address = $3
		WHERE id = $4 AND role = 'DRIVER'
	`

	result, err := r.q.ExecContext(ctx, query, loc.Lat, loc.Lng, nullString(loc.Address), driverID)
	if err != nil {
		return err
	}
	if err := expectOne(result, repository.ErrNotFound); err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, `UPDATE cabs SET current_lat = $1, current_lng = $2 WHERE driver_id = $3`,
		loc.Lat, loc.Lng, driverID)
	return err
}

func scanAvailability(row scanner) (*domain.DriverAvailability, error) {
	var rec domain.DriverAvailability
	var lat, lng sql.NullFloat64
	var cabID, cabType sql.NullString
	var cabActive sql.NullBool

	if err := row.Scan(
		&rec.DriverID,
		&rec.Available,
		&lat,
		&lng,
		&rec.Location.Address,
		&cabID,
		&cabType,
		&cabActive,
		&rec.RegisteredAt,
	); err != nil {
		return nil, err
	}

	rec.Location.Lat = lat.Float64
	rec.Location.Lng = lng.Float64
	rec.CabID = cabID.String
	rec.CabType = domain.CabType(cabType.String)
	rec.CabActive = cabActive.Bool
	return &rec, nil
}
