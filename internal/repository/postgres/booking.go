package postgres

import (
	"context"
	"database/sql"
	"errors"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

const bookingColumns = `id, rider_id, driver_id, cab_id,
	pickup_lat, pickup_lng, COALESCE(pickup_address, ''),
	dropoff_lat, dropoff_lng, COALESCE(dropoff_address, ''),
	cab_type, status, estimated_fare, actual_fare, payment_id, driver_rating, cancelled_by,
	start_time, end_time, created_at, updated_at, version`

// Create persists a new booking at version 1.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, rider_id, driver_id, cab_id,
			pickup_lat, pickup_lng, pickup_address, dropoff_lat, dropoff_lng, dropoff_address,
			cab_type, status, estimated_fare, actual_fare, payment_id, driver_rating, cancelled_by,
			start_time, end_time, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, 1)
	`

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.RiderID,
		nullString(booking.DriverID),
		nullString(booking.CabID),
		booking.Pickup.Lat,
		booking.Pickup.Lng,
		nullString(booking.Pickup.Address),
		booking.Dropoff.Lat,
		booking.Dropoff.Lng,
		nullString(booking.Dropoff.Address),
		booking.CabType,
		booking.Status,
		booking.EstimatedFare,
		booking.ActualFare,
		nullString(booking.PaymentID),
		booking.DriverRating,
		nullString(booking.CancelledBy),
		nullTime(booking.StartTime),
		nullTime(booking.EndTime),
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}

	booking.Version = 1
	return nil
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return booking, nil
}

// ListByRider retrieves a rider's bookings, newest first.
func (r *BookingRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE rider_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, riderID)
}

// ListByDriver retrieves a driver's bookings, newest first.
func (r *BookingRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE driver_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, driverID)
}

// List retrieves the most recent bookings.
func (r *BookingRepository) List(ctx context.Context, limit int) ([]*domain.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC, id DESC LIMIT $1`
	return r.list(ctx, query, limit)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// Update writes the booking if the stored version matches, then bumps booking.Version.
func (r *BookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	query := `
		UPDATE bookings
		SET driver_id = $1, cab_id = $2, status = $3, estimated_fare = $4, actual_fare = $5,
			payment_id = $6, driver_rating = $7, cancelled_by = $8, start_time = $9, end_time = $10,
			updated_at = $11, version = version + 1
		WHERE id = $12 AND version = $13
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(booking.DriverID),
		nullString(booking.CabID),
		booking.Status,
		booking.EstimatedFare,
		booking.ActualFare,
		nullString(booking.PaymentID),
		booking.DriverRating,
		nullString(booking.CancelledBy),
		nullTime(booking.StartTime),
		nullTime(booking.EndTime),
		booking.UpdatedAt,
		booking.ID,
		booking.Version,
	)
	if err != nil {
		return mapError(err)
	}

	if err := expectOne(result, repository.ErrVersionConflict); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			if _, getErr := r.GetByID(ctx, booking.ID); errors.Is(getErr, repository.ErrNotFound) {
				return repository.ErrNotFound
			}
		}
		return err
	}

	booking.Version++
	return nil
}

func scanBooking(row scanner) (*domain.Booking, error) {
	var booking domain.Booking
	var driverID, cabID, paymentID, cancelledBy sql.NullString
	var startTime, endTime sql.NullTime

	if err := row.Scan(
		&booking.ID,
		&booking.RiderID,
		&driverID,
		&cabID,
		&booking.Pickup.Lat,
		&booking.Pickup.Lng,
		&booking.Pickup.Address,
		&booking.Dropoff.Lat,
		&booking.Dropoff.Lng,
		&booking.Dropoff.Address,
		&booking.CabType,
		&booking.Status,
		&booking.EstimatedFare,
		&booking.ActualFare,
		&paymentID,
		&booking.DriverRating,
		&cancelledBy,
		&startTime,
		&endTime,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.Version,
	); err != nil {
		return nil, err
	}

	booking.DriverID = driverID.String
	booking.CabID = cabID.String
	booking.PaymentID = paymentID.String
	booking.CancelledBy = cancelledBy.String
	if startTime.Valid {
		booking.StartTime = startTime.Time
	}
	if endTime.Valid {
		booking.EndTime = endTime.Time
	}
	return &booking, nil
}
