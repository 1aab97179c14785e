package repository

import (
	"context"

	"cabbooking/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// ListByRider retrieves a rider's bookings, newest first.
	ListByRider(ctx context.Context, riderID string) ([]*domain.Booking, error)

	// ListByDriver retrieves a driver's bookings, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Booking, error)

	// List retrieves the most recent bookings.
	List(ctx context.Context, limit int) ([]*domain.Booking, error)

	// Update writes the booking if its stored version still equals
	// booking.Version, then increments booking.Version.
	// Returns ErrVersionConflict otherwise.
	Update(ctx context.Context, booking *domain.Booking) error
}
