package repository

import (
	"context"

	"cabbooking/internal/domain"
)

// AvailabilityRegistry tracks which drivers are free and what they offer.
// Claim is the only way to take a driver out of the pool.
type AvailabilityRegistry interface {
	// Get returns a driver's availability record.
	Get(ctx context.Context, driverID string) (*domain.DriverAvailability, error)

	// Candidates returns matchable drivers for a cab class, ordered by
	// registration time and then driver ID.
	Candidates(ctx context.Context, cabType domain.CabType) ([]domain.DriverAvailability, error)

	// Claim flips the driver's availability from true to false.
	// Returns false without error if the driver was not available.
	Claim(ctx context.Context, driverID string) (bool, error)

	// Release marks the driver available again.
	Release(ctx context.Context, driverID string) error

	// LockDriver holds the driver's row until the transaction ends, so a
	// concurrent Claim waits for it and vice versa. Outside a transaction it
	// only checks that the driver exists.
	LockDriver(ctx context.Context, driverID string) error

	// SetAvailable sets the availability flag unconditionally.
	SetAvailable(ctx context.Context, driverID string, available bool) error

	// UpdateLocation stores the driver's position and mirrors it onto the cab.
	UpdateLocation(ctx context.Context, driverID string, loc domain.Location) error
}
