package repository

import (
	"context"

	"cabbooking/internal/domain"
)

// CabRepository defines the persistence operations for cabs.
type CabRepository interface {
	// Create persists a new cab. Returns ErrDuplicate if the license plate
	// or the driver is already registered.
	Create(ctx context.Context, cab *domain.Cab) error

	// GetByID retrieves a cab by ID.
	GetByID(ctx context.Context, id string) (*domain.Cab, error)

	// GetByDriverID retrieves the cab owned by a driver.
	GetByDriverID(ctx context.Context, driverID string) (*domain.Cab, error)

	// ListActive retrieves all active cabs.
	ListActive(ctx context.Context) ([]*domain.Cab, error)

	// Update updates an existing cab. Returns ErrDuplicate if the new
	// license plate is already in use.
	Update(ctx context.Context, cab *domain.Cab) error
}
