package repository

import (
	"context"

	"cabbooking/internal/domain"
)

// AccountRepository defines the persistence operations for accounts.
type AccountRepository interface {
	// Create persists a new account. Returns ErrDuplicate if the email is taken.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// List retrieves accounts with the given role, or all accounts if role is empty.
	List(ctx context.Context, role domain.Role) ([]*domain.Account, error)

	// UpdateRating stores a driver's rating aggregate.
	UpdateRating(ctx context.Context, driverID string, rating float64, count int) error
}
