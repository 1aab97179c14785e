package repository

import "context"

// Repositories groups the repositories that share one storage session.
type Repositories struct {
	Accounts AccountRepository
	Cabs     CabRepository
	Bookings BookingRepository
	Payments PaymentRepository
	Registry AvailabilityRegistry
}

// Transactor runs fn against repositories bound to one transaction.
// The transaction commits if fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}

// Store is a storage backend: auto-commit repositories plus transactions.
type Store interface {
	Transactor
	Repositories() Repositories
}
