package postgres

import (
	"context"
	"database/sql"

	"cabbooking/internal/repository"
)

// Store is a PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
}

// NewStore creates a new PostgreSQL store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)

// Repositories returns repositories that run each statement in its own transaction.
func (s *Store) Repositories() repository.Repositories {
	return newRepositories(s.db)
}

// WithinTx runs fn against repositories bound to a single database transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(newRepositories(tx)); err != nil {
		return err
	}

	return tx.Commit()
}

func newRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Accounts: &AccountRepository{q: q},
		Cabs:     &CabRepository{q: q},
		Bookings: &BookingRepository{q: q},
		Payments: &PaymentRepository{q: q},
		Registry: &AvailabilityRegistry{q: q},
	}
}
