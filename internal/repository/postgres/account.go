package postgres

import (
	"context"
	"database/sql"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

// AccountRepository is a PostgreSQL implementation of repository.AccountRepository.
type AccountRepository struct {
	q Querier
}

const accountColumns = `id, name, email, COALESCE(phone, ''), role, license_number, rating, rating_count,
	is_available, current_lat, current_lng, COALESCE(current_address, ''), created_at`

// Create persists a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, email, phone, role, license_number, rating, rating_count, is_available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var license sql.NullString
	var rating float64
	var ratingCount int
	var available bool
	if account.Driver != nil {
		license = nullString(account.Driver.LicenseNumber)
		rating = account.Driver.Rating
		ratingCount = account.Driver.NumberOfRatings
		available = account.Driver.Available
	}

	_, err := r.q.ExecContext(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		nullString(account.Phone),
		account.Role,
		license,
		rating,
		ratingCount,
		available,
		account.CreatedAt,
	)
	return mapError(err)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	account, err := scanAccount(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return account, nil
}

// List retrieves accounts with the given role, or every account if role is empty.
func (r *AccountRepository) List(ctx context.Context, role domain.Role) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ($1 = '' OR role = $1) ORDER BY created_at, id`

	rows, err := r.q.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// UpdateRating stores a driver's rating aggregate.
func (r *AccountRepository) UpdateRating(ctx context.Context, driverID string, rating float64, count int) error {
	query := `UPDATE accounts SET rating = $1, rating_count = $2 WHERE id = $3 AND role = 'DRIVER'`

	result, err := r.q.ExecContext(ctx, query, rating, count, driverID)
	if err != nil {
		return err
	}
	return expectOne(result, repository.ErrNotFound)
}

func scanAccount(row scanner) (*domain.Account, error) {
	var account domain.Account
	var license sql.NullString
	var rating float64
	var ratingCount int
	var available bool
	var lat, lng sql.NullFloat64
	var address string

	if err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.Phone,
		&account.Role,
		&license,
		&rating,
		&ratingCount,
		&available,
		&lat,
		&lng,
		&address,
		&account.CreatedAt,
	); err != nil {
		return nil, err
	}

	if account.Role == domain.RoleDriver {
		account.Driver = &domain.DriverProfile{
			LicenseNumber:   license.String,
			Rating:          rating,
			NumberOfRatings: ratingCount,
			Available:       available,
			Location:        domain.Location{Lat: lat.Float64, Lng: lng.Float64, Address: address},
		}
	}
	return &account, nil
}
