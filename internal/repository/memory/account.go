package memory

import (
	"context"
	"sort"
	"strings"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

// AccountRepository is an in-memory implementation of repository.AccountRepository.
type AccountRepository struct {
	v view
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	return r.v.do("accounts.create", func(st *state) error {
		if _, ok := st.accounts[account.ID]; ok {
			return repository.ErrDuplicate
		}
		for _, a := range st.accounts {
			if strings.EqualFold(a.Email, account.Email) {
				return repository.ErrDuplicate
			}
		}
		st.accounts[account.ID] = account.Clone()
		return nil
	})
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var out *domain.Account
	err := r.v.do("accounts.get", func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = a.Clone()
		return nil
	})
	return out, err
}

func (r *AccountRepository) List(ctx context.Context, role domain.Role) ([]*domain.Account, error) {
	var out []*domain.Account
	err := r.v.do("accounts.list", func(st *state) error {
		for _, a := range st.accounts {
			if role == "" || a.Role == role {
				out = append(out, a.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *AccountRepository) UpdateRating(ctx context.Context, driverID string, rating float64, count int) error {
	return r.v.do("accounts.update_rating", func(st *state) error {
		a, ok := st.accounts[driverID]
		if !ok || !a.IsDriver() {
			return repository.ErrNotFound
		}
		a.Driver.Rating = rating
		a.Driver.NumberOfRatings = count
		return nil
	})
}
