package memory

import (
	"context"
	"sort"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

// AvailabilityRegistry is an in-memory implementation of repository.AvailabilityRegistry
// backed by the account and cab maps.
type AvailabilityRegistry struct {
	v view
}

func (r *AvailabilityRegistry) Get(ctx context.Context, driverID string) (*domain.DriverAvailability, error) {
	var out *domain.DriverAvailability
	err := r.v.do("registry.get", func(st *state) error {
		a, ok := st.accounts[driverID]
		if !ok || !a.IsDriver() {
			return repository.ErrNotFound
		}
		rec := st.availability(a)
		out = &rec
		return nil
	})
	return out, err
}

func (r *AvailabilityRegistry) Candidates(ctx context.Context, cabType domain.CabType) ([]domain.DriverAvailability, error) {
	var out []domain.DriverAvailability
	err := r.v.do("registry.candidates", func(st *state) error {
		for _, a := range st.accounts {
			if !a.IsDriver() {
				continue
			}
			if rec := st.availability(a); rec.Matchable(cabType) {
				out = append(out, rec)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].DriverID < out[j].DriverID
	})
	return out, err
}

func (r *AvailabilityRegistry) Claim(ctx context.Context, driverID string) (bool, error) {
	claimed := false
	err := r.v.do("registry.claim", func(st *state) error {
		a, ok := st.accounts[driverID]
		if !ok || !a.IsDriver() {
			return repository.ErrNotFound
		}
		if a.Driver.Available {
			a.Driver.Available = false
			claimed = true
		}
		return nil
	})
	return claimed, err
}

func (r *AvailabilityRegistry) Release(ctx context.Context, driverID string) error {
	return r.setAvailable("registry.release", driverID, true)
}

// LockDriver only checks that the driver exists; transactions already run
// one at a time.
func (r *AvailabilityRegistry) LockDriver(ctx context.Context, driverID string) error {
	return r.v.do("registry.lock_driver", func(st *state) error {
		if a, ok := st.accounts[driverID]; !ok || !a.IsDriver() {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *AvailabilityRegistry) SetAvailable(ctx context.Context, driverID string, available bool) error {
	return r.setAvailable("registry.set_available", driverID, available)
}

func (r *AvailabilityRegistry) setAvailable(op, driverID string, available bool) error {
	return r.v.do(op, func(st *state) error {
		a, ok := st.accounts[driverID]
		if !ok || !a.IsDriver() {
			return repository.ErrNotFound
		}
		a.Driver.Available = available
		return nil
	})
}

func (r *AvailabilityRegistry) UpdateLocation(ctx context.Context, driverID string, loc domain.Location) error {
	return r.v.do("registry.update_location", func(st *state) error {
		a, ok := st.accounts[driverID]
		if !ok || !a.IsDriver() {
			return repository.ErrNotFound
		}
		a.Driver.Location = loc
		if c := st.cabByDriver(driverID); c != nil {
			c.Location = loc
		}
		return nil
	})
}

func (st *state) availability(a *domain.Account) domain.DriverAvailability {
	rec := domain.DriverAvailability{
		DriverID:     a.ID,
		Available:    a.Driver.Available,
		Location:     a.Driver.Location,
		RegisteredAt: a.CreatedAt,
	}
	if c := st.cabByDriver(a.ID); c != nil {
		rec.CabID = c.ID
		rec.CabType = c.Type
		rec.CabActive = c.Active
	}
	return rec
}
