package memory

import (
	"context"
	"sort"
	"strings"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

// CabRepository is an in-memory implementation of repository.CabRepository.
type CabRepository struct {
	v view
}

func (r *CabRepository) Create(ctx context.Context, cab *domain.Cab) error {
	return r.v.do("cabs.create", func(st *state) error {
		if _, ok := st.cabs[cab.ID]; ok {
			return repository.ErrDuplicate
		}
		for _, c := range st.cabs {
			if c.DriverID == cab.DriverID || strings.EqualFold(c.LicensePlate, cab.LicensePlate) {
				return repository.ErrDuplicate
			}
		}
		cp := *cab
		st.cabs[cab.ID] = &cp
		return nil
	})
}

func (r *CabRepository) GetByID(ctx context.Context, id string) (*domain.Cab, error) {
	var out *domain.Cab
	err := r.v.do("cabs.get", func(st *state) error {
		c, ok := st.cabs[id]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *c
		out = &cp
		return nil
	})
	return out, err
}

func (r *CabRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.Cab, error) {
	var out *domain.Cab
	err := r.v.do("cabs.get", func(st *state) error {
		c := st.cabByDriver(driverID)
		if c == nil {
			return repository.ErrNotFound
		}
		cp := *c
		out = &cp
		return nil
	})
	return out, err
}

func (r *CabRepository) ListActive(ctx context.Context) ([]*domain.Cab, error) {
	var out []*domain.Cab
	err := r.v.do("cabs.list", func(st *state) error {
		for _, c := range st.cabs {
			if c.Active {
				cp := *c
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *CabRepository) Update(ctx context.Context, cab *domain.Cab) error {
	return r.v.do("cabs.update", func(st *state) error {
		if _, ok := st.cabs[cab.ID]; !ok {
			return repository.ErrNotFound
		}
		for _, c := range st.cabs {
			if c.ID != cab.ID && strings.EqualFold(c.LicensePlate, cab.LicensePlate) {
				return repository.ErrDuplicate
			}
		}
		cp := *cab
		st.cabs[cab.ID] = &cp
		return nil
	})
}

func (st *state) cabByDriver(driverID string) *domain.Cab {
	for _, c := range st.cabs {
		if c.DriverID == driverID {
			return c
		}
	}
	return nil
}
