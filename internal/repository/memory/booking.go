package memory

import (
	"context"
	"sort"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

// BookingRepository is an in-memory implementation of repository.BookingRepository.
type BookingRepository struct {
	v view
}

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return r.v.do("bookings.create", func(st *state) error {
		if _, ok := st.bookings[booking.ID]; ok {
			return repository.ErrDuplicate
		}
		booking.Version = 1
		cp := *booking
		st.bookings[booking.ID] = &cp
		return nil
	})
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.v.do("bookings.get", func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *b
		out = &cp
		return nil
	})
	return out, err
}

func (r *BookingRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Booking, error) {
	return r.list(func(b *domain.Booking) bool { return b.RiderID == riderID }, 0)
}

func (r *BookingRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Booking, error) {
	return r.list(func(b *domain.Booking) bool { return b.DriverID == driverID }, 0)
}

func (r *BookingRepository) List(ctx context.Context, limit int) ([]*domain.Booking, error) {
	return r.list(func(*domain.Booking) bool { return true }, limit)
}

func (r *BookingRepository) list(match func(*domain.Booking) bool, limit int) ([]*domain.Booking, error) {
	var out []*domain.Booking
	err := r.v.do("bookings.list", func(st *state) error {
		for _, b := range st.bookings {
			if match(b) {
				cp := *b
				out = append(out, &cp)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *BookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	return r.v.do("bookings.update", func(st *state) error {
		stored, ok := st.bookings[booking.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if stored.Version != booking.Version {
			return repository.ErrVersionConflict
		}
		booking.Version++
		cp := *booking
		st.bookings[booking.ID] = &cp
		return nil
	})
}
