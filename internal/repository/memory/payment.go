package memory

import (
	"context"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

// PaymentRepository is an in-memory implementation of repository.PaymentRepository.
type PaymentRepository struct {
	v view
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.v.do("payments.create", func(st *state) error {
		for _, p := range st.payments {
			if p.ID == payment.ID || p.BookingID == payment.BookingID || p.TransactionID == payment.TransactionID {
				return repository.ErrDuplicate
			}
		}
		payment.Version = 1
		cp := *payment
		st.payments[payment.ID] = &cp
		return nil
	})
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.find("payments.get", func(p *domain.Payment) bool { return p.ID == id }, repository.ErrNotFound)
}

// GetByBookingID returns nil if the booking has no payment.
func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	return r.find("payments.get", func(p *domain.Payment) bool { return p.BookingID == bookingID }, nil)
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, txnID string) (*domain.Payment, error) {
	return r.find("payments.get", func(p *domain.Payment) bool { return p.TransactionID == txnID }, repository.ErrNotFound)
}

func (r *PaymentRepository) find(op string, match func(*domain.Payment) bool, missing error) (*domain.Payment, error) {
	var out *domain.Payment
	err := r.v.do(op, func(st *state) error {
		for _, p := range st.payments {
			if match(p) {
				cp := *p
				out = &cp
				return nil
			}
		}
		return missing
	})
	return out, err
}

func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	return r.v.do("payments.update", func(st *state) error {
		stored, ok := st.payments[payment.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if stored.Version != payment.Version {
			return repository.ErrVersionConflict
		}
		payment.Version++
		cp := *payment
		st.payments[payment.ID] = &cp
		return nil
	})
}

func (r *PaymentRepository) SetGatewayReference(ctx context.Context, id, ref string) error {
	return r.v.do("payments.set_reference", func(st *state) error {
		p, ok := st.payments[id]
		if !ok {
			return repository.ErrNotFound
		}
		p.GatewayReference = ref
		return nil
	})
}
