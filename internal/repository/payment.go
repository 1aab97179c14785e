package repository

import (
	"context"

	"cabbooking/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment. Returns ErrDuplicate if the booking
	// already has a payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByBookingID retrieves the payment of a booking.
	// Returns nil if the booking has no payment.
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error)

	// GetByTransactionID retrieves a payment by its gateway transaction ID.
	GetByTransactionID(ctx context.Context, txnID string) (*domain.Payment, error)

	// Update writes the payment if its stored version still equals
	// payment.Version, then increments payment.Version.
	// Returns ErrVersionConflict otherwise.
	Update(ctx context.Context, payment *domain.Payment) error

	// SetGatewayReference records the gateway's reference without
	// touching status or version.
	SetGatewayReference(ctx context.Context, id, ref string) error
}
