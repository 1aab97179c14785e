package postgres

import (
	"context"
	"database/sql"
	"errors"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

const paymentColumns = `id, booking_id, amount, currency, method, status, transaction_id,
	payer_id, gateway_reference, payment_date, created_at, updated_at, version`

// Create persists a new payment at version 1.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, amount, currency, method, status, transaction_id,
			payer_id, gateway_reference, payment_date, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.Amount,
		payment.Currency,
		payment.Method,
		payment.Status,
		payment.TransactionID,
		nullString(payment.PayerID),
		nullString(payment.GatewayReference),
		nullTime(payment.PaymentDate),
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}

	payment.Version = 1
	return nil
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return payment, nil
}

// GetByBookingID retrieves the payment of a booking.
// Returns nil if the booking has no payment.
func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1`
	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

// GetByTransactionID retrieves a payment by its gateway transaction ID.
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, txnID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1`
	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, txnID))
	if err != nil {
		return nil, mapError(err)
	}
	return payment, nil
}

// Update writes the payment if the stored version matches, then bumps payment.Version.
func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, payer_id = $2, payment_date = $3, updated_at = $4, version = version + 1
		WHERE id = $5 AND version = $6
	`

	result, err := r.q.ExecContext(ctx, query,
		payment.Status,
		nullString(payment.PayerID),
		nullTime(payment.PaymentDate),
		payment.UpdatedAt,
		payment.ID,
		payment.Version,
	)
	if err != nil {
		return err
	}

	if err := expectOne(result, repository.ErrVersionConflict); err != nil {
		return err
	}

	payment.Version++
	return nil
}

// SetGatewayReference records the gateway's reference for a payment.
func (r *PaymentRepository) SetGatewayReference(ctx context.Context, id, ref string) error {
	query := `UPDATE payments SET gateway_reference = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, ref, id)
	if err != nil {
		return err
	}
	return expectOne(result, repository.ErrNotFound)
}

func scanPayment(row scanner) (*domain.Payment, error) {
	var payment domain.Payment
	var payerID, gatewayRef sql.NullString
	var paymentDate sql.NullTime

	if err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.Amount,
		&payment.Currency,
		&payment.Method,
		&payment.Status,
		&payment.TransactionID,
		&payerID,
		&gatewayRef,
		&paymentDate,
		&payment.CreatedAt,
		&payment.UpdatedAt,
		&payment.Version,
	); err != nil {
		return nil, err
	}

	payment.PayerID = payerID.String
	payment.GatewayReference = gatewayRef.String
	if paymentDate.Valid {
		payment.PaymentDate = paymentDate.Time
	}
	return &payment, nil
}
