package domain

import "time"

// PaymentStatus represents the settlement state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "USD"

// Payment settles a completed booking. There is at most one per booking.
type Payment struct {
	ID               string
	BookingID        string
	Amount           float64
	Currency         string
	Method           string
	Status           PaymentStatus
	TransactionID    string
	PayerID          string
	GatewayReference string
	PaymentDate      time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Version is bumped on every write and checked by the repository.
	Version int64
}
