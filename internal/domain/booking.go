package domain

import "time"

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending       BookingStatus = "PENDING"
	BookingStatusAccepted      BookingStatus = "ACCEPTED"
	BookingStatusArrived       BookingStatus = "ARRIVED"
	BookingStatusStarted       BookingStatus = "STARTED"
	BookingStatusCompleted     BookingStatus = "COMPLETED"
	BookingStatusCancelled     BookingStatus = "CANCELLED"
	BookingStatusNoDriverFound BookingStatus = "NO_DRIVER_FOUND"
)

// Terminal reports whether no further transition is allowed.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoDriverFound:
		return true
	}
	return false
}

// Active reports whether a driver is bound and working on the booking.
func (s BookingStatus) Active() bool {
	switch s {
	case BookingStatusAccepted, BookingStatusArrived, BookingStatusStarted:
		return true
	}
	return false
}

// Booking is one ride request and its lifecycle record.
// DriverID and CabID are both set or both empty.
type Booking struct {
	ID            string
	RiderID       string
	DriverID      string
	CabID         string
	Pickup        Location
	Dropoff       Location
	CabType       CabType
	Status        BookingStatus
	EstimatedFare float64
	ActualFare    float64
	PaymentID     string
	DriverRating  int // 0 until the rider rates the driver
	CancelledBy   string
	StartTime     time.Time
	EndTime       time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Version is bumped on every write and checked by the repository.
	Version int64
}

// HasDriver reports whether a driver and cab are bound.
func (b *Booking) HasDriver() bool {
	return b.DriverID != "" && b.CabID != ""
}
