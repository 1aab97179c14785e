package service

import (
	"context"
	"time"

	"cabbooking/internal/domain"
	"cabbooking/internal/logger"
)

// EventType names a committed booking or payment change.
type EventType string

const (
	EventBookingRequested     EventType = "booking.requested"
	EventBookingAccepted      EventType = "booking.accepted"
	EventBookingNoDriverFound EventType = "booking.no_driver_found"
	EventBookingArrived       EventType = "booking.arrived"
	EventBookingStarted       EventType = "booking.started"
	EventBookingCompleted     EventType = "booking.completed"
	EventBookingCancelled     EventType = "booking.cancelled"
	EventBookingRated         EventType = "booking.rated"
	EventPaymentCreated       EventType = "payment.created"
	EventPaymentCompleted     EventType = "payment.completed"
	EventPaymentFailed        EventType = "payment.failed"
	EventPaymentRefunded      EventType = "payment.refunded"
)

// Event is the payload published after a change commits.
type Event struct {
	Type       EventType `json:"type"`
	BookingID  string    `json:"booking_id"`
	PaymentID  string    `json:"payment_id,omitempty"`
	RiderID    string    `json:"rider_id,omitempty"`
	DriverID   string    `json:"driver_id,omitempty"`
	Status     string    `json:"status"`
	Amount     float64   `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key partitions events so that one booking's events stay ordered.
func (e Event) Key() string {
	return e.BookingID
}

// EventPublisher ships events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// RefundQueue accepts refund requests to be settled later.
type RefundQueue interface {
	EnqueueRefund(ctx context.Context, paymentID string) error
}

// InlineRefundQueue settles refunds immediately in the calling goroutine.
type InlineRefundQueue struct {
	Payments *PaymentService
}

func (q InlineRefundQueue) EnqueueRefund(ctx context.Context, paymentID string) error {
	_, err := q.Payments.InitiateRefund(ctx, paymentID)
	return err
}

func bookingEvent(t EventType, b *domain.Booking) Event {
	return Event{
		Type:       t,
		BookingID:  b.ID,
		PaymentID:  b.PaymentID,
		RiderID:    b.RiderID,
		DriverID:   b.DriverID,
		Status:     string(b.Status),
		Amount:     b.ActualFare,
		OccurredAt: time.Now().UTC(),
	}
}

func paymentEvent(t EventType, p *domain.Payment, riderID string) Event {
	return Event{
		Type:       t,
		BookingID:  p.BookingID,
		PaymentID:  p.ID,
		RiderID:    riderID,
		Status:     string(p.Status),
		Amount:     p.Amount,
		OccurredAt: time.Now().UTC(),
	}
}

// announcer fans a committed change out to the event stream and to push
// notifications. Failures are logged and never reach the caller.
type announcer struct {
	events   EventPublisher
	notifier *NotificationService
	log      *logger.Logger
}

func (a announcer) announce(ctx context.Context, ev Event) {
	if a.events != nil {
		if err := a.events.Publish(ctx, ev); err != nil {
			a.log.Warn("event publish failed",
				logger.String("type", string(ev.Type)),
				logger.String("booking_id", ev.BookingID),
				logger.Err(err))
		}
	}
	if a.notifier != nil {
		a.notifier.Notify(ctx, ev)
	}
}
