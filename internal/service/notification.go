package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cabbooking/internal/logger"
)

// Notification is the message pushed to a connected rider or driver.
type Notification struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	RecipientID string         `json:"recipient_id"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Data        map[string]any `json:"data"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Pusher delivers a payload to every live connection of a user.
type Pusher interface {
	SendToUser(userID string, payload any)
}

// NotificationService turns events into user-facing notifications.
type NotificationService struct {
	pusher Pusher
	log    *logger.Logger
}

// NewNotificationService creates a new NotificationService.
// A nil pusher only logs.
func NewNotificationService(pusher Pusher, log *logger.Logger) *NotificationService {
	return &NotificationService{pusher: pusher, log: log}
}

type notificationText struct {
	title    string
	message  string
	toRider  bool
	toDriver bool
}

var notificationTexts = map[EventType]notificationText{
	EventBookingAccepted:      {"Driver Assigned", "A driver has accepted your ride", true, true},
	EventBookingNoDriverFound: {"No Driver Found", "No driver is available for your ride right now", true, false},
	EventBookingArrived:       {"Driver Arrived", "Your driver has arrived at the pickup point", true, false},
	EventBookingStarted:       {"Trip Started", "Your trip has started. Enjoy your ride!", true, false},
	EventBookingCompleted:     {"Trip Completed", "You have reached your destination", true, true},
	EventBookingCancelled:     {"Ride Cancelled", "The ride has been cancelled", true, true},
	EventPaymentCompleted:     {"Payment Successful", "Your payment was received", true, false},
	EventPaymentFailed:        {"Payment Failed", "Your payment could not be processed", true, false},
	EventPaymentRefunded:      {"Payment Refunded", "Your payment has been refunded", true, false},
}

// Notify pushes the event to the parties it concerns. Events without a
// user-facing text are ignored.
func (s *NotificationService) Notify(ctx context.Context, ev Event) {
	text, ok := notificationTexts[ev.Type]
	if !ok {
		return
	}

	var recipients []string
	if text.toRider && ev.RiderID != "" {
		recipients = append(recipients, ev.RiderID)
	}
	if text.toDriver && ev.DriverID != "" {
		recipients = append(recipients, ev.DriverID)
	}

	for _, id := range recipients {
		s.send(ctx, Notification{
			ID:          uuid.New().String(),
			Type:        ev.Type,
			RecipientID: id,
			Title:       text.title,
			Message:     messageFor(text.message, ev),
			Data: map[string]any{
				"booking_id": ev.BookingID,
				"payment_id": ev.PaymentID,
				"status":     ev.Status,
			},
			CreatedAt: ev.OccurredAt,
		})
	}
}

func messageFor(base string, ev Event) string {
	if ev.Amount > 0 && (ev.Type == EventBookingCompleted || ev.Type == EventPaymentCompleted) {
		return fmt.Sprintf("%s. Fare: %.2f", base, ev.Amount)
	}
	return base
}

func (s *NotificationService) send(_ context.Context, n Notification) {
	s.log.Debug("notification",
		logger.String("type", string(n.Type)),
		logger.String("recipient_id", n.RecipientID),
		logger.String("booking_id", n.Data["booking_id"].(string)))
	if s.pusher != nil {
		s.pusher.SendToUser(n.RecipientID, n)
	}
}
