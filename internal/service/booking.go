package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cabbooking/internal/domain"
	"cabbooking/internal/logger"
	"cabbooking/internal/metrics"
	"cabbooking/internal/redis"
	"cabbooking/internal/repository"
)

const defaultListLimit = 100

// MatchingServiceInterface defines the matching service contract.
type MatchingServiceInterface interface {
	Match(ctx context.Context, req MatchRequest) (*MatchResult, error)
}

// Ensure MatchingService implements MatchingServiceInterface.
var _ MatchingServiceInterface = (*MatchingService)(nil)

// BookingService drives a booking from request to completion or cancellation.
type BookingService struct {
	store    repository.Store
	matcher  MatchingServiceInterface
	payments *PaymentService
	fares    FarePolicy
	cache    redis.BookingCacheInterface
	refunds  RefundQueue
	notify   announcer
	log      *logger.Logger
}

// NewBookingService creates a new BookingService. Completed rides are charged
// the estimate and refunds are settled inline until configured otherwise.
func NewBookingService(
	store repository.Store,
	matcher MatchingServiceInterface,
	payments *PaymentService,
	log *logger.Logger,
) *BookingService {
	log = log.Named("booking")
	return &BookingService{
		store:    store,
		matcher:  matcher,
		payments: payments,
		fares:    EstimateFarePolicy{},
		refunds:  InlineRefundQueue{Payments: payments},
		notify:   announcer{log: log},
		log:      log,
	}
}

// WithFarePolicy replaces the policy deciding the actual fare.
func (s *BookingService) WithFarePolicy(p FarePolicy) *BookingService {
	s.fares = p
	return s
}

// WithCache serves booking reads through a cache.
func (s *BookingService) WithCache(c redis.BookingCacheInterface) *BookingService {
	s.cache = c
	return s
}

// WithRefundQueue routes refunds for cancelled bookings through q.
func (s *BookingService) WithRefundQueue(q RefundQueue) *BookingService {
	s.refunds = q
	return s
}

// WithEvents publishes booking changes and pushes them to riders and drivers.
func (s *BookingService) WithEvents(pub EventPublisher, notifier *NotificationService) *BookingService {
	s.notify.events = pub
	s.notify.notifier = notifier
	return s
}

// RequestRideInput contains the parameters for requesting a ride.
type RequestRideInput struct {
	Pickup  domain.Location
	Dropoff domain.Location
	CabType domain.CabType
}

// RequestRide creates a PENDING booking for the caller and dispatches it.
// When no driver can be claimed the booking is stored as NO_DRIVER_FOUND and
// returned together with ErrNoDriverAvailable.
func (s *BookingService) RequestRide(ctx context.Context, caller domain.Caller, in RequestRideInput) (*domain.Booking, error) {
	if caller.ID == "" {
		return nil, ErrMissingCaller
	}
	if !isValidLocation(in.Pickup) {
		return nil, fmt.Errorf("%w: pickup", ErrInvalidLocation)
	}
	if !isValidLocation(in.Dropoff) {
		return nil, fmt.Errorf("%w: dropoff", ErrInvalidLocation)
	}
	cabType, ok := domain.ParseCabType(string(in.CabType))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCabType, in.CabType)
	}

	repos := s.store.Repositories()
	if _, err := repos.Accounts.GetByID(ctx, caller.ID); err != nil {
		return nil, fmt.Errorf("rider %s: %w", caller.ID, err)
	}

	now := time.Now().UTC()
	booking := &domain.Booking{
		ID:            uuid.New().String(),
		RiderID:       caller.ID,
		Pickup:        in.Pickup,
		Dropoff:       in.Dropoff,
		CabType:       cabType,
		Status:        domain.BookingStatusPending,
		EstimatedFare: EstimateFare(in.Pickup, in.Dropoff, cabType),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repos.Bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	metrics.BookingsRequested.WithLabelValues(string(cabType)).Inc()
	s.committed(ctx, EventBookingRequested, booking)

	result, err := s.matcher.Match(ctx, MatchRequest{
		BookingID: booking.ID,
		Pickup:    booking.Pickup,
		CabType:   cabType,
	})
	if errors.Is(err, ErrNoDriverAvailable) {
		return s.markNoDriverFound(ctx, booking.ID)
	}
	if err != nil {
		// Dispatch is not retried, so the booking must not stay PENDING.
		if _, merr := s.markNoDriverFound(context.WithoutCancel(ctx), booking.ID); !errors.Is(merr, ErrNoDriverAvailable) {
			s.log.Error("booking left PENDING after failed match",
				logger.String("booking_id", booking.ID),
				logger.Err(merr))
		}
		return nil, fmt.Errorf("match booking %s: %w", booking.ID, err)
	}

	s.committed(ctx, EventBookingAccepted, result.Booking)
	return result.Booking, nil
}

func (s *BookingService) markNoDriverFound(ctx context.Context, bookingID string) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		b, err := repos.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingStatusPending {
			return ErrInvalidStateTransition
		}
		b.Status = domain.BookingStatusNoDriverFound
		b.UpdatedAt = time.Now().UTC()
		if err := repos.Bookings.Update(ctx, b); err != nil {
			return versionAsStateError(err)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, EventBookingNoDriverFound, booking)
	return booking, ErrNoDriverAvailable
}

// DriverAccepts moves PENDING to ACCEPTED. Dispatch already performs this
// step while claiming the driver, so it only succeeds for a booking that
// is bound to the caller and still PENDING.
func (s *BookingService) DriverAccepts(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	return s.driverTransition(ctx, caller, bookingID,
		domain.BookingStatusPending, domain.BookingStatusAccepted, EventBookingAccepted, nil)
}

// DriverArrives moves ACCEPTED to ARRIVED.
func (s *BookingService) DriverArrives(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	return s.driverTransition(ctx, caller, bookingID,
		domain.BookingStatusAccepted, domain.BookingStatusArrived, EventBookingArrived, nil)
}

// DriverStarts moves ARRIVED to STARTED and stamps the start time.
func (s *BookingService) DriverStarts(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	return s.driverTransition(ctx, caller, bookingID,
		domain.BookingStatusArrived, domain.BookingStatusStarted, EventBookingStarted,
		func(_ repository.Repositories, b *domain.Booking) error {
			b.StartTime = b.UpdatedAt
			return nil
		})
}

// DriverCompletes moves STARTED to COMPLETED. In the same transaction it
// stamps the end time, fixes the actual fare, creates the payment and
// releases the driver.
func (s *BookingService) DriverCompletes(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	var payment *domain.Payment

	booking, err := s.driverTransition(ctx, caller, bookingID,
		domain.BookingStatusStarted, domain.BookingStatusCompleted, EventBookingCompleted,
		func(repos repository.Repositories, b *domain.Booking) error {
			b.EndTime = b.UpdatedAt
			b.ActualFare = s.fares.ActualFare(b)

			p, _, err := s.payments.CreatePaymentForBookingWithTx(ctx, repos, b)
			if err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return fmt.Errorf("%w: booking %s already has a payment", ErrConflict, b.ID)
				}
				return fmt.Errorf("create payment: %w", err)
			}
			b.PaymentID = p.ID
			payment = p

			return repos.Registry.Release(ctx, b.DriverID)
		})
	if err != nil {
		return nil, err
	}

	s.payments.announce(ctx, EventPaymentCreated, payment, booking.RiderID)
	return booking, nil
}

// driverTransition applies one driver-invoked step. Guards are checked in
// order: the booking exists, the caller is its driver, it is in from.
// mutate runs on the transaction before the booking is written.
func (s *BookingService) driverTransition(
	ctx context.Context,
	caller domain.Caller,
	bookingID string,
	from, to domain.BookingStatus,
	event EventType,
	mutate func(repos repository.Repositories, b *domain.Booking) error,
) (*domain.Booking, error) {
	var booking *domain.Booking

	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		b, err := repos.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.DriverID == "" || caller.ID != b.DriverID {
			return ErrUnauthorized
		}
		if b.Status != from {
			return fmt.Errorf("%w: %s -> %s from %s", ErrInvalidStateTransition, from, to, b.Status)
		}

		b.Status = to
		b.UpdatedAt = time.Now().UTC()
		if mutate != nil {
			if err := mutate(repos, b); err != nil {
				return err
			}
		}
		if err := repos.Bookings.Update(ctx, b); err != nil {
			return versionAsStateError(err)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, event, booking)
	return booking, nil
}

// Cancel cancels a booking that has not started. The rider, the bound driver
// and admins may cancel. A bound driver is released; a completed payment on
// the booking is queued for refund after the cancellation commits.
func (s *BookingService) Cancel(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	var (
		booking  *domain.Booking
		refundID string
	)

	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		b, err := repos.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !canCancel(caller, b) {
			return ErrUnauthorized
		}
		switch b.Status {
		case domain.BookingStatusPending, domain.BookingStatusAccepted, domain.BookingStatusArrived:
		default:
			return fmt.Errorf("%w: cannot cancel a %s booking", ErrInvalidStateTransition, b.Status)
		}

		b.Status = domain.BookingStatusCancelled
		b.CancelledBy = caller.ID
		b.UpdatedAt = time.Now().UTC()
		if err := repos.Bookings.Update(ctx, b); err != nil {
			return versionAsStateError(err)
		}
		if b.HasDriver() {
			if err := repos.Registry.Release(ctx, b.DriverID); err != nil {
				return err
			}
		}

		p, err := repos.Payments.GetByBookingID(ctx, b.ID)
		if err != nil {
			return err
		}
		if p != nil && p.Status == domain.PaymentStatusCompleted {
			refundID = p.ID
		}

		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, EventBookingCancelled, booking)

	if refundID != "" && s.refunds != nil {
		if err := s.refunds.EnqueueRefund(ctx, refundID); err != nil {
			s.log.Error("refund enqueue failed",
				logger.String("booking_id", booking.ID),
				logger.String("payment_id", refundID),
				logger.Err(err))
		}
	}
	return booking, nil
}

func canCancel(caller domain.Caller, b *domain.Booking) bool {
	if caller.IsAdmin() {
		return true
	}
	if caller.ID == "" {
		return false
	}
	return caller.ID == b.RiderID || caller.ID == b.DriverID
}

// RateDriver records the rider's 1..5 rating of a completed ride and folds it
// into the driver's average. A booking can be rated once.
func (s *BookingService) RateDriver(ctx context.Context, caller domain.Caller, bookingID string, rating int) (*domain.Booking, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		b, err := repos.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if caller.ID != b.RiderID {
			return ErrUnauthorized
		}
		if b.Status != domain.BookingStatusCompleted {
			return fmt.Errorf("%w: only completed rides can be rated", ErrInvalidStateTransition)
		}
		if b.DriverRating != 0 {
			return fmt.Errorf("%w: booking already rated", ErrConflict)
		}

		b.DriverRating = rating
		b.UpdatedAt = time.Now().UTC()
		if err := repos.Bookings.Update(ctx, b); err != nil {
			return versionAsStateError(err)
		}

		driver, err := repos.Accounts.GetByID(ctx, b.DriverID)
		if err != nil {
			return err
		}
		if !driver.IsDriver() {
			return fmt.Errorf("account %s is not a driver: %w", driver.ID, repository.ErrNotFound)
		}
		driver.Driver.ApplyRating(rating)
		if err := repos.Accounts.UpdateRating(ctx, driver.ID, driver.Driver.Rating, driver.Driver.NumberOfRatings); err != nil {
			return err
		}

		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, EventBookingRated, booking)
	return booking, nil
}

// GetBooking retrieves a booking visible to the caller: its rider, its
// driver, or an admin.
func (s *BookingService) GetBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && caller.ID != booking.RiderID && (booking.DriverID == "" || caller.ID != booking.DriverID) {
		return nil, ErrUnauthorized
	}
	return booking, nil
}

func (s *BookingService) load(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if s.cache != nil {
		cached, err := s.cache.GetBooking(ctx, bookingID)
		if err != nil {
			s.log.Warn("booking cache read failed", logger.String("booking_id", bookingID), logger.Err(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	booking, err := s.store.Repositories().Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetBooking(ctx, booking); err != nil {
			s.log.Warn("booking cache write failed", logger.String("booking_id", bookingID), logger.Err(err))
		}
	}
	return booking, nil
}

// ListMyBookings returns the caller's ride history, newest first. Drivers see
// rides they drove, everyone else rides they requested.
func (s *BookingService) ListMyBookings(ctx context.Context, caller domain.Caller) ([]*domain.Booking, error) {
	if caller.ID == "" {
		return nil, ErrMissingCaller
	}
	repos := s.store.Repositories()
	if caller.Role == domain.RoleDriver {
		return repos.Bookings.ListByDriver(ctx, caller.ID)
	}
	return repos.Bookings.ListByRider(ctx, caller.ID)
}

// ListBookings returns the most recent bookings. Admin only.
func (s *BookingService) ListBookings(ctx context.Context, caller domain.Caller, limit int) ([]*domain.Booking, error) {
	if !caller.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return s.store.Repositories().Bookings.List(ctx, limit)
}

// committed runs the after-commit side effects of a booking change.
func (s *BookingService) committed(ctx context.Context, event EventType, b *domain.Booking) {
	if s.cache != nil {
		if err := s.cache.InvalidateBooking(ctx, b.ID); err != nil {
			s.log.Warn("booking cache invalidate failed", logger.String("booking_id", b.ID), logger.Err(err))
		}
	}
	metrics.BookingTransitions.WithLabelValues(string(b.Status)).Inc()
	s.log.Info("booking updated",
		logger.String("booking_id", b.ID),
		logger.String("status", string(b.Status)),
		logger.String("driver_id", b.DriverID))
	s.notify.announce(ctx, bookingEvent(event, b))
}
