package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cabbooking/internal/domain"
	"cabbooking/internal/logger"
	"cabbooking/internal/metrics"
	"cabbooking/internal/repository"
)

// GatewayRequest is what the gateway needs to start a charge.
type GatewayRequest struct {
	PaymentID     string
	TransactionID string
	Amount        float64
	Currency      string
}

// GatewayInitiation is the artifact the payer acts on. Reference is the
// gateway's own identifier for the charge, if it has one.
type GatewayInitiation struct {
	RedirectURL string
	Reference   string
}

// Gateway is the payment processor. Status changes arrive later through
// PaymentService.HandleCallback.
type Gateway interface {
	// Name is recorded as the payment method.
	Name() string
	Initiate(ctx context.Context, req GatewayRequest) (*GatewayInitiation, error)
	// Refund returns the payment's amount to the payer. Calls with the same
	// idempotencyKey refund at most once.
	Refund(ctx context.Context, payment *domain.Payment, idempotencyKey string) error
}

// MockGateway hands out local redirect URLs and accepts every refund.
type MockGateway struct {
	redirectURL string
}

// NewMockGateway creates a new mock gateway redirecting to redirectURL.
func NewMockGateway(redirectURL string) *MockGateway {
	return &MockGateway{redirectURL: redirectURL}
}

func (g *MockGateway) Name() string { return "MOCK_GATEWAY" }

// Initiate returns "<redirectURL>?paymentId=<id>&token=<random>".
func (g *MockGateway) Initiate(_ context.Context, req GatewayRequest) (*GatewayInitiation, error) {
	return &GatewayInitiation{
		RedirectURL: fmt.Sprintf("%s?paymentId=%s&token=%s", g.redirectURL, req.PaymentID, uuid.New().String()),
		Reference:   "mock_" + req.TransactionID,
	}, nil
}

func (g *MockGateway) Refund(context.Context, *domain.Payment, string) error { return nil }

// PaymentService settles completed bookings.
type PaymentService struct {
	store    repository.Store
	gateway  Gateway
	currency string
	notify   announcer
	log      *logger.Logger
}

// NewPaymentService creates a new PaymentService. An empty currency means USD.
func NewPaymentService(store repository.Store, gateway Gateway, currency string, log *logger.Logger) *PaymentService {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	log = log.Named("payment")
	return &PaymentService{
		store:    store,
		gateway:  gateway,
		currency: currency,
		notify:   announcer{log: log},
		log:      log,
	}
}

// WithEvents publishes payment changes and pushes them to the rider.
func (s *PaymentService) WithEvents(pub EventPublisher, notifier *NotificationService) *PaymentService {
	s.notify.events = pub
	s.notify.notifier = notifier
	return s
}

// CreatePaymentForBooking returns the booking's payment, creating it in
// PENDING on first use. The booking must be COMPLETED.
func (s *PaymentService) CreatePaymentForBooking(ctx context.Context, booking *domain.Booking) (*domain.Payment, error) {
	var (
		payment *domain.Payment
		created bool
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		payment, created, err = s.CreatePaymentForBookingWithTx(ctx, repos, booking)
		return err
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent call created it first.
		return s.store.Repositories().Payments.GetByBookingID(ctx, booking.ID)
	}
	if err != nil {
		return nil, err
	}
	if created {
		s.announce(ctx, EventPaymentCreated, payment, booking.RiderID)
	}
	return payment, nil
}

// CreatePaymentForBookingWithTx is CreatePaymentForBooking on the caller's
// transaction. created is false if the payment already existed.
func (s *PaymentService) CreatePaymentForBookingWithTx(ctx context.Context, repos repository.Repositories, booking *domain.Booking) (payment *domain.Payment, created bool, err error) {
	if booking.Status != domain.BookingStatusCompleted {
		return nil, false, fmt.Errorf("%w: payment requires a completed booking, got %s", ErrInvalidStateTransition, booking.Status)
	}

	existing, err := repos.Payments.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now().UTC()
	payment = &domain.Payment{
		ID:            uuid.New().String(),
		BookingID:     booking.ID,
		Amount:        booking.ActualFare,
		Currency:      s.currency,
		Method:        s.gateway.Name(),
		Status:        domain.PaymentStatusPending,
		TransactionID: uuid.New().String(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repos.Payments.Create(ctx, payment); err != nil {
		return nil, false, err
	}
	return payment, true, nil
}

// PaymentInitiation is returned to the payer to continue at the gateway.
type PaymentInitiation struct {
	Payment     *domain.Payment
	RedirectURL string
}

// InitiateWithGateway starts the charge for a PENDING payment. Only the
// booking's rider or an admin may do so. The payment status is not changed.
func (s *PaymentService) InitiateWithGateway(ctx context.Context, caller domain.Caller, paymentID string) (*PaymentInitiation, error) {
	repos := s.store.Repositories()

	payment, err := repos.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	booking, err := repos.Bookings.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && caller.ID != booking.RiderID {
		return nil, ErrUnauthorized
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil, fmt.Errorf("%w: payment is %s", ErrInvalidStateTransition, payment.Status)
	}

	started, err := s.gateway.Initiate(ctx, GatewayRequest{
		PaymentID:     payment.ID,
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway initiate: %w", err)
	}

	if started.Reference != "" && started.Reference != payment.GatewayReference {
		if err := repos.Payments.SetGatewayReference(ctx, payment.ID, started.Reference); err != nil {
			return nil, err
		}
		payment.GatewayReference = started.Reference
	}

	s.log.Info("payment initiated",
		logger.String("payment_id", payment.ID),
		logger.String("gateway", s.gateway.Name()))

	return &PaymentInitiation{Payment: payment, RedirectURL: started.RedirectURL}, nil
}

// CallbackInput is an asynchronous status report from the gateway.
type CallbackInput struct {
	TransactionID string
	Status        string
	PayerID       string
}

// ParseGatewayStatus maps an external status code onto a payment status,
// ignoring case and surrounding whitespace.
func ParseGatewayStatus(s string) (domain.PaymentStatus, bool) {
	switch st := domain.PaymentStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case domain.PaymentStatusCompleted, domain.PaymentStatusFailed, domain.PaymentStatusRefunded:
		return st, true
	}
	return "", false
}

// HandleCallback applies a gateway status report. Repeated reports of the
// current status are no-ops. An unrecognized status leaves the payment
// unchanged and returns ErrUnrecognizedGatewayStatus with the payment.
func (s *PaymentService) HandleCallback(ctx context.Context, in CallbackInput) (*domain.Payment, error) {
	var (
		payment *domain.Payment
		changed bool
	)

	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		p, err := repos.Payments.GetByTransactionID(ctx, in.TransactionID)
		if err != nil {
			return err
		}
		payment = p

		target, ok := ParseGatewayStatus(in.Status)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnrecognizedGatewayStatus, in.Status)
		}

		changed, err = applyGatewayStatus(p, target, in.PayerID)
		if err != nil || !changed {
			return err
		}
		return versionAsStateError(repos.Payments.Update(ctx, p))
	})

	switch {
	case errors.Is(err, ErrUnrecognizedGatewayStatus):
		metrics.PaymentCallbacks.WithLabelValues("UNRECOGNIZED", "ignored").Inc()
		s.log.Warn("unrecognized gateway status",
			logger.String("transaction_id", in.TransactionID),
			logger.String("status", in.Status))
		return payment, err
	case err != nil:
		metrics.PaymentCallbacks.WithLabelValues(strings.ToUpper(strings.TrimSpace(in.Status)), "rejected").Inc()
		return nil, err
	case !changed:
		metrics.PaymentCallbacks.WithLabelValues(string(payment.Status), "duplicate").Inc()
		return payment, nil
	}

	metrics.PaymentCallbacks.WithLabelValues(string(payment.Status), "applied").Inc()
	s.log.Info("payment status changed",
		logger.String("payment_id", payment.ID),
		logger.String("status", string(payment.Status)))
	s.announce(ctx, paymentEventType(payment.Status), payment, s.riderOf(ctx, payment))
	return payment, nil
}

// applyGatewayStatus moves p to target. It reports false when there is
// nothing to write: the status is already current, or a late COMPLETED
// arrives for a payment that was refunded.
func applyGatewayStatus(p *domain.Payment, target domain.PaymentStatus, payerID string) (bool, error) {
	if p.Status == target {
		return false, nil
	}
	if p.Status == domain.PaymentStatusRefunded && target == domain.PaymentStatusCompleted {
		return false, nil
	}

	now := time.Now().UTC()
	switch {
	case p.Status == domain.PaymentStatusPending && target == domain.PaymentStatusCompleted:
		p.PayerID = payerID
		p.PaymentDate = now
	case p.Status == domain.PaymentStatusPending && target == domain.PaymentStatusFailed:
	case p.Status == domain.PaymentStatusCompleted && target == domain.PaymentStatusRefunded:
	default:
		return false, fmt.Errorf("%w: payment %s -> %s", ErrInvalidStateTransition, p.Status, target)
	}

	p.Status = target
	p.UpdatedAt = now
	return true, nil
}

// InitiateRefund refunds a COMPLETED payment. The payment is moved to
// REFUNDED before the gateway is called, so a concurrent or redelivered
// request finds it claimed and never reaches the gateway. If the gateway
// fails the payment is put back to COMPLETED.
func (s *PaymentService) InitiateRefund(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.claimRefund(ctx, paymentID)
	if err != nil {
		metrics.Refunds.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if err := s.gateway.Refund(ctx, payment, RefundKey(payment)); err != nil {
		metrics.Refunds.WithLabelValues("gateway_error").Inc()
		err = fmt.Errorf("gateway refund: %w", err)

		// The caller's context may be what failed the gateway call.
		if rerr := s.releaseRefund(context.WithoutCancel(ctx), payment); rerr != nil {
			s.log.Error("refund claim not released; payment left REFUNDED",
				logger.String("payment_id", payment.ID),
				logger.Err(rerr))
			return nil, errors.Join(err, rerr)
		}
		return nil, err
	}

	metrics.Refunds.WithLabelValues("refunded").Inc()
	s.log.Info("payment refunded", logger.String("payment_id", payment.ID))
	s.announce(ctx, EventPaymentRefunded, payment, s.riderOf(ctx, payment))
	return payment, nil
}

// RefundKey is the gateway idempotency key for refunding p. It is stable
// across retries, so the gateway refunds a charge at most once.
func RefundKey(p *domain.Payment) string {
	return "refund-" + p.TransactionID
}

// claimRefund moves a COMPLETED payment to REFUNDED with a version check.
func (s *PaymentService) claimRefund(ctx context.Context, paymentID string) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		p, err := repos.Payments.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status != domain.PaymentStatusCompleted {
			return fmt.Errorf("%w: refund requires a completed payment, got %s", ErrInvalidStateTransition, p.Status)
		}
		p.Status = domain.PaymentStatusRefunded
		p.UpdatedAt = time.Now().UTC()
		if err := repos.Payments.Update(ctx, p); err != nil {
			return versionAsStateError(err)
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// releaseRefund undoes claimRefund after a failed gateway call. It only
// applies if nothing else has written the payment since the claim.
func (s *PaymentService) releaseRefund(ctx context.Context, claimed *domain.Payment) error {
	return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		p, err := repos.Payments.GetByID(ctx, claimed.ID)
		if err != nil {
			return err
		}
		if p.Status != domain.PaymentStatusRefunded || p.Version != claimed.Version {
			return fmt.Errorf("%w: payment changed during refund", ErrInvalidStateTransition)
		}
		p.Status = domain.PaymentStatusCompleted
		p.UpdatedAt = time.Now().UTC()
		return versionAsStateError(repos.Payments.Update(ctx, p))
	})
}

// GetPayment retrieves a payment visible to the caller: the booking's rider,
// its driver, or an admin.
func (s *PaymentService) GetPayment(ctx context.Context, caller domain.Caller, paymentID string) (*domain.Payment, error) {
	repos := s.store.Repositories()

	payment, err := repos.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin() {
		return payment, nil
	}
	booking, err := repos.Bookings.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if caller.ID != booking.RiderID && caller.ID != booking.DriverID {
		return nil, ErrUnauthorized
	}
	return payment, nil
}

func (s *PaymentService) riderOf(ctx context.Context, p *domain.Payment) string {
	b, err := s.store.Repositories().Bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		return ""
	}
	return b.RiderID
}

func (s *PaymentService) announce(ctx context.Context, t EventType, p *domain.Payment, riderID string) {
	s.notify.announce(ctx, paymentEvent(t, p, riderID))
}

func paymentEventType(status domain.PaymentStatus) EventType {
	switch status {
	case domain.PaymentStatusCompleted:
		return EventPaymentCompleted
	case domain.PaymentStatusFailed:
		return EventPaymentFailed
	case domain.PaymentStatusRefunded:
		return EventPaymentRefunded
	}
	return EventPaymentCreated
}
