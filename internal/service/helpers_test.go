package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cabbooking/internal/domain"
	"cabbooking/internal/logger"
	"cabbooking/internal/repository/memory"
	"cabbooking/internal/service"
)

var (
	epoch   = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pickup  = domain.Location{Lat: 12.9716, Lng: 77.5946, Address: "MG Road"}
	dropoff = domain.Location{Lat: 12.9352, Lng: 77.6245, Address: "Koramangala"}
	admin   = domain.Caller{ID: "admin-1", Role: domain.RoleAdmin}
)

type fixture struct {
	store    *memory.Store
	matcher  *service.MatchingService
	payments *service.PaymentService
	bookings *service.BookingService
	cabs     *service.CabService
	events   *recordingPublisher
	gateway  *fakeGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.NewNop()
	store := memory.NewStore()
	events := &recordingPublisher{}
	gateway := &fakeGateway{MockGateway: service.NewMockGateway("http://localhost:8080/v1/payments/mock")}

	matcher := service.NewMatchingService(store, nil, log)
	payments := service.NewPaymentService(store, gateway, "", log).WithEvents(events, nil)
	bookings := service.NewBookingService(store, matcher, payments, log).WithEvents(events, nil)

	return &fixture{
		store:    store,
		matcher:  matcher,
		payments: payments,
		bookings: bookings,
		cabs:     service.NewCabService(store, log),
		events:   events,
		gateway:  gateway,
	}
}

func (f *fixture) rider(t *testing.T, id string) domain.Caller {
	t.Helper()
	err := f.store.Repositories().Accounts.Create(context.Background(), &domain.Account{
		ID:        id,
		Name:      "Rider " + id,
		Email:     id + "@example.com",
		Role:      domain.RoleRider,
		CreatedAt: epoch,
	})
	require.NoError(t, err)
	return domain.Caller{ID: id, Role: domain.RoleRider}
}

// driver seeds an available driver with an active cab. registeredAfter
// orders drivers for matching.
func (f *fixture) driver(t *testing.T, id string, cabType domain.CabType, registeredAfter time.Duration) domain.Caller {
	t.Helper()
	ctx := context.Background()
	repos := f.store.Repositories()

	require.NoError(t, repos.Accounts.Create(ctx, &domain.Account{
		ID:        id,
		Name:      "Driver " + id,
		Email:     id + "@example.com",
		Role:      domain.RoleDriver,
		Driver:    &domain.DriverProfile{LicenseNumber: "LIC-" + id, Available: true, Location: pickup},
		CreatedAt: epoch.Add(registeredAfter),
	}))
	require.NoError(t, repos.Cabs.Create(ctx, &domain.Cab{
		ID:           "cab-" + id,
		DriverID:     id,
		LicensePlate: "KA01-" + id,
		Type:         cabType,
		Capacity:     4,
		Active:       true,
		CreatedAt:    epoch,
	}))
	return domain.Caller{ID: id, Role: domain.RoleDriver}
}

func (f *fixture) available(t *testing.T, driverID string) bool {
	t.Helper()
	rec, err := f.store.Repositories().Registry.Get(context.Background(), driverID)
	require.NoError(t, err)
	return rec.Available
}

func (f *fixture) stored(t *testing.T, bookingID string) *domain.Booking {
	t.Helper()
	b, err := f.store.Repositories().Bookings.GetByID(context.Background(), bookingID)
	require.NoError(t, err)
	return b
}

// startedRide requests a ride and drives it to STARTED.
func (f *fixture) startedRide(t *testing.T, rider, driver domain.Caller) *domain.Booking {
	t.Helper()
	ctx := context.Background()

	b, err := f.bookings.RequestRide(ctx, rider, service.RequestRideInput{Pickup: pickup, Dropoff: dropoff, CabType: domain.CabTypeSedan})
	require.NoError(t, err)
	require.Equal(t, driver.ID, b.DriverID)

	_, err = f.bookings.DriverArrives(ctx, driver, b.ID)
	require.NoError(t, err)
	b, err = f.bookings.DriverStarts(ctx, driver, b.ID)
	require.NoError(t, err)
	return b
}

// completedRide drives a ride to COMPLETED and returns it with its payment.
func (f *fixture) completedRide(t *testing.T, rider, driver domain.Caller) (*domain.Booking, *domain.Payment) {
	t.Helper()
	ctx := context.Background()

	b := f.startedRide(t, rider, driver)
	b, err := f.bookings.DriverCompletes(ctx, driver, b.ID)
	require.NoError(t, err)

	p, err := f.store.Repositories().Payments.GetByID(ctx, b.PaymentID)
	require.NoError(t, err)
	return b, p
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []service.Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev service.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []service.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]service.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeGateway struct {
	*service.MockGateway
	mu        sync.Mutex
	refunds   []string
	keys      []string
	refundErr error
	// onRefund runs before the refund is recorded.
	onRefund func(p *domain.Payment)
}

func (g *fakeGateway) Refund(_ context.Context, p *domain.Payment, idempotencyKey string) error {
	if g.onRefund != nil {
		g.onRefund(p)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunds = append(g.refunds, p.ID)
	g.keys = append(g.keys, idempotencyKey)
	return nil
}

func (g *fakeGateway) refundCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.refunds)
}

type recordingRefundQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *recordingRefundQueue) EnqueueRefund(_ context.Context, paymentID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, paymentID)
	return nil
}
