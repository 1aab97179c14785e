package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
	"cabbooking/internal/service"
)

func sedanRide() service.RequestRideInput {
	return service.RequestRideInput{Pickup: pickup, Dropoff: dropoff, CabType: domain.CabTypeSedan}
}

func TestRequestRide_AssignsDriver(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	b, err := f.bookings.RequestRide(context.Background(), rider, sedanRide())
	require.NoError(t, err)

	assert.Equal(t, domain.BookingStatusAccepted, b.Status)
	assert.Equal(t, "driver-1", b.DriverID)
	assert.Equal(t, "cab-driver-1", b.CabID)
	assert.InDelta(t, service.EstimateFare(pickup, dropoff, domain.CabTypeSedan), b.EstimatedFare, 1e-9)
	assert.False(t, f.available(t, "driver-1"))
	assert.Equal(t, []service.EventType{service.EventBookingRequested, service.EventBookingAccepted}, f.events.types())
}

func TestRequestRide_NoDriverFoundIsStored(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	f.driver(t, "driver-1", domain.CabTypeSUV, 0)

	b, err := f.bookings.RequestRide(context.Background(), rider, sedanRide())
	require.ErrorIs(t, err, service.ErrNoDriverAvailable)
	require.NotNil(t, b)

	assert.Equal(t, domain.BookingStatusNoDriverFound, b.Status)
	assert.Empty(t, b.DriverID)
	assert.Equal(t, domain.BookingStatusNoDriverFound, f.stored(t, b.ID).Status)
	assert.True(t, f.available(t, "driver-1"))
}

func TestRequestRide_MatchFailureDoesNotLeavePendingBooking(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	boom := errors.New("registry offline")
	f.store.InjectError("registry.candidates", boom)

	b, err := f.bookings.RequestRide(ctx, rider, sedanRide())
	require.ErrorIs(t, err, boom)
	assert.Nil(t, b)

	bookings, err := f.store.Repositories().Bookings.ListByRider(ctx, rider.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, domain.BookingStatusNoDriverFound, bookings[0].Status)
	assert.True(t, f.available(t, "driver-1"))
}

func TestRequestRide_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	ctx := context.Background()

	tests := []struct {
		name   string
		caller domain.Caller
		in     service.RequestRideInput
		want   error
	}{
		{"missing caller", domain.Caller{}, sedanRide(), service.ErrMissingCaller},
		{"bad pickup", rider, service.RequestRideInput{Pickup: domain.Location{Lat: 91}, Dropoff: dropoff, CabType: domain.CabTypeSedan}, service.ErrInvalidLocation},
		{"bad dropoff", rider, service.RequestRideInput{Pickup: pickup, Dropoff: domain.Location{Lng: -181}, CabType: domain.CabTypeSedan}, service.ErrInvalidLocation},
		{"bad cab type", rider, service.RequestRideInput{Pickup: pickup, Dropoff: dropoff, CabType: "ROCKET"}, service.ErrInvalidCabType},
		{"unknown rider", domain.Caller{ID: "ghost", Role: domain.RoleRider}, sedanRide(), repository.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.RequestRide(ctx, tt.caller, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRequestRide_LowercaseCabTypeAccepted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	f.driver(t, "driver-1", domain.CabTypeLuxury, 0)

	b, err := f.bookings.RequestRide(context.Background(), rider, service.RequestRideInput{Pickup: pickup, Dropoff: dropoff, CabType: "luxury"})
	require.NoError(t, err)
	assert.Equal(t, domain.CabTypeLuxury, b.CabType)
}

func TestRequestRide_ConcurrentRequestsForOneDriver(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	riders := []domain.Caller{f.rider(t, "rider-1"), f.rider(t, "rider-2")}
	f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	var (
		wg      sync.WaitGroup
		results = make([]*domain.Booking, len(riders))
		errs    = make([]error, len(riders))
	)
	for i, r := range riders {
		wg.Add(1)
		go func(i int, r domain.Caller) {
			defer wg.Done()
			results[i], errs[i] = f.bookings.RequestRide(context.Background(), r, sedanRide())
		}(i, r)
	}
	wg.Wait()

	statuses := map[domain.BookingStatus]int{}
	for i := range riders {
		require.NotNil(t, results[i])
		statuses[results[i].Status]++
		if results[i].Status == domain.BookingStatusNoDriverFound {
			assert.ErrorIs(t, errs[i], service.ErrNoDriverAvailable)
		} else {
			assert.NoError(t, errs[i])
		}
	}
	assert.Equal(t, 1, statuses[domain.BookingStatusAccepted])
	assert.Equal(t, 1, statuses[domain.BookingStatusNoDriverFound])
}

func TestRequestRide_ConcurrentRequestsNeverShareADriver(t *testing.T) {
	t.Parallel()

	const riders, drivers = 12, 4
	f := newFixture(t)
	for i := 0; i < drivers; i++ {
		f.driver(t, fmt.Sprintf("driver-%d", i), domain.CabTypeSedan, time.Duration(i)*time.Second)
	}
	callers := make([]domain.Caller, riders)
	for i := range callers {
		callers[i] = f.rider(t, fmt.Sprintf("rider-%d", i))
	}

	var (
		mu       sync.Mutex
		assigned = map[string]int{}
		noDriver int
		wg       sync.WaitGroup
	)
	for _, c := range callers {
		wg.Add(1)
		go func(c domain.Caller) {
			defer wg.Done()
			b, err := f.bookings.RequestRide(context.Background(), c, sedanRide())
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, service.ErrNoDriverAvailable) {
				noDriver++
				return
			}
			assert.NoError(t, err)
			assigned[b.DriverID]++
		}(c)
	}
	wg.Wait()

	assert.Len(t, assigned, drivers)
	for id, n := range assigned {
		assert.Equal(t, 1, n, id)
	}
	assert.Equal(t, riders-drivers, noDriver)
}

func TestLifecycle_HappyPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	b, err := f.bookings.RequestRide(ctx, rider, sedanRide())
	require.NoError(t, err)

	b, err = f.bookings.DriverArrives(ctx, driver, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusArrived, b.Status)
	assert.False(t, f.available(t, driver.ID))

	b, err = f.bookings.DriverStarts(ctx, driver, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusStarted, b.Status)
	assert.False(t, b.StartTime.IsZero())
	assert.True(t, b.EndTime.IsZero())
	assert.False(t, f.available(t, driver.ID))

	b, err = f.bookings.DriverCompletes(ctx, driver, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, b.Status)
	assert.False(t, b.EndTime.IsZero())
	assert.Equal(t, b.EstimatedFare, b.ActualFare)
	assert.True(t, f.available(t, driver.ID))
	require.NotEmpty(t, b.PaymentID)

	p, err := f.store.Repositories().Payments.GetByBookingID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, b.PaymentID, p.ID)
	assert.Equal(t, b.ActualFare, p.Amount)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "MOCK_GATEWAY", p.Method)
	assert.NotEmpty(t, p.TransactionID)

	assert.Contains(t, f.events.types(), service.EventPaymentCreated)
	assert.Contains(t, f.events.types(), service.EventBookingCompleted)
}

type doubleFare struct{}

func (doubleFare) ActualFare(b *domain.Booking) float64 { return b.EstimatedFare * 2 }

func TestLifecycle_FarePolicyDecidesActualFare(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.bookings.WithFarePolicy(doubleFare{})
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	b, p := f.completedRide(t, rider, driver)
	assert.InDelta(t, 2*b.EstimatedFare, b.ActualFare, 1e-9)
	assert.InDelta(t, b.ActualFare, p.Amount, 1e-9)
}

func TestLifecycle_Guards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)
	other := f.driver(t, "driver-2", domain.CabTypeSUV, 0)

	b, err := f.bookings.RequestRide(ctx, rider, sedanRide())
	require.NoError(t, err)

	_, err = f.bookings.DriverArrives(ctx, driver, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.bookings.DriverArrives(ctx, other, b.ID)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = f.bookings.DriverArrives(ctx, rider, b.ID)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = f.bookings.DriverStarts(ctx, driver, b.ID)
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)

	_, err = f.bookings.DriverCompletes(ctx, driver, b.ID)
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)

	_, err = f.bookings.DriverAccepts(ctx, driver, b.ID)
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)

	// Unauthorized is reported before the state check.
	_, err = f.bookings.DriverStarts(ctx, other, b.ID)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	assert.Equal(t, domain.BookingStatusAccepted, f.stored(t, b.ID).Status)
}

func TestLifecycle_CompleteTwiceFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)
	b, _ := f.completedRide(t, rider, driver)

	_, err := f.bookings.DriverCompletes(context.Background(), driver, b.ID)
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
}

func TestLifecycle_CompletionIsAllOrNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)
	b := f.startedRide(t, rider, driver)

	boom := errors.New("disk full")
	f.store.InjectError("payments.create", boom)

	_, err := f.bookings.DriverCompletes(ctx, driver, b.ID)
	require.ErrorIs(t, err, boom)

	stored := f.stored(t, b.ID)
	assert.Equal(t, domain.BookingStatusStarted, stored.Status)
	assert.True(t, stored.EndTime.IsZero())
	assert.Empty(t, stored.PaymentID)
	assert.False(t, f.available(t, driver.ID))
	p, err := f.store.Repositories().Payments.GetByBookingID(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, p)

	f.store.InjectError("payments.create", nil)
	done, err := f.bookings.DriverCompletes(ctx, driver, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, done.Status)
}

func TestLifecycle_ReleaseFailureRollsBackCompletion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)
	b := f.startedRide(t, rider, driver)

	boom := errors.New("registry down")
	f.store.InjectError("registry.release", boom)

	_, err := f.bookings.DriverCompletes(ctx, driver, b.ID)
	require.ErrorIs(t, err, boom)

	assert.Equal(t, domain.BookingStatusStarted, f.stored(t, b.ID).Status)
	p, err := f.store.Repositories().Payments.GetByBookingID(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCancel_StartedBookingFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)
	b := f.startedRide(t, rider, driver)

	_, err := f.bookings.Cancel(context.Background(), rider, b.ID)
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
	assert.Equal(t, domain.BookingStatusStarted, f.stored(t, b.ID).Status)
	assert.False(t, f.available(t, driver.ID))
}

func TestCancel_CompletedBookingFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)
	b, _ := f.completedRide(t, rider, driver)

	_, err := f.bookings.Cancel(context.Background(), admin, b.ID)
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
}

func TestCancel_AcceptedBookingReleasesDriver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	b, err := f.bookings.RequestRide(ctx, rider, sedanRide())
	require.NoError(t, err)
	require.False(t, f.available(t, driver.ID))

	b, err = f.bookings.Cancel(ctx, rider, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, b.Status)
	assert.Equal(t, rider.ID, b.CancelledBy)
	assert.True(t, f.available(t, driver.ID))

	// The released driver is matchable again.
	next, err := f.bookings.RequestRide(ctx, rider, sedanRide())
	require.NoError(t, err)
	assert.Equal(t, driver.ID, next.DriverID)
}

func TestCancel_WhoMayCancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	stranger := f.rider(t, "rider-2")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	b, err := f.bookings.RequestRide(ctx, rider, sedanRide())
	require.NoError(t, err)

	_, err = f.bookings.Cancel(ctx, stranger, b.ID)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = f.bookings.Cancel(ctx, driver, b.ID)
	require.NoError(t, err)
	assert.True(t, f.available(t, driver.ID))

	b, err = f.bookings.RequestRide(ctx, rider, sedanRide())
	require.NoError(t, err)
	_, err = f.bookings.DriverArrives(ctx, driver, b.ID)
	require.NoError(t, err)

	b, err = f.bookings.Cancel(ctx, admin, b.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, b.CancelledBy)

	_, err = f.bookings.Cancel(ctx, admin, b.ID)
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
}

func TestCancel_QueuesRefundForCompletedPayment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	queue := &recordingRefundQueue{}
	f.bookings.WithRefundQueue(queue)
	rider := f.rider(t, "rider-1")
	f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	b, err := f.bookings.RequestRide(ctx, rider, sedanRide())
	require.NoError(t, err)

	// A prepaid ride: settled before the trip took place.
	require.NoError(t, f.store.Repositories().Payments.Create(ctx, &domain.Payment{
		ID:            "pay-1",
		BookingID:     b.ID,
		Amount:        b.EstimatedFare,
		Status:        domain.PaymentStatusCompleted,
		TransactionID: "txn-1",
	}))

	_, err = f.bookings.Cancel(ctx, rider, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"pay-1"}, queue.ids)
}

func TestCancel_RefundFailureDoesNotBlockCancellation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.gateway.refundErr = errors.New("gateway timeout")
	rider := f.rider(t, "rider-1")
	f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	b, err := f.bookings.RequestRide(ctx, rider, sedanRide())
	require.NoError(t, err)
	require.NoError(t, f.store.Repositories().Payments.Create(ctx, &domain.Payment{
		ID:            "pay-1",
		BookingID:     b.ID,
		Status:        domain.PaymentStatusCompleted,
		TransactionID: "txn-1",
	}))

	b, err = f.bookings.Cancel(ctx, rider, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, b.Status)

	p, err := f.store.Repositories().Payments.GetByID(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, p.Status)
}

func TestDriverNeverAvailableWhileBound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	b, err := f.bookings.RequestRide(ctx, rider, sedanRide())
	require.NoError(t, err)

	steps := []func(context.Context, domain.Caller, string) (*domain.Booking, error){
		nil,
		f.bookings.DriverArrives,
		f.bookings.DriverStarts,
	}
	for _, step := range steps {
		if step != nil {
			b, err = step(ctx, driver, b.ID)
			require.NoError(t, err)
		}
		require.True(t, b.Status.Active())
		assert.False(t, f.available(t, driver.ID), b.Status)

		_, err = f.cabs.SetDriverAvailability(ctx, driver, true)
		assert.ErrorIs(t, err, service.ErrInvalidStateTransition, b.Status)
		assert.False(t, f.available(t, driver.ID), b.Status)
	}
}

func TestConcurrentStartAndCancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	b, err := f.bookings.RequestRide(ctx, rider, sedanRide())
	require.NoError(t, err)
	_, err = f.bookings.DriverArrives(ctx, driver, b.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var startErr, cancelErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, startErr = f.bookings.DriverStarts(ctx, driver, b.ID)
	}()
	go func() {
		defer wg.Done()
		_, cancelErr = f.bookings.Cancel(ctx, rider, b.ID)
	}()
	wg.Wait()

	// Exactly one wins; the loser sees an invalid transition.
	if startErr == nil {
		assert.ErrorIs(t, cancelErr, service.ErrInvalidStateTransition)
		assert.Equal(t, domain.BookingStatusStarted, f.stored(t, b.ID).Status)
		assert.False(t, f.available(t, driver.ID))
	} else {
		assert.ErrorIs(t, startErr, service.ErrInvalidStateTransition)
		assert.NoError(t, cancelErr)
		assert.Equal(t, domain.BookingStatusCancelled, f.stored(t, b.ID).Status)
		assert.True(t, f.available(t, driver.ID))
	}
}

func TestRateDriver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	first, _ := f.completedRide(t, rider, driver)
	second, _ := f.completedRide(t, rider, driver)

	_, err := f.bookings.RateDriver(ctx, rider, first.ID, 0)
	assert.ErrorIs(t, err, service.ErrInvalidRating)
	_, err = f.bookings.RateDriver(ctx, rider, first.ID, 6)
	assert.ErrorIs(t, err, service.ErrInvalidRating)
	_, err = f.bookings.RateDriver(ctx, driver, first.ID, 5)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	rated, err := f.bookings.RateDriver(ctx, rider, first.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, rated.DriverRating)

	_, err = f.bookings.RateDriver(ctx, rider, first.ID, 4)
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = f.bookings.RateDriver(ctx, rider, second.ID, 2)
	require.NoError(t, err)

	acc, err := f.store.Repositories().Accounts.GetByID(ctx, driver.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, acc.Driver.NumberOfRatings)
	assert.InDelta(t, 3.5, acc.Driver.Rating, 1e-9)
}

func TestRateDriver_RequiresCompletedRide(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	b, err := f.bookings.RequestRide(context.Background(), rider, sedanRide())
	require.NoError(t, err)

	_, err = f.bookings.RateDriver(context.Background(), rider, b.ID, 4)
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
}

func TestBookingQueries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	stranger := f.rider(t, "rider-2")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	b, err := f.bookings.RequestRide(ctx, rider, sedanRide())
	require.NoError(t, err)

	for _, c := range []domain.Caller{rider, driver, admin} {
		got, err := f.bookings.GetBooking(ctx, c, b.ID)
		require.NoError(t, err, c.ID)
		assert.Equal(t, b.ID, got.ID)
	}
	_, err = f.bookings.GetBooking(ctx, stranger, b.ID)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	_, err = f.bookings.GetBooking(ctx, admin, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	mine, err := f.bookings.ListMyBookings(ctx, rider)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	driven, err := f.bookings.ListMyBookings(ctx, driver)
	require.NoError(t, err)
	assert.Len(t, driven, 1)
	none, err := f.bookings.ListMyBookings(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.bookings.ListBookings(ctx, rider, 10)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	all, err := f.bookings.ListBookings(ctx, admin, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

type mapCache struct {
	mu          sync.Mutex
	items       map[string]*domain.Booking
	invalidated []string
}

func (c *mapCache) GetBooking(_ context.Context, id string) (*domain.Booking, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[id], nil
}

func (c *mapCache) SetBooking(_ context.Context, b *domain.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *b
	c.items[b.ID] = &cp
	return nil
}

func (c *mapCache) InvalidateBooking(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

func TestGetBooking_CacheInvalidatedOnTransition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	cache := &mapCache{items: map[string]*domain.Booking{}}
	f.bookings.WithCache(cache)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	b, err := f.bookings.RequestRide(ctx, rider, sedanRide())
	require.NoError(t, err)

	got, err := f.bookings.GetBooking(ctx, rider, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusAccepted, got.Status)
	require.Contains(t, cache.items, b.ID)

	_, err = f.bookings.DriverArrives(ctx, driver, b.ID)
	require.NoError(t, err)
	assert.NotContains(t, cache.items, b.ID)

	got, err = f.bookings.GetBooking(ctx, rider, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusArrived, got.Status)
}
