package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cabbooking/internal/domain"
	"cabbooking/internal/logger"
	"cabbooking/internal/repository"
	"cabbooking/internal/service"
)

func newDriverAccount(t *testing.T, f *fixture, email string) domain.Caller {
	t.Helper()
	accounts := service.NewAccountService(f.store.Repositories().Accounts, logger.NewNop())
	acc, err := accounts.Register(context.Background(), service.RegisterInput{
		Name:          "Asha",
		Email:         email,
		Role:          domain.RoleDriver,
		LicenseNumber: "DL-0420110149646",
	})
	require.NoError(t, err)
	return domain.Caller{ID: acc.ID, Role: domain.RoleDriver}
}

func TestRegisterCab(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	driver := newDriverAccount(t, f, "asha@example.com")

	cab, err := f.cabs.RegisterCab(ctx, driver, service.RegisterCabInput{
		LicensePlate: " ka01ab1234 ",
		Make:         "Toyota",
		Model:        "Etios",
		CabType:      "sedan",
		Capacity:     4,
	})
	require.NoError(t, err)
	assert.Equal(t, "KA01AB1234", cab.LicensePlate)
	assert.Equal(t, domain.CabTypeSedan, cab.Type)
	assert.True(t, cab.Active)
	assert.Equal(t, driver.ID, cab.DriverID)

	// Registered but off duty until the driver says otherwise.
	rec, err := f.store.Repositories().Registry.Get(ctx, driver.ID)
	require.NoError(t, err)
	assert.False(t, rec.Matchable(domain.CabTypeSedan))

	rec, err = f.cabs.SetDriverAvailability(ctx, driver, true)
	require.NoError(t, err)
	assert.True(t, rec.Matchable(domain.CabTypeSedan))
	assert.Equal(t, cab.ID, rec.CabID)
}

func TestRegisterCab_Rejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	driver := newDriverAccount(t, f, "asha@example.com")
	other := newDriverAccount(t, f, "ravi@example.com")
	rider := f.rider(t, "rider-1")

	_, err := f.cabs.RegisterCab(ctx, driver, service.RegisterCabInput{LicensePlate: "KA01AB1234", CabType: domain.CabTypeSUV, Capacity: 6})
	require.NoError(t, err)

	tests := []struct {
		name   string
		caller domain.Caller
		in     service.RegisterCabInput
		want   error
	}{
		{"second cab for driver", driver, service.RegisterCabInput{LicensePlate: "KA01ZZ0001", CabType: domain.CabTypeSedan, Capacity: 4}, service.ErrConflict},
		{"duplicate plate", other, service.RegisterCabInput{LicensePlate: "ka01ab1234", CabType: domain.CabTypeSedan, Capacity: 4}, service.ErrConflict},
		{"zero capacity", other, service.RegisterCabInput{LicensePlate: "KA01ZZ0002", CabType: domain.CabTypeSedan}, service.ErrInvalidCapacity},
		{"unknown class", other, service.RegisterCabInput{LicensePlate: "KA01ZZ0003", CabType: "BUS", Capacity: 40}, service.ErrInvalidCabType},
		{"missing plate", other, service.RegisterCabInput{CabType: domain.CabTypeSedan, Capacity: 4}, service.ErrInvalidCab},
		{"rider", rider, service.RegisterCabInput{LicensePlate: "KA01ZZ0004", CabType: domain.CabTypeSedan, Capacity: 4}, service.ErrUnauthorized},
		{"unknown account", domain.Caller{ID: "ghost"}, service.RegisterCabInput{LicensePlate: "KA01ZZ0005", CabType: domain.CabTypeSedan, Capacity: 4}, repository.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.cabs.RegisterCab(ctx, tt.caller, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	active, err := f.cabs.ListActiveCabs(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestUpdateCab(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.driver(t, "driver-1", domain.CabTypeSedan, 0)
	second := f.driver(t, "driver-2", domain.CabTypeSedan, 0)

	cab, err := f.cabs.UpdateCab(ctx, second, "cab-driver-2", service.UpdateCabInput{Model: "Innova", CabType: domain.CabTypeSUV, Capacity: 7})
	require.NoError(t, err)
	assert.Equal(t, "Innova", cab.Model)
	assert.Equal(t, domain.CabTypeSUV, cab.Type)
	assert.Equal(t, 7, cab.Capacity)
	assert.Equal(t, "KA01-driver-2", cab.LicensePlate)

	_, err = f.cabs.UpdateCab(ctx, second, "cab-driver-2", service.UpdateCabInput{LicensePlate: "ka01-driver-1"})
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = f.cabs.UpdateCab(ctx, second, "cab-driver-1", service.UpdateCabInput{Model: "Swift"})
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = f.cabs.UpdateCab(ctx, admin, "cab-driver-1", service.UpdateCabInput{Capacity: -1})
	assert.ErrorIs(t, err, service.ErrInvalidCapacity)

	got, err := f.cabs.GetCab(ctx, "cab-driver-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Capacity)
}

func TestDeactivateCab_StopsMatching(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	cab, err := f.cabs.DeactivateCab(ctx, driver, "cab-driver-1")
	require.NoError(t, err)
	assert.False(t, cab.Active)

	_, err = f.bookings.RequestRide(ctx, rider, sedanRide())
	assert.ErrorIs(t, err, service.ErrNoDriverAvailable)
}

func TestUpdateDriverLocation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)
	rider := f.rider(t, "rider-1")

	rec, err := f.cabs.UpdateDriverLocation(ctx, driver, dropoff)
	require.NoError(t, err)
	assert.Equal(t, dropoff, rec.Location)

	cab, err := f.cabs.GetCab(ctx, "cab-driver-1")
	require.NoError(t, err)
	assert.Equal(t, dropoff, cab.Location)

	_, err = f.cabs.UpdateDriverLocation(ctx, driver, domain.Location{Lat: 100})
	assert.ErrorIs(t, err, service.ErrInvalidLocation)

	_, err = f.cabs.UpdateDriverLocation(ctx, rider, pickup)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetDriverAvailability_OffDuty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rider := f.rider(t, "rider-1")
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	rec, err := f.cabs.SetDriverAvailability(ctx, driver, false)
	require.NoError(t, err)
	assert.False(t, rec.Available)

	_, err = f.bookings.RequestRide(ctx, rider, sedanRide())
	assert.ErrorIs(t, err, service.ErrNoDriverAvailable)
}

func TestSetDriverAvailability_LocksDriverBeforeBookingCheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	driver := f.driver(t, "driver-1", domain.CabTypeSedan, 0)

	var (
		mu  sync.Mutex
		ops []string
	)
	f.store.Observe(func(op string) {
		mu.Lock()
		defer mu.Unlock()
		ops = append(ops, op)
	})
	_, err := f.cabs.SetDriverAvailability(ctx, driver, true)
	f.store.Observe(nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(ops), 3)
	assert.Equal(t, []string{"registry.lock_driver", "bookings.list", "registry.set_available"}, ops[:3])
}
