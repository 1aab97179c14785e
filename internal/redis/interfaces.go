package redis

import (
	"context"
	"time"

	"cabbooking/internal/domain"
)

// LockStoreInterface defines the interface for distributed driver locks.
type LockStoreInterface interface {
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID string) error
}

// BookingCacheInterface defines the interface for the booking read cache.
type BookingCacheInterface interface {
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	SetBooking(ctx context.Context, booking *domain.Booking) error
	InvalidateBooking(ctx context.Context, bookingID string) error
}

// IdempotencyStoreInterface defines the interface for recorded responses.
type IdempotencyStoreInterface interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface        = (*LockStore)(nil)
	_ BookingCacheInterface     = (*CacheStore)(nil)
	_ IdempotencyStoreInterface = (*IdempotencyStore)(nil)
)
