package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"cabbooking/internal/domain"
)

// BookingCacheTTL bounds staleness of booking reads that bypass the store.
const BookingCacheTTL = 10 * time.Second

const bookingCachePrefix = "cache:booking:"

// CacheStore caches booking snapshots for the read path.
// Writers invalidate after commit; readers fall back to the store on a miss.
type CacheStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client, ttl: BookingCacheTTL}
}

type cachedLocation struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

type cachedBooking struct {
	ID            string         `json:"id"`
	RiderID       string         `json:"rider_id"`
	DriverID      string         `json:"driver_id,omitempty"`
	CabID         string         `json:"cab_id,omitempty"`
	Pickup        cachedLocation `json:"pickup"`
	Dropoff       cachedLocation `json:"dropoff"`
	CabType       string         `json:"cab_type"`
	Status        string         `json:"status"`
	EstimatedFare float64        `json:"estimated_fare"`
	ActualFare    float64        `json:"actual_fare"`
	PaymentID     string         `json:"payment_id,omitempty"`
	DriverRating  int            `json:"driver_rating,omitempty"`
	CancelledBy   string         `json:"cancelled_by,omitempty"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Version       int64          `json:"version"`
}

func toCachedLocation(l domain.Location) cachedLocation {
	return cachedLocation{Lat: l.Lat, Lng: l.Lng, Address: l.Address}
}

func (l cachedLocation) toDomain() domain.Location {
	return domain.Location{Lat: l.Lat, Lng: l.Lng, Address: l.Address}
}

// GetBooking retrieves a booking from cache. Returns nil on a miss.
func (s *CacheStore) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	data, err := s.client.Get(ctx, bookingCachePrefix+bookingID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var c cachedBooking
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &domain.Booking{
		ID:            c.ID,
		RiderID:       c.RiderID,
		DriverID:      c.DriverID,
		CabID:         c.CabID,
		Pickup:        c.Pickup.toDomain(),
		Dropoff:       c.Dropoff.toDomain(),
		CabType:       domain.CabType(c.CabType),
		Status:        domain.BookingStatus(c.Status),
		EstimatedFare: c.EstimatedFare,
		ActualFare:    c.ActualFare,
		PaymentID:     c.PaymentID,
		DriverRating:  c.DriverRating,
		CancelledBy:   c.CancelledBy,
		StartTime:     c.StartTime,
		EndTime:       c.EndTime,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		Version:       c.Version,
	}, nil
}

// SetBooking stores a booking snapshot.
func (s *CacheStore) SetBooking(ctx context.Context, b *domain.Booking) error {
	data, err := json.Marshal(cachedBooking{
		ID:            b.ID,
		RiderID:       b.RiderID,
		DriverID:      b.DriverID,
		CabID:         b.CabID,
		Pickup:        toCachedLocation(b.Pickup),
		Dropoff:       toCachedLocation(b.Dropoff),
		CabType:       string(b.CabType),
		Status:        string(b.Status),
		EstimatedFare: b.EstimatedFare,
		ActualFare:    b.ActualFare,
		PaymentID:     b.PaymentID,
		DriverRating:  b.DriverRating,
		CancelledBy:   b.CancelledBy,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		Version:       b.Version,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, bookingCachePrefix+b.ID, data, s.ttl).Err()
}

// InvalidateBooking removes a booking from cache.
func (s *CacheStore) InvalidateBooking(ctx context.Context, bookingID string) error {
	return s.client.Del(ctx, bookingCachePrefix+bookingID).Err()
}
