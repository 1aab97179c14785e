package service

import (
	"context"
	"errors"
	"time"

	"cabbooking/internal/domain"
	"cabbooking/internal/logger"
	"cabbooking/internal/metrics"
	"cabbooking/internal/redis"
	"cabbooking/internal/repository"
)

const driverLockTTL = 10 * time.Second

// errClaimLost reports that a candidate was taken by a concurrent request.
var errClaimLost = errors.New("driver claim lost")

// Ranker orders matchable candidates for a pickup point.
type Ranker interface {
	Rank(pickup domain.Location, candidates []domain.DriverAvailability) []domain.DriverAvailability
}

// RegistrationOrder keeps the registry order: oldest registration first,
// driver ID as tie-break.
type RegistrationOrder struct{}

func (RegistrationOrder) Rank(_ domain.Location, candidates []domain.DriverAvailability) []domain.DriverAvailability {
	return candidates
}

// MatchingService handles driver-rider matching.
type MatchingService struct {
	store     repository.Store
	lockStore redis.LockStoreInterface
	ranker    Ranker
	log       *logger.Logger
}

// NewMatchingService creates a new MatchingService. lockStore may be nil, in
// which case the database claim alone arbitrates between requests.
func NewMatchingService(store repository.Store, lockStore redis.LockStoreInterface, log *logger.Logger) *MatchingService {
	return &MatchingService{
		store:     store,
		lockStore: lockStore,
		ranker:    RegistrationOrder{},
		log:       log.Named("matching"),
	}
}

// WithRanker replaces the candidate ordering strategy.
func (s *MatchingService) WithRanker(r Ranker) *MatchingService {
	s.ranker = r
	return s
}

// MatchRequest contains the parameters for matching a booking.
type MatchRequest struct {
	BookingID string
	Pickup    domain.Location
	CabType   domain.CabType
}

// MatchResult contains the result of a successful match.
type MatchResult struct {
	DriverID string
	CabID    string
	Booking  *domain.Booking
}

// Match claims a driver for a PENDING booking and moves it to ACCEPTED.
// Candidates are tried in ranked order; a candidate lost to a concurrent
// request is skipped. Returns ErrNoDriverAvailable when the pool is exhausted.
func (s *MatchingService) Match(ctx context.Context, req MatchRequest) (*MatchResult, error) {
	start := time.Now()
	defer func() { metrics.MatchLatency.Observe(time.Since(start).Seconds()) }()

	candidates, err := s.store.Repositories().Registry.Candidates(ctx, req.CabType)
	if err != nil {
		return nil, err
	}

	for _, c := range s.ranker.Rank(req.Pickup, candidates) {
		if !s.lockDriver(ctx, c.DriverID) {
			metrics.ClaimsLost.Inc()
			continue
		}

		booking, err := s.claimAndAssign(ctx, req.BookingID, req.CabType, c.DriverID)
		s.unlockDriver(ctx, c.DriverID)

		if errors.Is(err, errClaimLost) {
			metrics.ClaimsLost.Inc()
			s.log.Debug("claim lost",
				logger.String("booking_id", req.BookingID),
				logger.String("driver_id", c.DriverID))
			continue
		}
		if err != nil {
			return nil, err
		}

		return &MatchResult{
			DriverID: booking.DriverID,
			CabID:    booking.CabID,
			Booking:  booking,
		}, nil
	}

	return nil, ErrNoDriverAvailable
}

// claimAndAssign flips the driver's availability and binds it to the booking
// in one transaction. Either both writes commit or neither does.
func (s *MatchingService) claimAndAssign(ctx context.Context, bookingID string, cabType domain.CabType, driverID string) (*domain.Booking, error) {
	var assigned *domain.Booking

	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		rec, err := repos.Registry.Get(ctx, driverID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errClaimLost
			}
			return err
		}
		if !rec.Matchable(cabType) {
			return errClaimLost
		}

		claimed, err := repos.Registry.Claim(ctx, driverID)
		if err != nil {
			return err
		}
		if !claimed {
			return errClaimLost
		}

		booking, err := repos.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.Status != domain.BookingStatusPending {
			return ErrInvalidStateTransition
		}

		booking.Status = domain.BookingStatusAccepted
		booking.DriverID = driverID
		booking.CabID = rec.CabID
		booking.UpdatedAt = time.Now().UTC()
		if err := repos.Bookings.Update(ctx, booking); err != nil {
			return versionAsStateError(err)
		}

		assigned = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

func (s *MatchingService) lockDriver(ctx context.Context, driverID string) bool {
	if s.lockStore == nil {
		return true
	}
	locked, err := s.lockStore.AcquireDriverLock(ctx, driverID, driverLockTTL)
	if err != nil {
		// The database claim still arbitrates; the lock only thins out contention.
		s.log.Warn("driver lock unavailable", logger.String("driver_id", driverID), logger.Err(err))
		return true
	}
	return locked
}

func (s *MatchingService) unlockDriver(ctx context.Context, driverID string) {
	if s.lockStore == nil {
		return
	}
	if err := s.lockStore.ReleaseDriverLock(ctx, driverID); err != nil {
		s.log.Warn("driver lock release failed", logger.String("driver_id", driverID), logger.Err(err))
	}
}

// versionAsStateError reports a lost optimistic write as an illegal transition.
func versionAsStateError(err error) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		return ErrInvalidStateTransition
	}
	return err
}
