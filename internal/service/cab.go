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
	"cabbooking/internal/repository"
)

// CabService manages cabs and the driver side of the availability registry.
type CabService struct {
	store repository.Store
	log   *logger.Logger
}

// NewCabService creates a new CabService.
func NewCabService(store repository.Store, log *logger.Logger) *CabService {
	return &CabService{store: store, log: log.Named("cab")}
}

// RegisterCabInput contains the parameters for registering a cab.
type RegisterCabInput struct {
	LicensePlate string
	Make         string
	Model        string
	CabType      domain.CabType
	Capacity     int
}

// RegisterCab registers the calling driver's cab. A driver owns one cab and
// license plates are unique.
func (s *CabService) RegisterCab(ctx context.Context, caller domain.Caller, in RegisterCabInput) (*domain.Cab, error) {
	plate := normalizePlate(in.LicensePlate)
	if plate == "" {
		return nil, fmt.Errorf("%w: license plate is required", ErrInvalidCab)
	}
	cabType, ok := domain.ParseCabType(string(in.CabType))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCabType, in.CabType)
	}
	if in.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	var cab *domain.Cab
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		driver, err := repos.Accounts.GetByID(ctx, caller.ID)
		if err != nil {
			return err
		}
		if !driver.IsDriver() {
			return ErrUnauthorized
		}

		existing, err := repos.Cabs.GetByDriverID(ctx, driver.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: driver already has cab %s", ErrConflict, existing.ID)
		}

		now := time.Now().UTC()
		cab = &domain.Cab{
			ID:           uuid.New().String(),
			DriverID:     driver.ID,
			LicensePlate: plate,
			Make:         strings.TrimSpace(in.Make),
			Model:        strings.TrimSpace(in.Model),
			Type:         cabType,
			Capacity:     in.Capacity,
			Active:       true,
			Location:     driver.Driver.Location,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return repos.Cabs.Create(ctx, cab)
	})
	if err != nil {
		return nil, duplicateAsConflict(err, "license plate already registered")
	}

	s.log.Info("cab registered",
		logger.String("cab_id", cab.ID),
		logger.String("driver_id", cab.DriverID),
		logger.String("type", string(cab.Type)))
	return cab, nil
}

// UpdateCabInput carries the fields to change. Empty fields are left as is.
type UpdateCabInput struct {
	LicensePlate string
	Make         string
	Model        string
	CabType      domain.CabType
	Capacity     int
}

// UpdateCab changes a cab's details. Only its driver or an admin may do so.
func (s *CabService) UpdateCab(ctx context.Context, caller domain.Caller, cabID string, in UpdateCabInput) (*domain.Cab, error) {
	return s.modify(ctx, caller, cabID, func(cab *domain.Cab) error {
		if plate := normalizePlate(in.LicensePlate); plate != "" {
			cab.LicensePlate = plate
		}
		if m := strings.TrimSpace(in.Make); m != "" {
			cab.Make = m
		}
		if m := strings.TrimSpace(in.Model); m != "" {
			cab.Model = m
		}
		if in.CabType != "" {
			t, ok := domain.ParseCabType(string(in.CabType))
			if !ok {
				return fmt.Errorf("%w: %q", ErrInvalidCabType, in.CabType)
			}
			cab.Type = t
		}
		if in.Capacity != 0 {
			if in.Capacity < 1 {
				return ErrInvalidCapacity
			}
			cab.Capacity = in.Capacity
		}
		return nil
	})
}

// DeactivateCab takes a cab out of service. Its driver stops being matchable.
func (s *CabService) DeactivateCab(ctx context.Context, caller domain.Caller, cabID string) (*domain.Cab, error) {
	return s.modify(ctx, caller, cabID, func(cab *domain.Cab) error {
		cab.Active = false
		return nil
	})
}

func (s *CabService) modify(ctx context.Context, caller domain.Caller, cabID string, change func(*domain.Cab) error) (*domain.Cab, error) {
	var cab *domain.Cab
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		c, err := repos.Cabs.GetByID(ctx, cabID)
		if err != nil {
			return err
		}
		if !caller.IsAdmin() && caller.ID != c.DriverID {
			return ErrUnauthorized
		}
		if err := change(c); err != nil {
			return err
		}
		c.UpdatedAt = time.Now().UTC()
		if err := repos.Cabs.Update(ctx, c); err != nil {
			return err
		}
		cab = c
		return nil
	})
	if err != nil {
		return nil, duplicateAsConflict(err, "license plate already registered")
	}
	return cab, nil
}

// GetCab retrieves a cab by ID.
func (s *CabService) GetCab(ctx context.Context, cabID string) (*domain.Cab, error) {
	return s.store.Repositories().Cabs.GetByID(ctx, cabID)
}

// ListActiveCabs returns every cab in service.
func (s *CabService) ListActiveCabs(ctx context.Context) ([]*domain.Cab, error) {
	return s.store.Repositories().Cabs.ListActive(ctx)
}

// UpdateDriverLocation records the calling driver's position.
func (s *CabService) UpdateDriverLocation(ctx context.Context, caller domain.Caller, loc domain.Location) (*domain.DriverAvailability, error) {
	if !isValidLocation(loc) {
		return nil, ErrInvalidLocation
	}
	registry := s.store.Repositories().Registry
	if err := registry.UpdateLocation(ctx, caller.ID, loc); err != nil {
		return nil, err
	}
	return registry.Get(ctx, caller.ID)
}

// SetDriverAvailability puts the calling driver on or off duty. A driver
// bound to an active booking cannot go available.
func (s *CabService) SetDriverAvailability(ctx context.Context, caller domain.Caller, available bool) (*domain.DriverAvailability, error) {
	var rec *domain.DriverAvailability
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		// Taken before the booking check so a match committing a claim on
		// this driver is either fully visible to it or waits behind it.
		if err := repos.Registry.LockDriver(ctx, caller.ID); err != nil {
			return err
		}
		if available {
			bookings, err := repos.Bookings.ListByDriver(ctx, caller.ID)
			if err != nil {
				return err
			}
			for _, b := range bookings {
				if b.Status.Active() {
					return fmt.Errorf("%w: driver is on booking %s", ErrInvalidStateTransition, b.ID)
				}
			}
		}
		if err := repos.Registry.SetAvailable(ctx, caller.ID, available); err != nil {
			return err
		}
		var err error
		rec, err = repos.Registry.Get(ctx, caller.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("driver availability changed",
		logger.String("driver_id", caller.ID),
		logger.Bool("available", available))
	return rec, nil
}

func normalizePlate(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}

func duplicateAsConflict(err error, msg string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	}
	return err
}
