package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"cabbooking/internal/domain"
	"cabbooking/internal/logger"
	"cabbooking/internal/repository"
)

// AccountService registers riders, drivers and admins.
type AccountService struct {
	accounts repository.AccountRepository
	log      *logger.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts repository.AccountRepository, log *logger.Logger) *AccountService {
	return &AccountService{accounts: accounts, log: log.Named("account")}
}

// RegisterInput contains the parameters for a new account.
type RegisterInput struct {
	Name          string
	Email         string
	Phone         string
	Role          domain.Role
	LicenseNumber string // drivers only
}

// Register creates an account. Drivers start unavailable with no rating.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = domain.Role(strings.ToUpper(string(in.Role)))

	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidAccount)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidAccount)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidAccount, in.Role)
	}

	account := &domain.Account{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     strings.TrimSpace(in.Phone),
		Role:      in.Role,
		CreatedAt: time.Now().UTC(),
	}
	if in.Role == domain.RoleDriver {
		license := strings.TrimSpace(in.LicenseNumber)
		if license == "" {
			return nil, fmt.Errorf("%w: drivers need a license number", ErrInvalidAccount)
		}
		account.Driver = &domain.DriverProfile{LicenseNumber: license}
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}

	s.log.Info("account registered",
		logger.String("account_id", account.ID),
		logger.String("role", string(account.Role)))
	return account, nil
}

// Get retrieves an account by ID.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// ListDrivers returns all driver accounts.
func (s *AccountService) ListDrivers(ctx context.Context) ([]*domain.Account, error) {
	return s.accounts.List(ctx, domain.RoleDriver)
}
