// Package apperror carries errors across the HTTP boundary with a stable code
// and status.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"cabbooking/internal/repository"
	"cabbooking/internal/service"
)

// AppError represents an application error with an HTTP status code.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

// BadRequest creates a 400 error.
func BadRequest(message string, err error) *AppError {
	return New("BAD_REQUEST", message, http.StatusBadRequest, err)
}

// Unauthenticated creates a 401 error.
func Unauthenticated(message string) *AppError {
	return New("UNAUTHENTICATED", message, http.StatusUnauthorized, nil)
}

// Forbidden creates a 403 error.
func Forbidden(message string, err error) *AppError {
	return New("FORBIDDEN", message, http.StatusForbidden, err)
}

// NotFound creates a 404 error.
func NotFound(message string, err error) *AppError {
	return New("NOT_FOUND", message, http.StatusNotFound, err)
}

// Conflict creates a 409 error.
func Conflict(message string, err error) *AppError {
	return New("CONFLICT", message, http.StatusConflict, err)
}

// Internal creates a 500 error. The wrapped error is never shown to clients.
func Internal(err error) *AppError {
	return New("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError, err)
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// From maps a core error onto its HTTP representation. Unknown errors become
// an opaque 500.
func From(err error) *AppError {
	if appErr, ok := As(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return NotFound("resource not found", err)
	case errors.Is(err, service.ErrMissingCaller):
		return New("UNAUTHENTICATED", "caller identity required", http.StatusUnauthorized, err)
	case errors.Is(err, service.ErrUnauthorized):
		return Forbidden("caller is not a party to this resource", err)
	case errors.Is(err, service.ErrInvalidStateTransition):
		return New("INVALID_STATE_TRANSITION", err.Error(), http.StatusConflict, err)
	case errors.Is(err, service.ErrConflict), errors.Is(err, repository.ErrDuplicate):
		return Conflict(err.Error(), err)
	case errors.Is(err, service.ErrNoDriverAvailable):
		return New("NO_DRIVER_AVAILABLE", "no driver available", http.StatusServiceUnavailable, err)
	case errors.Is(err, service.ErrUnrecognizedGatewayStatus):
		return New("UNRECOGNIZED_GATEWAY_STATUS", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidCabType),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidCapacity),
		errors.Is(err, service.ErrInvalidAccount),
		errors.Is(err, service.ErrInvalidCab):
		return BadRequest(err.Error(), err)
	}
	return Internal(err)
}
