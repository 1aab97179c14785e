package service

import "errors"

var (
	// ErrInvalidStateTransition is returned when an operation is attempted
	// outside its legal predecessor state.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrUnauthorized is returned when the caller is not a party allowed to act
	// on the booking or payment.
	ErrUnauthorized = errors.New("caller not authorized for this resource")

	// ErrConflict is returned for duplicate unique fields and repeated one-shot actions.
	ErrConflict = errors.New("conflict")

	// ErrNoDriverAvailable is returned when no driver could be claimed for a ride.
	// The booking is stored as NO_DRIVER_FOUND.
	ErrNoDriverAvailable = errors.New("no driver available")

	// ErrUnrecognizedGatewayStatus is returned when a gateway callback carries
	// an unmapped status. The payment is left unchanged.
	ErrUnrecognizedGatewayStatus = errors.New("unrecognized gateway status")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidCabType is returned for an unknown cab class.
	ErrInvalidCabType = errors.New("invalid cab type")

	// ErrInvalidRating is returned when a rating is outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrInvalidCapacity is returned when a cab seats nobody.
	ErrInvalidCapacity = errors.New("capacity must be at least 1")

	// ErrInvalidAccount is returned when registration data is incomplete.
	ErrInvalidAccount = errors.New("invalid account")

	// ErrInvalidCab is returned when cab registration data is incomplete.
	ErrInvalidCab = errors.New("invalid cab")

	// ErrMissingCaller is returned when an operation runs without a caller identity.
	ErrMissingCaller = errors.New("missing caller identity")
)
