package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate entity")

	// ErrVersionConflict is returned when an entity changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
)
