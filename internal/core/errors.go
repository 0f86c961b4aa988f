package core

import (
	"errors"
	"fmt"

	"hotelcare/pkg/domain"
)

// ErrValidation is wrapped by every input rejection from a mutation handler.
var ErrValidation = errors.New("validation failed")

// ValidationError names the field that failed and the rule it broke.
type ValidationError struct {
	Field string
	Rule  string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s failed on %q", ErrValidation, e.Field, e.Rule)
}

// Unwrap lets errors.Is match ErrValidation.
func (e ValidationError) Unwrap() error { return ErrValidation }

// ErrNotFound is wrapped by every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError is returned when a referenced entity does not exist in the tree.
type NotFoundError struct {
	Entity domain.EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s %s", e.Entity, e.ID, ErrNotFound)
}

// Unwrap lets errors.Is match ErrNotFound.
func (e NotFoundError) Unwrap() error { return ErrNotFound }

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
