package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("already exists")
	ErrPaymentRequired = errors.New("payment required")
	ErrUnauthorized    = errors.New("invalid credentials")
	ErrUnavailable     = errors.New("upstream service unavailable")
)

// invalid wraps ErrValidation so callers can still read the specific message.
func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
