package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation failed")
	ErrEmptyCart         = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Invalid wraps ErrValidation with a client-facing message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
