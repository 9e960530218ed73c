package services

import (
	"errors"
	"fmt"

	"shopfusion/internal/repositories"
)

// Errors returned by the services. Handlers map them to HTTP status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not activated")
	ErrConflict           = errors.New("already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// notFound translates a repository not-found error into ErrNotFound and
// wraps any other error with the given context.
func notFound(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
