package service

import (
	"errors"
	"fmt"

	"github.com/punchamoorthee/cardfees/internal/store"
)

// Error kinds surfaced to callers. Wrap them with detail via
// fmt.Errorf("%w: ...", kind) and test with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrAuthentication = errors.New("authentication failed")
	ErrStorage        = errors.New("storage unavailable")
	ErrGateway        = errors.New("payment gateway unavailable")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrTokenExpired       = errors.New("token expired")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr maps persistence failures onto the service error kinds.
func storeErr(err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, store.ErrTokenExpired):
		return fmt.Errorf("%w: %s", ErrTokenExpired, what)
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}

// Kind returns a short machine-readable name for err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrTokenExpired):
		return "authentication"
	case errors.Is(err, ErrEmailNotVerified):
		return "email_not_verified"
	case errors.Is(err, ErrEmailTaken):
		return "conflict"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrGateway):
		return "gateway"
	default:
		return "internal"
	}
}
