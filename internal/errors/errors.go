package errors

import (
	"errors"
	"fmt"
)

// Common error kinds for the auth core. Handlers collapse every
// authentication-kind failure into one uniform unauthorized response;
// the distinct sentinels exist for internal branching and logging only.
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrUserNotFound       = errors.New("user not found")

	// Token errors
	ErrInvalidToken   = errors.New("invalid token")
	ErrBlacklisted    = errors.New("token is blacklisted")
	ErrNotWhitelisted = errors.New("token is not whitelisted")

	// Registration errors
	ErrEmailTaken = errors.New("email already registered")

	// Authorization errors
	ErrForbidden = errors.New("insufficient roles")

	// Resource errors
	ErrNotFound = errors.New("not found")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
