package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Auth flow errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrPinNotConfigured   = errors.New("pin not configured")

	// Transport errors (transient - must not mutate session or lockout state)
	ErrNetwork = errors.New("network error")
	ErrTimeout = errors.New("request timed out")
)

// ValidationError is returned for malformed input caught before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// LockedOutError pre-empts a network call when a local lockout is active.
// Until drives the countdown the login UI shows.
type LockedOutError struct {
	Username string
	Until    time.Time
}

func (e *LockedOutError) Error() string {
	remaining := time.Until(e.Until).Round(time.Minute)
	if remaining < time.Minute {
		remaining = time.Minute
	}
	return fmt.Sprintf("account temporarily locked, try again in %d minute(s)", int(remaining.Minutes()))
}

// Remaining returns the time left on the lockout, floored at zero.
func (e *LockedOutError) Remaining() time.Duration {
	if r := time.Until(e.Until); r > 0 {
		return r
	}
	return 0
}

// IsTransient reports whether err is a transport-level failure that should
// leave session and lockout state untouched.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}
