package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication errors
	ErrConfiguration      = errors.New("token signing secret is not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrEmailTaken         = errors.New("email already exists")
	ErrWeakPassword       = errors.New("password does not meet requirements")

	// Skill errors; each matches its generic counterpart with errors.Is
	ErrSkillNotFound = fmt.Errorf("skill: %w", ErrNotFound)
	ErrLogNotFound   = fmt.Errorf("skill log: %w", ErrNotFound)
	ErrInvalidSkill  = fmt.Errorf("invalid skill: %w", ErrBadRequest)
	ErrEmptyUpdate   = fmt.Errorf("no fields to update: %w", ErrBadRequest)
)

// LockedError reports that an identifier is inside a lockout window.
// It matches ErrAccountLocked with errors.Is.
type LockedError struct {
	Until time.Time
	// AfterFailure is set when the failed attempt being rejected is the one that engaged the lock.
	AfterFailure bool
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s until %s", ErrAccountLocked.Error(), e.Until.UTC().Format(time.RFC3339))
}

func (e *LockedError) Unwrap() error {
	return ErrAccountLocked
}

// RetryAfter returns the time remaining until the lock lifts, rounded up to whole seconds.
func (e *LockedError) RetryAfter(now time.Time) time.Duration {
	remaining := e.Until.Sub(now)
	if remaining <= 0 {
		return 0
	}
	if whole := remaining.Truncate(time.Second); whole != remaining {
		return whole + time.Second
	}
	return remaining
}
