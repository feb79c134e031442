package models

import "time"

// LockoutTier classifies how long a lockout lasts. Tiers escalate with
// repeated lockout cycles when progressive mode is enabled.
type LockoutTier string

const (
	TierNone     LockoutTier = "none"
	TierShort    LockoutTier = "short"
	TierMedium   LockoutTier = "medium"
	TierLong     LockoutTier = "long"
	TierExtended LockoutTier = "extended"
)

// AttemptRecord tracks failed authentication attempts for one username under
// one mechanism. Password and PIN login keep independent records.
type AttemptRecord struct {
	Username      string    `json:"username"`
	Count         int       `json:"count"`
	LockoutCycles int       `json:"lockout_cycles"` // completed lockouts, drives progressive tiers
	LastAttemptAt time.Time `json:"last_attempt_at"`
	LockedUntil   time.Time `json:"locked_until,omitzero"`
}

// LockoutState is the derived, read-only view of an AttemptRecord that login
// UIs consume to disable submission and show countdowns.
type LockoutState struct {
	IsLocked         bool
	FailedAttempts   int
	AttemptsLeft     int
	Tier             LockoutTier
	LockoutExpiresAt time.Time
	LockoutRemaining time.Duration
}

// AttemptResult is returned after recording a failed attempt.
type AttemptResult struct {
	Count            int
	IsLocked         bool
	Tier             LockoutTier
	LockoutRemaining time.Duration
}
