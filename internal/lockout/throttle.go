// Package lockout implements client-side login throttling: per-username
// failed-attempt tracking with escalating temporary lockouts, persisted
// through the durable key-value store so counters survive restarts.
package lockout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/posauth/internal/models"
	"github.com/BradenHooton/posauth/internal/store"
	"github.com/BradenHooton/posauth/pkg/logger"
)

// Config holds tuning for one throttle instance. Password and PIN login run
// two independent instances with different settings.
type Config struct {
	Mechanism     string        // storage namespace, e.g. "login" or "pin"
	MaxAttempts   int           // failures before a lockout
	AttemptWindow time.Duration // sliding window failures accumulate within
	BaseLockout   time.Duration // medium-tier duration
	Progressive   bool          // escalate duration across lockout cycles
	MaxLockout    time.Duration // cap on any computed duration (0 = no cap)
}

// Escalation multipliers per lockout cycle when progressive mode is on.
const (
	longMultiplier     = 3
	extendedMultiplier = 12
)

// DefaultPinConfig matches the PIN login flow: 5 attempts in a 10 minute
// window, 5 minute base lockout with progressive escalation.
func DefaultPinConfig() Config {
	return Config{
		Mechanism:     "pin",
		MaxAttempts:   5,
		AttemptWindow: 10 * time.Minute,
		BaseLockout:   5 * time.Minute,
		Progressive:   true,
		MaxLockout:    2 * time.Hour,
	}
}

// DefaultLoginConfig matches the password login flow: fixed 15 minute
// lockout, no escalation.
func DefaultLoginConfig() Config {
	return Config{
		Mechanism:     "login",
		MaxAttempts:   5,
		AttemptWindow: 10 * time.Minute,
		BaseLockout:   15 * time.Minute,
		Progressive:   false,
	}
}

// Throttle is the per-mechanism lockout state machine. All state lives in
// the injected store; the struct itself is stateless apart from config, so
// concurrent use is safe to the extent the store is.
type Throttle struct {
	store  store.Store
	config Config
	logger *slog.Logger
	now    func() time.Time
}

// NewThrottle creates a Throttle over the given store.
func NewThrottle(s store.Store, config Config, logger *slog.Logger) *Throttle {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.AttemptWindow <= 0 {
		config.AttemptWindow = 10 * time.Minute
	}
	if config.BaseLockout <= 0 {
		config.BaseLockout = 5 * time.Minute
	}
	return &Throttle{
		store:  s,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (t *Throttle) SetClock(now func() time.Time) {
	t.now = now
}

// key builds a collision-free composite storage key. The username is
// length-prefixed so "bob" and "bobby" can never shadow each other no
// matter what suffixes are appended.
func (t *Throttle) key(username string) string {
	return fmt.Sprintf("%s:%d:%s:attempts", t.config.Mechanism, len(username), username)
}

// RecordFailedAttempt increments the window-scoped counter for username and
// locks the record once the threshold is reached. Calls while a lockout is
// active return the current lockout without incrementing. Store failures are
// logged and swallowed (fail open), so there is no error to return.
func (t *Throttle) RecordFailedAttempt(ctx context.Context, username string) models.AttemptResult {
	now := t.now()
	record := t.load(ctx, username)

	if record.LockedUntil.After(now) {
		return models.AttemptResult{
			Count:            record.Count,
			IsLocked:         true,
			Tier:             t.tier(record.LockoutCycles),
			LockoutRemaining: record.LockedUntil.Sub(now),
		}
	}

	// A previous lockout that has lapsed, or an attempt outside the
	// window, starts the counter over. Lockout cycles are kept so
	// progressive mode can keep escalating.
	if !record.LockedUntil.IsZero() && !record.LockedUntil.After(now) {
		record.Count = 0
		record.LockedUntil = time.Time{}
	} else if !record.LastAttemptAt.IsZero() && now.Sub(record.LastAttemptAt) > t.config.AttemptWindow {
		record.Count = 0
	}

	record.Username = username
	record.Count++
	record.LastAttemptAt = now

	result := models.AttemptResult{Count: record.Count}

	if record.Count >= t.config.MaxAttempts {
		record.LockoutCycles++
		duration := t.lockoutDuration(record.LockoutCycles)
		record.LockedUntil = now.Add(duration)

		result.IsLocked = true
		result.Tier = t.tier(record.LockoutCycles)
		result.LockoutRemaining = duration

		t.logger.Warn("account locked out",
			slog.String("mechanism", t.config.Mechanism),
			slog.String("username", logger.SanitizedUsername(username)),
			slog.Int("failed_attempts", record.Count),
			slog.Int("lockout_cycles", record.LockoutCycles),
			slog.Duration("lockout_duration", duration))
	}

	if err := t.save(ctx, username, record); err != nil {
		// Fail open for availability - a broken store must not block
		// legitimate logins, so the error is logged and swallowed.
		t.logger.Error("failed to persist attempt record",
			slog.String("mechanism", t.config.Mechanism),
			slog.Any("error", err))
	}

	return result
}

// CheckLockStatus returns the current lockout state for username. Expiry is
// lazy: a lapsed lockout is cleared as a side effect of this read.
func (t *Throttle) CheckLockStatus(ctx context.Context, username string) models.LockoutState {
	now := t.now()
	record := t.load(ctx, username)

	if record.LockedUntil.After(now) {
		return models.LockoutState{
			IsLocked:         true,
			FailedAttempts:   record.Count,
			Tier:             t.tier(record.LockoutCycles),
			LockoutExpiresAt: record.LockedUntil,
			LockoutRemaining: record.LockedUntil.Sub(now),
		}
	}

	if !record.LockedUntil.IsZero() {
		// Lapsed lockout: reset the counter, keep the cycle history
		record.Count = 0
		record.LockedUntil = time.Time{}
		if err := t.save(ctx, username, record); err != nil {
			t.logger.Error("failed to clear lapsed lockout",
				slog.String("mechanism", t.config.Mechanism),
				slog.Any("error", err))
		}
	}

	count := record.Count
	if !record.LastAttemptAt.IsZero() && now.Sub(record.LastAttemptAt) > t.config.AttemptWindow {
		count = 0
	}

	left := t.config.MaxAttempts - count
	if left < 0 {
		left = 0
	}

	return models.LockoutState{
		FailedAttempts: count,
		AttemptsLeft:   left,
		Tier:           models.TierNone,
	}
}

// ResetAttempts clears the record entirely. Called on successful
// authentication.
func (t *Throttle) ResetAttempts(ctx context.Context, username string) {
	if err := t.store.Remove(ctx, t.key(username)); err != nil {
		t.logger.Error("failed to reset attempt record",
			slog.String("mechanism", t.config.Mechanism),
			slog.Any("error", err))
	}
}

// lockoutDuration computes the duration for the given lockout cycle.
func (t *Throttle) lockoutDuration(cycles int) time.Duration {
	duration := t.config.BaseLockout
	if t.config.Progressive {
		switch {
		case cycles >= 3:
			duration = t.config.BaseLockout * extendedMultiplier
		case cycles == 2:
			duration = t.config.BaseLockout * longMultiplier
		}
	}
	if t.config.MaxLockout > 0 && duration > t.config.MaxLockout {
		duration = t.config.MaxLockout
	}
	return duration
}

func (t *Throttle) tier(cycles int) models.LockoutTier {
	if !t.config.Progressive {
		return models.TierMedium
	}
	switch {
	case cycles >= 3:
		return models.TierExtended
	case cycles == 2:
		return models.TierLong
	default:
		return models.TierMedium
	}
}

// load reads the attempt record, failing open to an empty record on any
// store or decode error.
func (t *Throttle) load(ctx context.Context, username string) models.AttemptRecord {
	raw, ok, err := t.store.Get(ctx, t.key(username))
	if err != nil {
		t.logger.Error("failed to read attempt record",
			slog.String("mechanism", t.config.Mechanism),
			slog.Any("error", err))
		return models.AttemptRecord{}
	}
	if !ok {
		return models.AttemptRecord{}
	}

	var record models.AttemptRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		t.logger.Error("corrupt attempt record, starting over",
			slog.String("mechanism", t.config.Mechanism),
			slog.Any("error", err))
		return models.AttemptRecord{}
	}
	return record
}

func (t *Throttle) save(ctx context.Context, username string, record models.AttemptRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode attempt record: %w", err)
	}
	return t.store.Set(ctx, t.key(username), string(raw))
}
