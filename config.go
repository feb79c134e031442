package posauth

import (
	"time"

	"github.com/BradenHooton/posauth/internal/lockout"
)

// Config tunes the session coordinator and its lockout throttles.
type Config struct {
	// RefreshLead is how long before token expiry the proactive refresh
	// fires. A token already within the lead window is refreshed
	// immediately.
	RefreshLead time.Duration

	// RefreshRetryInterval spaces retries when a proactive refresh hits a
	// transient network failure.
	RefreshRetryInterval time.Duration

	// UserAgent is reported to the backend as part of device metadata.
	UserAgent string

	// PasswordLockout and PinLockout configure the two independent
	// throttle instances.
	PasswordLockout lockout.Config
	PinLockout      lockout.Config
}

// DefaultConfig returns the production defaults: refresh one minute before
// expiry, fixed 15 minute password lockout, progressive PIN lockout.
func DefaultConfig() Config {
	return Config{
		RefreshLead:          time.Minute,
		RefreshRetryInterval: 30 * time.Second,
		PasswordLockout:      lockout.DefaultLoginConfig(),
		PinLockout:           lockout.DefaultPinConfig(),
	}
}

func (c Config) withDefaults() Config {
	if c.RefreshLead <= 0 {
		c.RefreshLead = time.Minute
	}
	if c.RefreshRetryInterval <= 0 {
		c.RefreshRetryInterval = 30 * time.Second
	}
	if c.PasswordLockout.Mechanism == "" {
		c.PasswordLockout = lockout.DefaultLoginConfig()
	}
	if c.PinLockout.Mechanism == "" {
		c.PinLockout = lockout.DefaultPinConfig()
	}
	return c
}
