package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/posauth"
	"github.com/BradenHooton/posauth/internal/lockout"
	"github.com/joho/godotenv"
)

// Config is the application-level configuration for a posauth deployment:
// where the backend lives, how state is persisted and how aggressively the
// lockout and refresh machinery behaves. Everything is environment-driven
// with sane development defaults.
type Config struct {
	Env      string
	LogLevel string
	Client   ClientConfig
	Store    StoreConfig
	Lockout  LockoutConfig
	Refresh  RefreshConfig
}

type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// StoreConfig selects where lockout counters and the device id persist.
// Backend is "memory", "file" or "redis".
type StoreConfig struct {
	Backend     string
	FilePath    string
	RedisAddr   string
	RedisPrefix string
}

type LockoutConfig struct {
	LoginMaxAttempts int
	LoginWindow      time.Duration
	LoginDuration    time.Duration
	PinMaxAttempts   int
	PinWindow        time.Duration
	PinBaseDuration  time.Duration
	PinMaxDuration   time.Duration
}

type RefreshConfig struct {
	Lead          time.Duration
	RetryInterval time.Duration
}

// Load reads configuration from the environment, with .env support for
// development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("POSAUTH_ENV", "development")

	cfg := &Config{
		Env:      env,
		LogLevel: getEnv("POSAUTH_LOG_LEVEL", "info"),
		Client: ClientConfig{
			BaseURL:   getEnv("POSAUTH_API_URL", "http://localhost:8080"),
			Timeout:   getEnvAsDuration("POSAUTH_HTTP_TIMEOUT", 10*time.Second),
			UserAgent: getEnv("POSAUTH_USER_AGENT", ""),
		},
		Store: StoreConfig{
			Backend:     strings.ToLower(getEnv("POSAUTH_STORE", "file")),
			FilePath:    getEnv("POSAUTH_STORE_PATH", defaultStorePath()),
			RedisAddr:   getEnv("POSAUTH_REDIS_ADDR", "localhost:6379"),
			RedisPrefix: getEnv("POSAUTH_REDIS_PREFIX", "posauth"),
		},
		Lockout: LockoutConfig{
			LoginMaxAttempts: getEnvAsInt("POSAUTH_LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:      getEnvAsDuration("POSAUTH_LOGIN_WINDOW", 10*time.Minute),
			LoginDuration:    getEnvAsDuration("POSAUTH_LOGIN_LOCKOUT", 15*time.Minute),
			PinMaxAttempts:   getEnvAsInt("POSAUTH_PIN_MAX_ATTEMPTS", 5),
			PinWindow:        getEnvAsDuration("POSAUTH_PIN_WINDOW", 10*time.Minute),
			PinBaseDuration:  getEnvAsDuration("POSAUTH_PIN_LOCKOUT", 5*time.Minute),
			PinMaxDuration:   getEnvAsDuration("POSAUTH_PIN_LOCKOUT_MAX", 2*time.Hour),
		},
		Refresh: RefreshConfig{
			Lead:          getEnvAsDuration("POSAUTH_REFRESH_LEAD", time.Minute),
			RetryInterval: getEnvAsDuration("POSAUTH_REFRESH_RETRY", 30*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("POSAUTH_STORE must be memory, file or redis (got %q)", c.Store.Backend)
	}
	if c.Store.Backend == "file" && c.Store.FilePath == "" {
		return fmt.Errorf("POSAUTH_STORE_PATH is required for the file store")
	}
	if c.Store.Backend == "redis" && c.Store.RedisAddr == "" {
		return fmt.Errorf("POSAUTH_REDIS_ADDR is required for the redis store")
	}
	if c.Env == "production" && !strings.HasPrefix(c.Client.BaseURL, "https://") {
		return fmt.Errorf("POSAUTH_API_URL must use https in production")
	}
	if c.Lockout.LoginMaxAttempts < 1 || c.Lockout.PinMaxAttempts < 1 {
		return fmt.Errorf("lockout attempt limits must be at least 1")
	}
	return nil
}

// CoordinatorConfig maps the environment-driven settings onto the
// coordinator's tuning knobs.
func (c *Config) CoordinatorConfig() posauth.Config {
	return posauth.Config{
		RefreshLead:          c.Refresh.Lead,
		RefreshRetryInterval: c.Refresh.RetryInterval,
		UserAgent:            c.Client.UserAgent,
		PasswordLockout: lockout.Config{
			Mechanism:     "login",
			MaxAttempts:   c.Lockout.LoginMaxAttempts,
			AttemptWindow: c.Lockout.LoginWindow,
			BaseLockout:   c.Lockout.LoginDuration,
		},
		PinLockout: lockout.Config{
			Mechanism:     "pin",
			MaxAttempts:   c.Lockout.PinMaxAttempts,
			AttemptWindow: c.Lockout.PinWindow,
			BaseLockout:   c.Lockout.PinBaseDuration,
			Progressive:   true,
			MaxLockout:    c.Lockout.PinMaxDuration,
		},
	}
}

// IsDevelopment reports whether the built-in fake backend should be used
// instead of a live API.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "posauth-state.json"
	}
	return home + "/.posauth/state.json"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
