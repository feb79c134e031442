package config

import (
	"github.com/redis/go-redis/v9"

	"github.com/BradenHooton/posauth"
	"github.com/BradenHooton/posauth/pkg/httpx"
	"github.com/BradenHooton/posauth/pkg/logger"
)

// NewClient builds the HTTP client the coordinator talks through. In
// development the built-in fake backend is used so front ends can run
// without a live API; everywhere else a real client is dialed at
// Client.BaseURL.
func (c *Config) NewClient() (httpx.Client, error) {
	if c.IsDevelopment() {
		return httpx.NewDevClient(), nil
	}
	return httpx.NewHTTPClient(c.Client.BaseURL, c.Client.Timeout)
}

// NewStore builds the persistence backend Store.Backend selects.
func (c *Config) NewStore() (posauth.Store, error) {
	switch c.Store.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: c.Store.RedisAddr})
		return posauth.NewRedisStore(client, c.Store.RedisPrefix), nil
	case "file":
		return posauth.NewFileStore(c.Store.FilePath)
	default:
		return posauth.NewMemoryStore(), nil
	}
}

// NewCoordinator wires client, store and tuning into a ready coordinator.
// This is the one-call entry point for front ends that configure posauth
// entirely through the environment.
func (c *Config) NewCoordinator() (*posauth.Coordinator, error) {
	client, err := c.NewClient()
	if err != nil {
		return nil, err
	}
	st, err := c.NewStore()
	if err != nil {
		return nil, err
	}
	log := logger.New(c.Env, c.LogLevel)
	return posauth.NewCoordinator(client, st, c.CoordinatorConfig(), log), nil
}
