package posauth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/posauth/internal/device"
	"github.com/BradenHooton/posauth/internal/events"
	"github.com/BradenHooton/posauth/internal/lockout"
	"github.com/BradenHooton/posauth/internal/models"
	"github.com/BradenHooton/posauth/internal/pin"
	"github.com/BradenHooton/posauth/internal/store"
	"github.com/BradenHooton/posauth/pkg/httpx"
	"github.com/BradenHooton/posauth/pkg/logger"
	"github.com/go-playground/validator/v10"
)

// Backend endpoint paths (assumed contract, implemented by cmd/mockapi for
// development).
const (
	pathLogin         = "/auth/login"
	pathPinLogin      = "/auth/pin-login"
	pathRefresh       = "/auth/refresh"
	pathLogout        = "/auth/logout"
	pathMe            = "/auth/me"
	pathPinSetup      = "/auth/pin"
	pathPinChange     = "/auth/pin/change"
	pathPinVerify     = "/auth/pin/verify"
	pathPinDisable    = "/auth/pin/disable"
	pathDevices       = "/auth/devices"
	pathDeviceRevoke  = "/auth/devices/revoke"
	pathSessions      = "/auth/sessions"
	pathSessionRevoke = "/auth/sessions/revoke"
)

// Coordinator owns the client-visible half of the authentication session:
// the current user, the token expiry estimate, proactive refresh, lockout
// throttling and device identity. One Coordinator is constructed at startup
// and threaded through the UI; there are no hidden singletons.
type Coordinator struct {
	client           httpx.Client
	passwordThrottle *lockout.Throttle
	pinThrottle      *lockout.Throttle
	devices          *device.Provider
	bus              *events.Bus
	validate         *validator.Validate
	logger           *slog.Logger
	config           Config
	now              func() time.Time

	mu             sync.Mutex
	user           *models.User
	tokenExpiresAt time.Time
	refreshTimer   *time.Timer
	refreshOp      *refreshOp
	// generation increments on every session transition (login, logout,
	// expiry). In-flight network completions compare their captured value
	// against it so a stale response never overwrites newer state.
	generation uint64
}

// NewCoordinator wires the coordinator over an HTTP client and a durable
// store. The store holds lockout counters and the device id.
func NewCoordinator(client httpx.Client, st store.Store, config Config, logger *slog.Logger) *Coordinator {
	config = config.withDefaults()
	return &Coordinator{
		client:           client,
		passwordThrottle: lockout.NewThrottle(st, config.PasswordLockout, logger),
		pinThrottle:      lockout.NewThrottle(st, config.PinLockout, logger),
		devices:          device.NewProvider(st, logger),
		bus:              events.NewBus(),
		validate:         validator.New(),
		logger:           logger,
		config:           config,
		now:              time.Now,
	}
}

// LoginEventPayload accompanies login success/failure events.
type LoginEventPayload struct {
	Username string
	UserID   string
	Reason   string
}

// LockoutEventPayload accompanies account-locked events.
type LockoutEventPayload struct {
	Username  string
	Mechanism string
	Tier      models.LockoutTier
	Remaining time.Duration
}

// SuspiciousActivityPayload accompanies new-device detections.
type SuspiciousActivityPayload struct {
	DeviceID string
	Device   models.DeviceMetadata
}

// Subscribe registers a listener for one event name and returns an
// unsubscribe function. The UI layer is expected to subscribe at startup.
func (c *Coordinator) Subscribe(name events.Name, fn func(events.Event)) func() {
	return c.bus.Subscribe(name, fn)
}

// SubscribeAll registers a listener for every event (audit logging).
func (c *Coordinator) SubscribeAll(fn func(events.Event)) func() {
	return c.bus.SubscribeAll(fn)
}

// Login authenticates with username and password. Lockout is checked
// locally before any network call; transport failures leave both session
// and lockout state untouched.
func (c *Coordinator) Login(ctx context.Context, creds models.Credentials) error {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := c.validate.Struct(creds); err != nil {
		return &models.ValidationError{Field: "credentials", Reason: "username and password are required"}
	}

	if status := c.passwordThrottle.CheckLockStatus(ctx, creds.Username); status.IsLocked {
		return &models.LockedOutError{Username: creds.Username, Until: status.LockoutExpiresAt}
	}

	gen := c.currentGeneration()

	req := models.LoginRequest{
		Username:       creds.Username,
		Password:       creds.Password,
		RememberDevice: creds.RememberDevice,
		DeviceID:       c.devices.GetOrCreateDeviceID(ctx),
		Device:         device.DescribeDevice(c.config.UserAgent),
	}

	resp, err := c.client.Post(ctx, pathLogin, req)
	if err != nil {
		c.logger.Warn("login request failed", slog.Any("error", err))
		return err
	}

	if !resp.Success {
		return c.failLogin(ctx, c.passwordThrottle, "password", creds.Username, resp)
	}

	return c.completeLogin(ctx, c.passwordThrottle, creds.Username, resp, gen)
}

// LoginWithPin authenticates with username and 4-digit PIN. The PIN format
// is checked locally first so malformed input never reaches the network or
// the attempt counter.
func (c *Coordinator) LoginWithPin(ctx context.Context, creds models.PinCredentials) error {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" {
		return &models.ValidationError{Field: "username", Reason: "username is required"}
	}
	if !pin.IsValidFormat(creds.Pin) {
		return &models.ValidationError{Field: "pin", Reason: "pin must be exactly 4 digits"}
	}

	if status := c.pinThrottle.CheckLockStatus(ctx, creds.Username); status.IsLocked {
		return &models.LockedOutError{Username: creds.Username, Until: status.LockoutExpiresAt}
	}

	gen := c.currentGeneration()

	req := models.PinLoginRequest{
		Username: creds.Username,
		Pin:      creds.Pin,
		DeviceID: c.devices.GetOrCreateDeviceID(ctx),
		Device:   device.DescribeDevice(c.config.UserAgent),
	}

	resp, err := c.client.Post(ctx, pathPinLogin, req)
	if err != nil {
		c.logger.Warn("pin login request failed", slog.Any("error", err))
		return err
	}

	if !resp.Success {
		return c.failLogin(ctx, c.pinThrottle, "pin", creds.Username, resp)
	}

	return c.completeLogin(ctx, c.pinThrottle, creds.Username, resp, gen)
}

// failLogin classifies a backend rejection: credential failures feed the
// attempt counter, everything else is surfaced without counting.
func (c *Coordinator) failLogin(ctx context.Context, throttle *lockout.Throttle, mechanism, username string, resp *httpx.Response) error {
	if !httpx.IsAuthError(resp) {
		c.logger.Error("login rejected by backend",
			slog.String("mechanism", mechanism),
			slog.Int("status", resp.Status),
			slog.String("error", resp.Error))
		return fmt.Errorf("login failed: %w", models.ErrInternalServer)
	}

	result := throttle.RecordFailedAttempt(ctx, username)
	c.bus.Emit(events.LoginFailure, LoginEventPayload{Username: username, Reason: "invalid_credentials"})

	if result.IsLocked {
		until := c.now().Add(result.LockoutRemaining)
		c.bus.Emit(events.AccountLocked, LockoutEventPayload{
			Username:  username,
			Mechanism: mechanism,
			Tier:      result.Tier,
			Remaining: result.LockoutRemaining,
		})
		return &models.LockedOutError{Username: username, Until: until}
	}

	return models.ErrInvalidCredentials
}

// completeLogin applies the session state from a successful login response,
// unless a newer transition happened while the request was in flight.
func (c *Coordinator) completeLogin(ctx context.Context, throttle *lockout.Throttle, username string, resp *httpx.Response, gen uint64) error {
	var payload models.AuthPayload
	if err := httpx.DecodeData(resp, &payload); err != nil || payload.User == nil {
		return fmt.Errorf("malformed login response: %w", models.ErrInternalServer)
	}

	expiresAt := c.tokenExpiry(payload.AccessToken, payload.ExpiresIn)

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		// A logout or another login won the race; this response is stale
		c.logger.Warn("discarding stale login completion",
			slog.String("username", logger.SanitizedUsername(username)))
		return nil
	}
	c.generation++
	c.user = payload.User
	c.tokenExpiresAt = expiresAt
	c.scheduleRefreshLocked()
	c.mu.Unlock()

	throttle.ResetAttempts(ctx, username)
	c.logger.Info("user logged in",
		slog.String("user_id", payload.User.ID),
		slog.String("username", logger.SanitizedUsername(username)))
	c.bus.Emit(events.LoginSuccess, LoginEventPayload{Username: username, UserID: payload.User.ID})

	c.flagNewDevice(ctx, payload)
	return nil
}

// flagNewDevice raises a non-blocking notification when the current device
// is absent from the backend's known-device list. Login has already
// succeeded at this point; fingerprint misdetection only affects this
// heuristic, never access.
func (c *Coordinator) flagNewDevice(ctx context.Context, payload models.AuthPayload) {
	if len(payload.KnownDeviceIDs) == 0 {
		return
	}
	if c.devices.IsKnownDevice(ctx, payload.KnownDeviceIDs) {
		return
	}
	id := c.devices.GetOrCreateDeviceID(ctx)
	c.logger.Info("login from new device", slog.String("device_id", id))
	c.bus.Emit(events.SuspiciousActivity, SuspiciousActivityPayload{
		DeviceID: id,
		Device:   device.DescribeDevice(c.config.UserAgent),
	})
}

// Logout clears local session state unconditionally and immediately; the
// server call is best-effort and its failure never propagates.
func (c *Coordinator) Logout(ctx context.Context) {
	c.mu.Lock()
	wasAuthenticated := c.user != nil
	c.clearSessionLocked()
	c.mu.Unlock()

	if wasAuthenticated {
		c.bus.Emit(events.Logout, nil)
	}

	if _, err := c.client.Post(ctx, pathLogout, nil); err != nil {
		c.logger.Warn("server-side logout failed", slog.Any("error", err))
	}
}

// IsAuthenticated reports whether a user session is active.
func (c *Coordinator) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user != nil
}

// CurrentUser returns the cached authenticated user, or nil.
func (c *Coordinator) CurrentUser() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// TokenExpiresAt returns the client-visible expiry estimate, zero when
// unknown or logged out.
func (c *Coordinator) TokenExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokenExpiresAt
}

// FetchCurrentUser revalidates the session against the backend. An
// authentication error triggers exactly one silent refresh and one retry;
// transport errors preserve the cached user so the UI can keep working
// degraded.
func (c *Coordinator) FetchCurrentUser(ctx context.Context) (*models.User, error) {
	if !c.IsAuthenticated() {
		return nil, models.ErrNotAuthenticated
	}

	gen := c.currentGeneration()

	resp, err := c.doAuthed(ctx, true, pathMe, nil)
	if err != nil {
		if models.IsTransient(err) {
			return c.CurrentUser(), err
		}
		return nil, err
	}

	var payload models.AuthPayload
	if err := httpx.DecodeData(resp, &payload); err != nil || payload.User == nil {
		return c.CurrentUser(), nil
	}

	c.mu.Lock()
	if c.generation == gen && c.user != nil {
		c.user = payload.User
	}
	c.mu.Unlock()

	return payload.User, nil
}

// PasswordLockStatus exposes the password-login lockout state for the
// login UI (countdowns, disabled submit).
func (c *Coordinator) PasswordLockStatus(ctx context.Context, username string) models.LockoutState {
	return c.passwordThrottle.CheckLockStatus(ctx, username)
}

// PinLockStatus exposes the PIN-login lockout state.
func (c *Coordinator) PinLockStatus(ctx context.Context, username string) models.LockoutState {
	return c.pinThrottle.CheckLockStatus(ctx, username)
}

// DeviceID returns the stable identifier for this terminal.
func (c *Coordinator) DeviceID(ctx context.Context) string {
	return c.devices.GetOrCreateDeviceID(ctx)
}

// DescribeThisDevice returns the metadata reported to the backend.
func (c *Coordinator) DescribeThisDevice() models.DeviceMetadata {
	return device.DescribeDevice(c.config.UserAgent)
}

// doAuthed performs a request with the one-shot reactive recovery flow: on
// an auth error, silently refresh once and retry once. A second auth error
// after a successful refresh means the session is gone.
func (c *Coordinator) doAuthed(ctx context.Context, get bool, path string, body any) (*httpx.Response, error) {
	call := func() (*httpx.Response, error) {
		if get {
			return c.client.Get(ctx, path)
		}
		return c.client.Post(ctx, path, body)
	}

	resp, err := call()
	if err != nil {
		return nil, err
	}
	if !httpx.IsAuthError(resp) {
		return resp, nil
	}

	if c.RefreshAuth(ctx) {
		resp, err = call()
		if err != nil {
			return nil, err
		}
		if !httpx.IsAuthError(resp) {
			return resp, nil
		}
		// Fresh credential still rejected: the session is dead
		c.expireSession()
		return nil, models.ErrSessionExpired
	}

	if !c.IsAuthenticated() {
		// The failed refresh already cleared the session and signalled
		return nil, models.ErrSessionExpired
	}
	// Refresh failed transiently; keep state and report retryable
	return nil, fmt.Errorf("%w: could not refresh session", models.ErrNetwork)
}

func (c *Coordinator) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// clearSessionLocked tears down session state as one compound mutation:
// user, expiry and the refresh timer go together, never partially. Callers
// must hold c.mu.
func (c *Coordinator) clearSessionLocked() {
	c.generation++
	c.user = nil
	c.tokenExpiresAt = time.Time{}
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

// expireSession clears state and emits the session-expired signal, once.
func (c *Coordinator) expireSession() {
	c.mu.Lock()
	wasAuthenticated := c.user != nil
	c.clearSessionLocked()
	c.mu.Unlock()

	if wasAuthenticated {
		c.logger.Info("session expired")
		c.bus.Emit(events.SessionExpired, nil)
	}
}
