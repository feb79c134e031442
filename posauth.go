// Package posauth is the client-side authentication core for the POS admin
// front end: session/token lifecycle with proactive refresh, per-username
// login throttling with escalating lockouts, 4-digit PIN policy, and
// device identity for the backend's trusted-device flow.
//
// The package consumes an abstract HTTP client ([pkg/httpx.Client]) and a
// durable key-value store ([internal/store.Store] implementations: memory,
// file, Redis); it implements neither the backend nor any UI. Construct one
// [Coordinator] at startup and thread it through the application.
package posauth

import (
	"log/slog"

	"github.com/BradenHooton/posauth/internal/events"
	"github.com/BradenHooton/posauth/internal/lockout"
	"github.com/BradenHooton/posauth/internal/models"
	"github.com/BradenHooton/posauth/internal/pin"
	"github.com/BradenHooton/posauth/internal/store"
	"github.com/BradenHooton/posauth/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Re-exported domain types so callers never import internal packages.
type (
	User             = models.User
	Credentials      = models.Credentials
	PinCredentials   = models.PinCredentials
	LockoutState     = models.LockoutState
	LockoutTier      = models.LockoutTier
	DeviceMetadata   = models.DeviceMetadata
	DeviceIdentity   = models.DeviceIdentity
	TrustedDevice    = models.TrustedDevice
	SessionInfo      = models.SessionInfo
	PinStrength      = models.PinStrength
	PinViolation     = models.PinViolation
	PinPolicyResult  = models.PinPolicyResult
	ComplexityResult = models.ComplexityResult
	ValidationError  = models.ValidationError
	LockedOutError   = models.LockedOutError

	Event     = events.Event
	EventName = events.Name

	// Store is the durable key-value storage the coordinator persists
	// lockout counters and the device id through.
	Store         = store.Store
	LockoutConfig = lockout.Config
)

// NewMemoryStore creates an in-process store (tests, ephemeral kiosks).
func NewMemoryStore() Store { return store.NewMemoryStore() }

// NewFileStore creates a JSON-file-backed store at path.
func NewFileStore(path string) (Store, error) { return store.NewFileStore(path) }

// NewRedisStore creates a Redis-backed store for deployments where several
// terminals share lockout state.
func NewRedisStore(client *redis.Client, prefix string) Store {
	return store.NewRedisStore(client, prefix)
}

// Lockout tiers, escalating with repeated lockout cycles.
const (
	TierNone     = models.TierNone
	TierShort    = models.TierShort
	TierMedium   = models.TierMedium
	TierLong     = models.TierLong
	TierExtended = models.TierExtended
)

// Error taxonomy re-exports. Transport errors are transient and never
// mutate session or lockout state.
var (
	ErrUnauthorized       = models.ErrUnauthorized
	ErrInvalidCredentials = models.ErrInvalidCredentials
	ErrSessionExpired     = models.ErrSessionExpired
	ErrNotAuthenticated   = models.ErrNotAuthenticated
	ErrNetwork            = models.ErrNetwork
	ErrTimeout            = models.ErrTimeout
)

// Event names the UI can subscribe to.
const (
	EventLoginSuccess       = events.LoginSuccess
	EventLoginFailure       = events.LoginFailure
	EventLogout             = events.Logout
	EventTokenRefreshed     = events.TokenRefreshed
	EventSessionExpired     = events.SessionExpired
	EventAccountLocked      = events.AccountLocked
	EventSuspiciousActivity = events.SuspiciousActivity
	EventPinSetup           = events.PinSetup
	EventPinSetupFailed     = events.PinSetupFailed
	EventPinChanged         = events.PinChanged
	EventPinChangeFailed    = events.PinChangeFailed
	EventPinDisabled        = events.PinDisabled
	EventPinDisableFailed   = events.PinDisableFailed
)

// PIN strength levels.
const (
	PinWeak   = models.PinWeak
	PinMedium = models.PinMedium
	PinStrong = models.PinStrong
)

// AttachAuditLog subscribes a structured audit logger to the coordinator's
// event stream. Returns the unsubscribe function.
func AttachAuditLog(c *Coordinator, log *slog.Logger) func() {
	return c.SubscribeAll(logger.NewAuditLogger(log).Observe)
}

// EvaluatePinStrength classifies a candidate PIN as weak, medium or strong.
func EvaluatePinStrength(candidate string) PinPolicyResult {
	return pin.EvaluateStrength(candidate)
}

// ValidatePinComplexity returns the first failing policy reason, in
// priority order: format, common, sequential, repeated.
func ValidatePinComplexity(candidate string) ComplexityResult {
	return pin.ValidateComplexity(candidate)
}

// GenerateSecurePin produces a random PIN that evaluates as strong.
func GenerateSecurePin() (string, error) {
	return pin.GenerateSecurePin()
}
