package mockapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/BradenHooton/posauth/internal/models"
	pkghttp "github.com/BradenHooton/posauth/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Options tunes the mock backend. Zero values get development defaults.
type Options struct {
	JWTSecret      string
	AccessExpiry   time.Duration
	RefreshExpiry  time.Duration
	TrustedProxies []string
	// RateLimit is requests per minute per IP on the credential endpoints.
	RateLimit int
}

func (o Options) withDefaults() Options {
	if o.JWTSecret == "" {
		o.JWTSecret = "mockapi-development-secret-not-for-production"
	}
	if o.AccessExpiry <= 0 {
		o.AccessExpiry = 15 * time.Minute
	}
	if o.RefreshExpiry <= 0 {
		o.RefreshExpiry = 24 * time.Hour
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 30
	}
	return o
}

// account is one seeded user with its credential hashes. An empty pinHash
// means no PIN is configured.
type account struct {
	user         models.User
	passwordHash string
	pinHash      string
}

// session is one live login.
type session struct {
	ID        string
	UserID    string
	DeviceID  string
	Device    models.DeviceMetadata
	IPAddress string
	CreatedAt time.Time
	LastSeen  time.Time
	ExpiresAt time.Time
}

// Server is an in-memory stand-in for the real POS backend: same endpoints,
// same envelope, same cookie scheme, no database. It exists so the client
// stack can be developed and demoed against a live loop.
type Server struct {
	opts     Options
	tokens   *tokenManager
	csrf     *csrfManager
	validate *validator.Validate
	logger   *slog.Logger

	mu       sync.Mutex
	accounts map[string]*account               // by username
	sessions map[string]*session               // by session id
	trusted  map[string][]models.TrustedDevice // by user id
}

// NewServer creates a mock backend seeded with two accounts: admin
// (password "admin123!", PIN 8305) and cashier (password "register1", no
// PIN configured).
func NewServer(opts Options, logger *slog.Logger) *Server {
	opts = opts.withDefaults()
	s := &Server{
		opts:     opts,
		tokens:   newTokenManager(opts.JWTSecret, opts.AccessExpiry, opts.RefreshExpiry),
		csrf:     newCSRFManager(),
		validate: validator.New(),
		logger:   logger,
		accounts: make(map[string]*account),
		sessions: make(map[string]*session),
		trusted:  make(map[string][]models.TrustedDevice),
	}

	s.seedAccount(models.User{
		ID:         "usr-admin",
		Username:   "admin",
		Name:       "Store Admin",
		Email:      "admin@store.example",
		Role:       "admin",
		StoreID:    "store-001",
		PinEnabled: true,
	}, "admin123!", "8305")
	s.seedAccount(models.User{
		ID:       "usr-cashier",
		Username: "cashier",
		Name:     "Front Cashier",
		Email:    "cashier@store.example",
		Role:     "cashier",
		StoreID:  "store-001",
	}, "register1", "")

	return s
}

func (s *Server) seedAccount(user models.User, password, pin string) {
	// Low cost: these are throwaway dev credentials hashed at startup
	passwordHash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	acct := &account{user: user, passwordHash: string(passwordHash)}
	if pin != "" {
		pinHash, _ := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
		acct.pinHash = string(pinHash)
	}
	s.accounts[user.Username] = acct
}

// Router builds the HTTP surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	limit := httprate.Limit(
		s.opts.RateLimit,
		time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "too many requests, slow down")
		}),
	)

	r.With(limit).Post("/auth/login", s.handleLogin)
	r.With(limit).Post("/auth/pin-login", s.handlePinLogin)
	r.With(limit).Post("/auth/refresh", s.handleRefresh)
	r.Post("/auth/logout", s.handleLogout)

	r.Get("/auth/me", s.authed(s.handleMe))
	r.Post("/auth/pin", s.authed(s.mutating(s.handlePinSetup)))
	r.Post("/auth/pin/change", s.authed(s.mutating(s.handlePinChange)))
	r.Post("/auth/pin/verify", s.authed(s.mutating(s.handlePinVerify)))
	r.Post("/auth/pin/disable", s.authed(s.mutating(s.handlePinDisable)))
	r.Get("/auth/devices", s.authed(s.handleDeviceList))
	r.Post("/auth/devices", s.authed(s.mutating(s.handleDeviceTrust)))
	r.Post("/auth/devices/revoke", s.authed(s.mutating(s.handleDeviceRevoke)))
	r.Get("/auth/sessions", s.authed(s.handleSessionList))
	r.Post("/auth/sessions/revoke", s.authed(s.mutating(s.handleSessionRevoke)))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteSuccess(w, map[string]string{"status": "healthy"})
	})

	return r
}
