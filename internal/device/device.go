// Package device derives and persists a stable pseudo-unique identifier for
// the current terminal, plus best-effort descriptive metadata. Everything
// here is advisory: a mis-detected browser or OS only affects display text
// and new-device heuristics, never whether a login is allowed.
package device

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BradenHooton/posauth/internal/store"
	"github.com/google/uuid"
)

const deviceIDKey = "device:id"

// Provider creates and persists the device identity.
type Provider struct {
	store   store.Store
	logger  *slog.Logger
	signals func() []string
}

// NewProvider creates a Provider over the given store.
func NewProvider(s store.Store, logger *slog.Logger) *Provider {
	return &Provider{
		store:   s,
		logger:  logger,
		signals: collectSignals,
	}
}

// SetSignalSource overrides signal collection. Tests only.
func (p *Provider) SetSignalSource(signals func() []string) {
	p.signals = signals
}

// GetOrCreateDeviceID returns the persisted device id, synthesizing and
// persisting one on first use. It never fails: any signal-collection or
// storage problem degrades to a usable (possibly unpersisted) identifier.
func (p *Provider) GetOrCreateDeviceID(ctx context.Context) string {
	if id, ok, err := p.store.Get(ctx, deviceIDKey); err == nil && ok && id != "" {
		return id
	} else if err != nil {
		p.logger.Error("failed to read device id", slog.Any("error", err))
	}

	id := p.synthesize()

	if err := p.store.Set(ctx, deviceIDKey, id); err != nil {
		p.logger.Error("failed to persist device id", slog.Any("error", err))
	}
	return id
}

// IsKnownDevice reports whether the current device id appears in the
// caller-supplied list (typically the backend's trusted-device ids).
func (p *Provider) IsKnownDevice(ctx context.Context, knownIDs []string) bool {
	id := p.GetOrCreateDeviceID(ctx)
	for _, known := range knownIDs {
		if known == id {
			return true
		}
	}
	return false
}

// synthesize hashes the available host signals and appends a random suffix
// so two identical machines still get distinct ids.
func (p *Provider) synthesize() string {
	suffix := uuid.NewString()[:8]

	signals := p.collectSafely()
	if len(signals) == 0 {
		// No usable signals at all: purely random identifier
		return uuid.NewString()
	}

	hash := sha256.Sum256([]byte(strings.Join(signals, "|")))
	return fmt.Sprintf("%x-%s", hash[:16], suffix)
}

// collectSafely runs the signal source and absorbs any panic from exotic
// environments. Fingerprinting must never take down a login.
func (p *Provider) collectSafely() (signals []string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("device signal collection panicked", slog.Any("panic", r))
			signals = nil
		}
	}()
	return p.signals()
}

// collectSignals gathers the host traits that distinguish one terminal from
// another. Individual failures contribute empty strings rather than errors.
func collectSignals() []string {
	hostname, _ := os.Hostname()
	zone, _ := time.Now().Zone()

	return []string{
		hostname,
		runtime.GOOS,
		runtime.GOARCH,
		fmt.Sprintf("cpus=%d", runtime.NumCPU()),
		os.Getenv("LANG"),
		zone,
		os.Getenv("DISPLAY"),
	}
}
