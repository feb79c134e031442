package logger

import (
	"context"
	"log/slog"

	"github.com/BradenHooton/posauth/internal/events"
)

// AuditLogger turns authentication events into structured audit records.
// Attach it to a coordinator's event stream so every login, lockout and PIN
// lifecycle change leaves a greppable trail.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates an audit logger over the given structured logger.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// warnEvents are logged at warn level; everything else is info.
var warnEvents = map[events.Name]bool{
	events.LoginFailure:       true,
	events.AccountLocked:      true,
	events.SessionExpired:     true,
	events.SuspiciousActivity: true,
	events.PinSetupFailed:     true,
	events.PinChangeFailed:    true,
	events.PinDisableFailed:   true,
}

// Observe records one authentication event. It is safe to pass directly to
// Coordinator.SubscribeAll.
func (al *AuditLogger) Observe(e events.Event) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event", string(e.Name)),
		slog.Time("at", e.At),
	}
	if e.Payload != nil {
		attrs = append(attrs, slog.Any("detail", e.Payload))
	}

	level := slog.LevelInfo
	if warnEvents[e.Name] {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}
