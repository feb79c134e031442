package logger

import (
	"log/slog"
	"strings"
)

// SanitizedUsername masks a username for logging, keeping only the first
// character (e.g. "a****"). Empty input logs as "[empty]".
func SanitizedUsername(username string) string {
	if username == "" {
		return "[empty]"
	}
	if len(username) == 1 {
		return "*"
	}
	return string(username[0]) + strings.Repeat("*", len(username)-1)
}

// PinAttr returns a slog attribute for a PIN value. The value is never
// logged, only its length, which is enough to debug format rejections.
func PinAttr(key, pin string) slog.Attr {
	return slog.Group(key, slog.Int("length", len(pin)), slog.String("value", "[REDACTED]"))
}
