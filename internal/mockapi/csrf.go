package mockapi

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

type csrfEntry struct {
	sessionID string
	expiry    time.Time
}

// csrfManager issues per-session CSRF tokens for the double-submit check:
// the token travels in a readable cookie, comes back in the X-CSRF-Token
// header, and must still be on record here.
type csrfManager struct {
	mu       sync.Mutex
	tokens   map[string]csrfEntry
	tokenTTL time.Duration
}

func newCSRFManager() *csrfManager {
	return &csrfManager{
		tokens:   make(map[string]csrfEntry),
		tokenTTL: 15 * time.Minute,
	}
}

// generate creates a new token bound to a session.
func (m *csrfManager) generate(sessionID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	m.tokens[token] = csrfEntry{sessionID: sessionID, expiry: time.Now().Add(m.tokenTTL)}
	return token, nil
}

// validate checks that the token exists, belongs to the session and has not
// expired.
func (m *csrfManager) validate(token, sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.tokens[token]
	if !ok || entry.sessionID != sessionID {
		return false
	}
	if time.Now().After(entry.expiry) {
		delete(m.tokens, token)
		return false
	}
	return true
}

// revokeSession drops every token tied to a session (logout, revocation).
func (m *csrfManager) revokeSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, entry := range m.tokens {
		if entry.sessionID == sessionID {
			delete(m.tokens, token)
		}
	}
}

// sweepLocked removes expired tokens. Called with the lock held.
func (m *csrfManager) sweepLocked() {
	now := time.Now()
	for token, entry := range m.tokens {
		if now.After(entry.expiry) {
			delete(m.tokens, token)
		}
	}
}
