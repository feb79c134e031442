package mockapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/posauth/internal/models"
	"github.com/BradenHooton/posauth/internal/pin"
	pkghttp "github.com/BradenHooton/posauth/pkg/http"
	"github.com/BradenHooton/posauth/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey int

const sessionCtxKey ctxKey = iota

// authed resolves the session cookie and rejects requests without a live
// session. The session rides on the request context.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.authenticate(r)
		if sess == nil {
			pkghttp.WriteUnauthorized(w, "authentication required")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey, sess)))
	}
}

// mutating enforces the CSRF double-submit check on state-changing calls.
func (s *Server) mutating(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		token := r.Header.Get("X-CSRF-Token")
		if token == "" || !s.csrf.validate(token, sess.ID) {
			pkghttp.WriteForbidden(w, "missing or invalid csrf token")
			return
		}
		next(w, r)
	}
}

func sessionFrom(r *http.Request) *session {
	sess, _ := r.Context().Value(sessionCtxKey).(*session)
	return sess
}

// authenticate maps the refresh cookie to a live session, or nil.
func (s *Server) authenticate(r *http.Request) *session {
	raw, err := refreshCookie(r)
	if err != nil {
		return nil
	}
	claims, err := s.tokens.validate(raw)
	if err != nil || claims.Type != "refresh" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[claims.ID]
	if !ok || time.Now().After(sess.ExpiresAt) {
		delete(s.sessions, claims.ID)
		return nil
	}
	sess.LastSeen = time.Now()
	return sess
}

func (s *Server) accountByID(userID string) *account {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.user.ID == userID {
			return acct
		}
	}
	return nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		pkghttp.WriteBadRequest(w, "malformed request body")
		return false
	}
	return true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		pkghttp.WriteBadRequest(w, "username and password are required")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[req.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(acct.passwordHash), []byte(req.Password)) != nil {
		s.logger.Warn("login rejected",
			slog.String("username", logger.SanitizedUsername(req.Username)))
		pkghttp.WriteUnauthorized(w, "invalid credentials")
		return
	}

	s.establishSession(w, r, acct, req.DeviceID, req.Device, req.RememberDevice)
}

func (s *Server) handlePinLogin(w http.ResponseWriter, r *http.Request) {
	var req models.PinLoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		pkghttp.WriteBadRequest(w, "username and a 4-digit pin are required")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[req.Username]
	s.mu.Unlock()
	if !ok || acct.pinHash == "" || bcrypt.CompareHashAndPassword([]byte(acct.pinHash), []byte(req.Pin)) != nil {
		s.logger.Warn("pin login rejected",
			slog.String("username", logger.SanitizedUsername(req.Username)))
		pkghttp.WriteUnauthorized(w, "invalid credentials")
		return
	}

	s.establishSession(w, r, acct, req.DeviceID, req.Device, false)
}

// establishSession creates the session record, mints both tokens, sets the
// cookies and writes the auth payload.
func (s *Server) establishSession(w http.ResponseWriter, r *http.Request, acct *account, deviceID string, device models.DeviceMetadata, rememberDevice bool) {
	now := time.Now()
	sess := &session{
		ID:        uuid.New().String(),
		UserID:    acct.user.ID,
		DeviceID:  deviceID,
		Device:    device,
		IPAddress: pkghttp.ClientIP(r, s.opts.TrustedProxies),
		CreatedAt: now,
		LastSeen:  now,
		ExpiresAt: now.Add(s.opts.RefreshExpiry),
	}

	accessToken, err := s.tokens.generateAccess(&acct.user)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to issue token")
		return
	}
	refreshToken, err := s.tokens.generateRefresh(&acct.user, sess.ID)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to issue token")
		return
	}
	csrfToken, err := s.csrf.generate(sess.ID)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to issue csrf token")
		return
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	acct.user.LastLoginAt = now
	knownIDs := make([]string, 0, len(s.trusted[acct.user.ID]))
	for _, td := range s.trusted[acct.user.ID] {
		knownIDs = append(knownIDs, td.DeviceID)
	}
	if rememberDevice && deviceID != "" {
		s.trustDeviceLocked(acct.user.ID, deviceID, device)
		knownIDs = append(knownIDs, deviceID)
	}
	user := acct.user
	s.mu.Unlock()

	setRefreshCookie(w, refreshToken, s.opts.RefreshExpiry)
	setCSRFCookie(w, csrfToken, s.opts.RefreshExpiry)

	s.logger.Info("session established",
		slog.String("user_id", user.ID),
		slog.String("session_id", sess.ID))

	pkghttp.WriteSuccess(w, models.AuthPayload{
		User:           &user,
		ExpiresIn:      int64(s.opts.AccessExpiry.Seconds()),
		AccessToken:    accessToken,
		KnownDeviceIDs: knownIDs,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess := s.authenticate(r)
	if sess == nil {
		pkghttp.WriteUnauthorized(w, "session expired")
		return
	}
	acct := s.accountByID(sess.UserID)
	if acct == nil {
		pkghttp.WriteUnauthorized(w, "unknown user")
		return
	}

	accessToken, err := s.tokens.generateAccess(&acct.user)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to issue token")
		return
	}
	csrfToken, err := s.csrf.generate(sess.ID)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to issue csrf token")
		return
	}

	s.mu.Lock()
	sess.ExpiresAt = time.Now().Add(s.opts.RefreshExpiry)
	s.mu.Unlock()

	setCSRFCookie(w, csrfToken, s.opts.RefreshExpiry)

	pkghttp.WriteSuccess(w, models.RefreshPayload{
		ExpiresIn:   int64(s.opts.AccessExpiry.Seconds()),
		AccessToken: accessToken,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := s.authenticate(r); sess != nil {
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		s.mu.Unlock()
		s.csrf.revokeSession(sess.ID)
	}
	clearAuthCookies(w)
	pkghttp.WriteSuccess(w, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	acct := s.accountByID(sess.UserID)
	if acct == nil {
		pkghttp.WriteUnauthorized(w, "unknown user")
		return
	}

	s.mu.Lock()
	user := acct.user
	s.mu.Unlock()
	pkghttp.WriteSuccess(w, models.AuthPayload{User: &user})
}

func (s *Server) handlePinSetup(w http.ResponseWriter, r *http.Request) {
	var req models.PinSetupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if result := pin.ValidateComplexity(req.Pin); !result.Valid {
		pkghttp.WriteBadRequest(w, "pin does not meet complexity requirements")
		return
	}

	acct := s.accountByID(sessionFrom(r).UserID)
	if acct == nil {
		pkghttp.WriteUnauthorized(w, "unknown user")
		return
	}
	pinHash, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.MinCost)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to store pin")
		return
	}

	s.mu.Lock()
	acct.pinHash = string(pinHash)
	acct.user.PinEnabled = true
	s.mu.Unlock()

	pkghttp.WriteSuccess(w, nil)
}

func (s *Server) handlePinChange(w http.ResponseWriter, r *http.Request) {
	var req models.PinSetupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	acct := s.accountByID(sessionFrom(r).UserID)
	if acct == nil {
		pkghttp.WriteUnauthorized(w, "unknown user")
		return
	}
	s.mu.Lock()
	currentHash := acct.pinHash
	s.mu.Unlock()

	if currentHash == "" {
		pkghttp.WriteBadRequest(w, "no pin configured")
		return
	}
	// 400, not 401: the session is fine, only the pin proof failed
	if bcrypt.CompareHashAndPassword([]byte(currentHash), []byte(req.Current)) != nil {
		pkghttp.WriteBadRequest(w, "current pin does not match")
		return
	}
	if result := pin.ValidateComplexity(req.Pin); !result.Valid {
		pkghttp.WriteBadRequest(w, "pin does not meet complexity requirements")
		return
	}

	pinHash, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.MinCost)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to store pin")
		return
	}

	s.mu.Lock()
	acct.pinHash = string(pinHash)
	s.mu.Unlock()

	pkghttp.WriteSuccess(w, nil)
}

func (s *Server) handlePinVerify(w http.ResponseWriter, r *http.Request) {
	var req models.PinVerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	acct := s.accountByID(sessionFrom(r).UserID)
	if acct == nil {
		pkghttp.WriteUnauthorized(w, "unknown user")
		return
	}
	s.mu.Lock()
	pinHash := acct.pinHash
	s.mu.Unlock()

	if pinHash == "" || bcrypt.CompareHashAndPassword([]byte(pinHash), []byte(req.Pin)) != nil {
		pkghttp.WriteBadRequest(w, "pin does not match")
		return
	}
	pkghttp.WriteSuccess(w, nil)
}

func (s *Server) handlePinDisable(w http.ResponseWriter, r *http.Request) {
	acct := s.accountByID(sessionFrom(r).UserID)
	if acct == nil {
		pkghttp.WriteUnauthorized(w, "unknown user")
		return
	}

	s.mu.Lock()
	acct.pinHash = ""
	acct.user.PinEnabled = false
	s.mu.Unlock()

	pkghttp.WriteSuccess(w, nil)
}

func (s *Server) handleDeviceList(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	s.mu.Lock()
	devices := make([]models.TrustedDevice, len(s.trusted[sess.UserID]))
	copy(devices, s.trusted[sess.UserID])
	s.mu.Unlock()

	pkghttp.WriteSuccess(w, models.DeviceListPayload{Devices: devices})
}

func (s *Server) handleDeviceTrust(w http.ResponseWriter, r *http.Request) {
	var req models.TrustDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DeviceID == "" {
		pkghttp.WriteBadRequest(w, "device id is required")
		return
	}

	sess := sessionFrom(r)
	s.mu.Lock()
	s.trustDeviceLocked(sess.UserID, req.DeviceID, req.Device)
	s.mu.Unlock()

	pkghttp.WriteSuccess(w, nil)
}

// trustDeviceLocked adds or refreshes one trusted-device entry. Callers
// must hold s.mu.
func (s *Server) trustDeviceLocked(userID, deviceID string, device models.DeviceMetadata) {
	now := time.Now()
	for i, td := range s.trusted[userID] {
		if td.DeviceID == deviceID {
			s.trusted[userID][i].LastSeenAt = now
			s.trusted[userID][i].Metadata = device
			return
		}
	}
	s.trusted[userID] = append(s.trusted[userID], models.TrustedDevice{
		DeviceID:   deviceID,
		Metadata:   device,
		TrustedAt:  now,
		LastSeenAt: now,
	})
}

func (s *Server) handleDeviceRevoke(w http.ResponseWriter, r *http.Request) {
	var req models.RevokeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess := sessionFrom(r)
	s.mu.Lock()
	kept := s.trusted[sess.UserID][:0]
	found := false
	for _, td := range s.trusted[sess.UserID] {
		if td.DeviceID == req.ID {
			found = true
			continue
		}
		kept = append(kept, td)
	}
	s.trusted[sess.UserID] = kept
	s.mu.Unlock()

	if !found {
		pkghttp.WriteNotFound(w, "device not found")
		return
	}
	pkghttp.WriteSuccess(w, nil)
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	current := sessionFrom(r)

	s.mu.Lock()
	sessions := make([]models.SessionInfo, 0)
	for _, sess := range s.sessions {
		if sess.UserID != current.UserID {
			continue
		}
		sessions = append(sessions, models.SessionInfo{
			ID:         sess.ID,
			DeviceID:   sess.DeviceID,
			Device:     sess.Device,
			IPAddress:  sess.IPAddress,
			CreatedAt:  sess.CreatedAt,
			LastSeenAt: sess.LastSeen,
			Current:    sess.ID == current.ID,
		})
	}
	s.mu.Unlock()

	pkghttp.WriteSuccess(w, models.SessionListPayload{Sessions: sessions})
}

func (s *Server) handleSessionRevoke(w http.ResponseWriter, r *http.Request) {
	var req models.RevokeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	current := sessionFrom(r)
	s.mu.Lock()
	target, ok := s.sessions[req.ID]
	if ok && target.UserID == current.UserID {
		delete(s.sessions, req.ID)
	}
	s.mu.Unlock()

	if !ok || target.UserID != current.UserID {
		pkghttp.WriteNotFound(w, "session not found")
		return
	}
	s.csrf.revokeSession(req.ID)
	pkghttp.WriteSuccess(w, nil)
}
