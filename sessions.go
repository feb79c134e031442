package posauth

import (
	"context"
	"fmt"

	"github.com/BradenHooton/posauth/internal/models"
	"github.com/BradenHooton/posauth/pkg/httpx"
)

// ListSessions fetches the backend's view of this user's active sessions.
func (c *Coordinator) ListSessions(ctx context.Context) ([]models.SessionInfo, error) {
	resp, err := c.doAuthed(ctx, true, pathSessions, nil)
	if err != nil {
		return nil, err
	}

	var payload models.SessionListPayload
	if err := httpx.DecodeData(resp, &payload); err != nil {
		return nil, fmt.Errorf("malformed session list: %w", err)
	}
	return payload.Sessions, nil
}

// RevokeSession terminates one backend session. Revoking the current
// session is allowed; the backend will reject the next authenticated call
// and the reactive recovery path takes over from there.
func (c *Coordinator) RevokeSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return &models.ValidationError{Field: "session_id", Reason: "session id is required"}
	}

	resp, err := c.doAuthed(ctx, false, pathSessionRevoke, models.RevokeRequest{ID: sessionID})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("revoke session failed: %w", models.ErrBadRequest)
	}
	return nil
}
