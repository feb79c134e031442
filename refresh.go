package posauth

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/posauth/internal/events"
	"github.com/BradenHooton/posauth/internal/models"
	"github.com/BradenHooton/posauth/pkg/httpx"
	"github.com/golang-jwt/jwt/v5"
)

// refreshOp is the shared handle for one in-flight refresh. Callers that
// find a refresh already running wait on done and read ok, so a
// timer-triggered and a 401-triggered refresh racing each other still cost
// exactly one network call and observe the same outcome.
type refreshOp struct {
	done chan struct{}
	ok   bool
}

// RefreshAuth renews the session credential. At most one refresh is in
// flight at a time; concurrent callers attach to the pending operation.
// Returns whether the session is still alive afterwards.
func (c *Coordinator) RefreshAuth(ctx context.Context) bool {
	c.mu.Lock()
	if c.user == nil {
		c.mu.Unlock()
		return false
	}
	if op := c.refreshOp; op != nil {
		c.mu.Unlock()
		<-op.done
		return op.ok
	}

	op := &refreshOp{done: make(chan struct{})}
	c.refreshOp = op
	gen := c.generation
	c.mu.Unlock()

	ok := c.doRefresh(ctx, gen)

	c.mu.Lock()
	c.refreshOp = nil
	c.mu.Unlock()

	op.ok = ok
	close(op.done)
	return ok
}

// doRefresh performs the network call and applies the outcome, unless the
// session transitioned while the call was in flight.
func (c *Coordinator) doRefresh(ctx context.Context, gen uint64) bool {
	resp, err := c.client.Post(ctx, pathRefresh, nil)
	if err != nil {
		// Transient failure: the session survives and we try again soon
		c.logger.Warn("token refresh failed, will retry", slog.Any("error", err))
		c.mu.Lock()
		if c.generation == gen && c.user != nil {
			c.scheduleRetryLocked()
		}
		c.mu.Unlock()
		return false
	}

	if !resp.Success {
		if !httpx.IsAuthError(resp) {
			// Backend trouble (5xx etc.) is treated like a network
			// failure: non-destructive, retried
			c.logger.Warn("token refresh rejected, will retry",
				slog.Int("status", resp.Status),
				slog.String("error", resp.Error))
			c.mu.Lock()
			if c.generation == gen && c.user != nil {
				c.scheduleRetryLocked()
			}
			c.mu.Unlock()
			return false
		}

		// The refresh credential itself was rejected: session is over
		c.mu.Lock()
		if c.generation != gen {
			c.mu.Unlock()
			return false
		}
		wasAuthenticated := c.user != nil
		c.clearSessionLocked()
		c.mu.Unlock()

		if wasAuthenticated {
			c.logger.Info("session expired: refresh rejected")
			c.bus.Emit(events.SessionExpired, nil)
		}
		return false
	}

	var payload models.RefreshPayload
	_ = httpx.DecodeData(resp, &payload)
	expiresAt := c.tokenExpiry(payload.AccessToken, payload.ExpiresIn)

	c.mu.Lock()
	if c.generation != gen || c.user == nil {
		// Logged out (or re-logged-in) while refreshing; drop the result
		c.mu.Unlock()
		return false
	}
	c.tokenExpiresAt = expiresAt
	c.scheduleRefreshLocked()
	c.mu.Unlock()

	c.logger.Debug("token refreshed", slog.Time("expires_at", expiresAt))
	c.bus.Emit(events.TokenRefreshed, expiresAt)
	return true
}

// scheduleRefreshLocked arms the proactive refresh timer at expiry minus
// the configured lead, firing immediately if already inside the window.
// Any previously armed timer is dropped first so repeated logins never
// leak timers. Callers must hold c.mu.
func (c *Coordinator) scheduleRefreshLocked() {
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	if c.tokenExpiresAt.IsZero() {
		return
	}

	delay := c.tokenExpiresAt.Sub(c.now()) - c.config.RefreshLead
	if delay < 0 {
		delay = 0
	}

	c.refreshTimer = time.AfterFunc(delay, func() {
		c.RefreshAuth(context.Background())
	})
}

// scheduleRetryLocked arms a short retry after a transient refresh
// failure. Callers must hold c.mu.
func (c *Coordinator) scheduleRetryLocked() {
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}
	c.refreshTimer = time.AfterFunc(c.config.RefreshRetryInterval, func() {
		c.RefreshAuth(context.Background())
	})
}

// tokenExpiry derives the client-visible expiry estimate. When the backend
// hands out a bearer token the exp claim is authoritative; the signature is
// not checked because the client holds no verification key and only needs
// the timestamp. With cookie transport, expires_in is all we get.
func (c *Coordinator) tokenExpiry(accessToken string, expiresIn int64) time.Time {
	if accessToken != "" {
		var claims jwt.RegisteredClaims
		if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err == nil {
			if claims.ExpiresAt != nil {
				return claims.ExpiresAt.Time
			}
		} else {
			c.logger.Warn("could not parse access token expiry", slog.Any("error", err))
		}
	}
	if expiresIn > 0 {
		return c.now().Add(time.Duration(expiresIn) * time.Second)
	}
	return time.Time{}
}
