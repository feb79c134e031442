package posauth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/posauth"
	"github.com/BradenHooton/posauth/pkg/httpx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedInCoordinator(t *testing.T, client *mockClient) *posauth.Coordinator {
	t.Helper()
	client.handle("POST /auth/login", func(any) (*httpx.Response, error) {
		return okEnvelope(loginPayload(3600))
	})
	c := newTestCoordinator(client)
	require.NoError(t, c.Login(context.Background(), posauth.Credentials{Username: "alice", Password: "pw"}))
	return c
}

func TestRefreshAuth_NotAuthenticated(t *testing.T) {
	client := newMockClient()
	c := newTestCoordinator(client)

	assert.False(t, c.RefreshAuth(context.Background()))
	assert.Equal(t, 0, client.callCount("POST /auth/refresh"))
}

func TestRefreshAuth_Success(t *testing.T) {
	client := newMockClient()
	client.handle("POST /auth/refresh", func(any) (*httpx.Response, error) {
		return okEnvelope(map[string]any{"expires_in": 7200})
	})

	c := loggedInCoordinator(t, client)
	recorder := recordEvents(c)

	assert.True(t, c.RefreshAuth(context.Background()))
	assert.True(t, c.IsAuthenticated())
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), c.TokenExpiresAt(), 5*time.Second)
	assert.Equal(t, 1, recorder.count(posauth.EventTokenRefreshed))
}

func TestRefreshAuth_ConcurrentCallersShareOneNetworkCall(t *testing.T) {
	client := newMockClient()
	release := make(chan struct{})
	client.handle("POST /auth/refresh", func(any) (*httpx.Response, error) {
		<-release
		return okEnvelope(map[string]any{"expires_in": 7200})
	})

	c := loggedInCoordinator(t, client)

	const callers = 8
	results := make(chan bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.RefreshAuth(context.Background())
		}()
	}

	// Let every goroutine reach the pending op before the call completes
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for ok := range results {
		assert.True(t, ok, "every caller observes the shared outcome")
	}
	assert.Equal(t, 1, client.callCount("POST /auth/refresh"))
}

func TestRefreshAuth_TransientFailureKeepsSession(t *testing.T) {
	client := newMockClient()
	client.handle("POST /auth/refresh", func(any) (*httpx.Response, error) {
		return nil, posauth.ErrTimeout
	})

	c := loggedInCoordinator(t, client)
	recorder := recordEvents(c)

	assert.False(t, c.RefreshAuth(context.Background()))
	assert.True(t, c.IsAuthenticated(), "transient failure must not destroy the session")
	assert.NotNil(t, c.CurrentUser())
	assert.Equal(t, 0, recorder.count(posauth.EventSessionExpired))
}

func TestRefreshAuth_AuthRejectionEndsSession(t *testing.T) {
	client := newMockClient()
	client.handle("POST /auth/refresh", func(any) (*httpx.Response, error) {
		return authFailure()
	})

	c := loggedInCoordinator(t, client)
	recorder := recordEvents(c)

	assert.False(t, c.RefreshAuth(context.Background()))
	assert.False(t, c.IsAuthenticated())
	assert.Nil(t, c.CurrentUser())
	assert.Equal(t, 1, recorder.count(posauth.EventSessionExpired))
}

func TestRefreshAuth_ProactiveTimerFiresInsideLeadWindow(t *testing.T) {
	client := newMockClient()
	refreshed := make(chan struct{}, 1)
	client.handle("POST /auth/login", func(any) (*httpx.Response, error) {
		// Expiry inside the refresh lead, so the timer fires immediately
		return okEnvelope(loginPayload(30))
	})
	client.handle("POST /auth/refresh", func(any) (*httpx.Response, error) {
		select {
		case refreshed <- struct{}{}:
		default:
		}
		return okEnvelope(map[string]any{"expires_in": 7200})
	})

	c := newTestCoordinator(client)
	require.NoError(t, c.Login(context.Background(), posauth.Credentials{Username: "alice", Password: "pw"}))

	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("proactive refresh did not fire")
	}
}

func TestTokenExpiry_PrefersJWTExpClaim(t *testing.T) {
	client := newMockClient()
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	client.handle("POST /auth/login", func(any) (*httpx.Response, error) {
		payload := loginPayload(3600)
		payload["access_token"] = token
		return okEnvelope(payload)
	})

	c := newTestCoordinator(client)
	require.NoError(t, c.Login(context.Background(), posauth.Credentials{Username: "alice", Password: "pw"}))

	assert.True(t, c.TokenExpiresAt().Equal(exp), "exp claim beats expires_in")
}

func TestDoAuthed_RecoversViaSilentRefresh(t *testing.T) {
	client := newMockClient()
	client.handle("POST /auth/refresh", func(any) (*httpx.Response, error) {
		return okEnvelope(map[string]any{"expires_in": 7200})
	})
	meCalls := 0
	client.handle("GET /auth/me", func(any) (*httpx.Response, error) {
		meCalls++
		if meCalls == 1 {
			return authFailure()
		}
		return okEnvelope(loginPayload(3600))
	})

	c := loggedInCoordinator(t, client)

	user, err := c.FetchCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-42", user.ID)
	assert.Equal(t, 1, client.callCount("POST /auth/refresh"))
	assert.Equal(t, 2, client.callCount("GET /auth/me"))
}

func TestDoAuthed_SecondRejectionExpiresSession(t *testing.T) {
	client := newMockClient()
	client.handle("POST /auth/refresh", func(any) (*httpx.Response, error) {
		return okEnvelope(map[string]any{"expires_in": 7200})
	})
	client.handle("GET /auth/me", func(any) (*httpx.Response, error) {
		return authFailure()
	})

	c := loggedInCoordinator(t, client)
	recorder := recordEvents(c)

	_, err := c.FetchCurrentUser(context.Background())
	assert.ErrorIs(t, err, posauth.ErrSessionExpired)
	assert.False(t, c.IsAuthenticated())
	assert.Equal(t, 1, recorder.count(posauth.EventSessionExpired))
}

func TestFetchCurrentUser_TransientFailureReturnsCachedUser(t *testing.T) {
	client := newMockClient()
	client.handle("GET /auth/me", func(any) (*httpx.Response, error) {
		return nil, posauth.ErrNetwork
	})

	c := loggedInCoordinator(t, client)

	user, err := c.FetchCurrentUser(context.Background())
	assert.ErrorIs(t, err, posauth.ErrNetwork)
	require.NotNil(t, user, "cached user survives a network blip")
	assert.Equal(t, "u-42", user.ID)
	assert.True(t, c.IsAuthenticated())
}

func TestFetchCurrentUser_WhenLoggedOut(t *testing.T) {
	c := newTestCoordinator(newMockClient())

	_, err := c.FetchCurrentUser(context.Background())
	assert.ErrorIs(t, err, posauth.ErrNotAuthenticated)
}
