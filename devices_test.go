package posauth_test

import (
	"context"
	"testing"

	"github.com/BradenHooton/posauth"
	"github.com/BradenHooton/posauth/internal/models"
	"github.com/BradenHooton/posauth/pkg/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustDevice_SubmitsDeviceIdentity(t *testing.T) {
	client := newMockClient()
	var got models.TrustDeviceRequest
	client.handle("POST /auth/devices", func(body any) (*httpx.Response, error) {
		got, _ = body.(models.TrustDeviceRequest)
		return okEnvelope(nil)
	})

	c := loggedInCoordinator(t, client)

	require.NoError(t, c.TrustDevice(context.Background()))
	assert.Equal(t, c.DeviceID(context.Background()), got.DeviceID)
	assert.NotEmpty(t, got.Device.Browser)
}

func TestListTrustedDevices(t *testing.T) {
	client := newMockClient()
	client.handle("GET /auth/devices", func(any) (*httpx.Response, error) {
		return okEnvelope(map[string]any{
			"devices": []map[string]any{
				{"device_id": "d-1", "metadata": map[string]any{"name": "Front register"}},
				{"device_id": "d-2", "metadata": map[string]any{"name": "Back office"}},
			},
		})
	})

	c := loggedInCoordinator(t, client)

	devices, err := c.ListTrustedDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "Front register", devices[0].Metadata.Name)
}

func TestRevokeTrustedDevice_RequiresID(t *testing.T) {
	client := newMockClient()
	c := loggedInCoordinator(t, client)

	var vErr *posauth.ValidationError
	assert.ErrorAs(t, c.RevokeTrustedDevice(context.Background(), ""), &vErr)
	assert.Equal(t, 0, client.callCount("POST /auth/devices/revoke"))
}

func TestListSessions(t *testing.T) {
	client := newMockClient()
	client.handle("GET /auth/sessions", func(any) (*httpx.Response, error) {
		return okEnvelope(map[string]any{
			"sessions": []map[string]any{
				{"id": "s-1", "current": true},
				{"id": "s-2", "current": false},
			},
		})
	})

	c := loggedInCoordinator(t, client)

	sessions, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].Current)
}

func TestRevokeSession(t *testing.T) {
	client := newMockClient()
	client.handle("POST /auth/sessions/revoke", func(any) (*httpx.Response, error) {
		return okEnvelope(nil)
	})

	c := loggedInCoordinator(t, client)

	assert.NoError(t, c.RevokeSession(context.Background(), "s-2"))

	var vErr *posauth.ValidationError
	assert.ErrorAs(t, c.RevokeSession(context.Background(), ""), &vErr)
}
