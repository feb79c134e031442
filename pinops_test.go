package posauth_test

import (
	"context"
	"testing"

	"github.com/BradenHooton/posauth"
	"github.com/BradenHooton/posauth/pkg/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupPin_WeakPinRejectedLocally(t *testing.T) {
	client := newMockClient()
	c := loggedInCoordinator(t, client)
	recorder := recordEvents(c)

	tests := []struct {
		pin    string
		reason string
	}{
		{"1234", "pin must not be a sequence"},
		{"0000", "pin must not repeat a single digit"},
		{"2580", "pin is too common"},
		{"12ab", "pin must be exactly 4 digits"},
	}

	for _, tc := range tests {
		err := c.SetupPin(context.Background(), tc.pin)
		var vErr *posauth.ValidationError
		require.ErrorAs(t, err, &vErr, "pin %q", tc.pin)
		assert.Equal(t, tc.reason, vErr.Reason, "pin %q", tc.pin)
	}

	assert.Equal(t, 0, client.callCount("POST /auth/pin"), "weak pins never reach the network")
	assert.Equal(t, len(tests), recorder.count(posauth.EventPinSetupFailed))
}

func TestSetupPin_Success(t *testing.T) {
	client := newMockClient()
	client.handle("POST /auth/pin", func(any) (*httpx.Response, error) {
		return okEnvelope(nil)
	})

	c := loggedInCoordinator(t, client)
	recorder := recordEvents(c)

	require.NoError(t, c.SetupPin(context.Background(), "8305"))
	assert.Equal(t, 1, recorder.count(posauth.EventPinSetup))
}

func TestChangePin_ValidatesBothPins(t *testing.T) {
	client := newMockClient()
	client.handle("POST /auth/pin/change", func(any) (*httpx.Response, error) {
		return okEnvelope(nil)
	})

	c := loggedInCoordinator(t, client)

	var vErr *posauth.ValidationError

	err := c.ChangePin(context.Background(), "12x4", "8305")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "current_pin", vErr.Field)

	err = c.ChangePin(context.Background(), "8305", "1111")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "pin", vErr.Field)

	assert.NoError(t, c.ChangePin(context.Background(), "8305", "7392"))
}

func TestVerifyPin(t *testing.T) {
	client := newMockClient()
	match := true
	client.handle("POST /auth/pin/verify", func(any) (*httpx.Response, error) {
		if match {
			return okEnvelope(nil)
		}
		return &httpx.Response{Success: false, Status: 400, Error: "pin mismatch"}, nil
	})

	c := loggedInCoordinator(t, client)

	assert.NoError(t, c.VerifyPin(context.Background(), "8305"))

	match = false
	assert.ErrorIs(t, c.VerifyPin(context.Background(), "8305"), posauth.ErrInvalidCredentials)

	// Malformed candidate never reaches the backend
	before := client.callCount("POST /auth/pin/verify")
	var vErr *posauth.ValidationError
	assert.ErrorAs(t, c.VerifyPin(context.Background(), "83"), &vErr)
	assert.Equal(t, before, client.callCount("POST /auth/pin/verify"))
}

func TestDisablePin(t *testing.T) {
	client := newMockClient()
	client.handle("POST /auth/pin/disable", func(any) (*httpx.Response, error) {
		return okEnvelope(nil)
	})

	c := loggedInCoordinator(t, client)
	recorder := recordEvents(c)

	require.NoError(t, c.DisablePin(context.Background()))
	assert.Equal(t, 1, recorder.count(posauth.EventPinDisabled))
}
