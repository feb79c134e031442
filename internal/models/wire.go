package models

// Wire types shared by the client coordinator and the mock backend.

// LoginRequest is the password login payload. Device fields ride along so
// the backend can run its new-device heuristics and record session metadata.
type LoginRequest struct {
	Username       string         `json:"username" validate:"required,min=1,max=64"`
	Password       string         `json:"password" validate:"required,min=1,max=128"`
	RememberDevice bool           `json:"remember_device,omitempty"`
	DeviceID       string         `json:"device_id,omitempty"`
	Device         DeviceMetadata `json:"device,omitzero"`
}

// PinLoginRequest is the PIN login payload.
type PinLoginRequest struct {
	Username string         `json:"username" validate:"required,min=1,max=64"`
	Pin      string         `json:"pin" validate:"required,len=4,numeric"`
	DeviceID string         `json:"device_id,omitempty"`
	Device   DeviceMetadata `json:"device,omitzero"`
}

// AuthPayload is the data member of login and current-user responses.
// AccessToken is only present on header-transport deployments; with cookie
// transport the credential is invisible to the client and ExpiresIn carries
// the expiry estimate instead.
type AuthPayload struct {
	User           *User    `json:"user"`
	ExpiresIn      int64    `json:"expires_in,omitempty"` // seconds
	AccessToken    string   `json:"access_token,omitempty"`
	KnownDeviceIDs []string `json:"known_device_ids,omitempty"`
}

// RefreshPayload is the data member of refresh responses.
type RefreshPayload struct {
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// PinSetupRequest covers PIN setup and change. Current is empty on setup.
type PinSetupRequest struct {
	Pin     string `json:"pin" validate:"required,len=4,numeric"`
	Current string `json:"current,omitempty"`
}

// PinVerifyRequest is the PIN re-verification payload for sensitive actions.
type PinVerifyRequest struct {
	Pin string `json:"pin" validate:"required,len=4,numeric"`
}

// TrustDeviceRequest registers the current device on the trusted list.
type TrustDeviceRequest struct {
	DeviceID string         `json:"device_id" validate:"required"`
	Device   DeviceMetadata `json:"device,omitzero"`
}

// RevokeRequest names a device or session to revoke.
type RevokeRequest struct {
	ID string `json:"id" validate:"required"`
}

// DeviceListPayload is the data member of the trusted-device list response.
type DeviceListPayload struct {
	Devices []TrustedDevice `json:"devices"`
}

// SessionListPayload is the data member of the session list response.
type SessionListPayload struct {
	Sessions []SessionInfo `json:"sessions"`
}
