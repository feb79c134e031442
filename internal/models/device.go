package models

import "time"

// DeviceMetadata is the best-effort human-readable description of the
// current device. Unknown patterns degrade to "Unknown Browser"/"Unknown OS"
// rather than failing - this data is advisory and never blocks login.
type DeviceMetadata struct {
	Name    string `json:"name"`
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Type    string `json:"type"` // "mobile", "tablet" or "desktop"
}

// DeviceIdentity pairs the persisted pseudo-unique device id with its
// descriptive metadata. Trust status lives on the backend's trusted-device
// list; the client only submits and displays it.
type DeviceIdentity struct {
	DeviceID  string         `json:"device_id"`
	IsTrusted bool           `json:"is_trusted"`
	Metadata  DeviceMetadata `json:"metadata"`
}

// TrustedDevice is one entry of the backend's trusted-device list.
type TrustedDevice struct {
	DeviceID   string         `json:"device_id"`
	Metadata   DeviceMetadata `json:"metadata"`
	TrustedAt  time.Time      `json:"trusted_at"`
	LastSeenAt time.Time      `json:"last_seen_at,omitzero"`
}
