package models

import "time"

// SessionInfo is one entry of the backend's active-session list.
type SessionInfo struct {
	ID         string         `json:"id"`
	DeviceID   string         `json:"device_id"`
	Device     DeviceMetadata `json:"device"`
	IPAddress  string         `json:"ip_address,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	LastSeenAt time.Time      `json:"last_seen_at,omitzero"`
	Current    bool           `json:"current"`
}

// Credentials is the password login input.
type Credentials struct {
	Username       string `json:"username" validate:"required,min=1,max=64"`
	Password       string `json:"password" validate:"required,min=1,max=128"`
	RememberDevice bool   `json:"remember_device,omitempty"`
}

// PinCredentials is the PIN login input.
type PinCredentials struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Pin      string `json:"pin" validate:"required,len=4,numeric"`
}
