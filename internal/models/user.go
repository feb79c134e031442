package models

import (
	"time"
)

// User is the authenticated staff member as reported by the backend.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"` // e.g., "cashier", "manager", "admin"
	StoreID     string    `json:"store_id,omitempty"`
	PinEnabled  bool      `json:"pin_enabled"`
	LastLoginAt time.Time `json:"last_login_at,omitzero"`
}
