// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// Profile is a registered user. Created on signup, read-only to group and
// expense operations.
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeEmail trims and lower-cases an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity is the authenticated caller. It is derived from a verified
// session token and passed by value into every service call.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
}

// IsZero reports whether the identity is unauthenticated.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

// Session is an issued sign-in session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
