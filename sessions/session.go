// Package sessions implements the session resource: issuance on behalf of a
// user, listing scoped by caller access, and deletion.
package sessions

import "time"

// Expiry bounds for requested session durations, in milliseconds.
const (
	DefaultExpiresInMillis = 1000 * 60 * 60 * 24 * 365 // 365 days
	MaxExpiresInMillis     = 1000 * 60 * 60 * 24 * 367 // 367 days
)

// Session is a long-lived credential record. ID is a non-secret identifier
// distinct from the refresh token; the refresh token is unique within a
// tenancy and never retrievable after creation.
type Session struct {
	ID              string
	UserID          string
	TenancyID       string
	CreatedAt       time.Time
	ExpiresAt       *time.Time
	IsImpersonation bool
	RefreshToken    string
}
