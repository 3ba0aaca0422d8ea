package entity

import (
	"time"

	"github.com/google/uuid"
)

// ProviderType names an external identity provider.
type ProviderType string

const (
	// ProviderTypeGoogle is Google Sign-In.
	ProviderTypeGoogle ProviderType = "google"
)

// String returns the string representation of the ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// Authentication links an external identity (e.g. a Google account) to a User.
type Authentication struct {
	ID             uuid.UUID    // The unique ID for this link.
	UserID         string       // The User this identity belongs to.
	Provider       ProviderType // The identity provider.
	ProviderUserID string       // The user's ID at the provider (Google's 'sub' claim).
	CreatedAt      time.Time
}

// RefreshToken represents a long-lived, authorized user session.
// Only the SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the session has expired at the given instant.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
