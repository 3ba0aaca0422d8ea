package repository

import (
	"context"
	"errors"

	"planp/internal/domain/entity"
)

// ErrAuthNotFound is returned when no identity link matches the provider ID.
var ErrAuthNotFound = errors.New("authentication method not found")

// AuthRepository persists links between external identities and users.
type AuthRepository interface {
	// CreateAuthentication persists a new provider link.
	CreateAuthentication(ctx context.Context, auth *entity.Authentication) error

	// FindAuthentication retrieves a link by its provider and provider-specific ID.
	FindAuthentication(ctx context.Context, provider entity.ProviderType, providerUserID string) (*entity.Authentication, error)

	// ListAuthenticationsByUserID returns all provider links of a user.
	ListAuthenticationsByUserID(ctx context.Context, userID string) ([]*entity.Authentication, error)
}
