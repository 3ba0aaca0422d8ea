// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"planp/internal/domain/entity"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the standard operations for user persistence.
type UserRepository interface {
	// Create persists a new user. Uniqueness violations surface as
	// errors.ErrUserIDAlreadyExists or errors.ErrEmailAlreadyExists from the domain errors package.
	Create(ctx context.Context, user *entity.User) error

	// FindByUserID retrieves a single user by login ID.
	FindByUserID(ctx context.Context, userID string) (*entity.User, error)

	// FindByEmail retrieves a single user by email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// ExistsByUserID reports whether a user with the login ID exists.
	ExistsByUserID(ctx context.Context, userID string) (bool, error)

	// ExistsByEmail reports whether a user with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// AcquireSessionMutex locks the user row for the rest of the surrounding
	// transaction so concurrent logins cannot exceed the session limit.
	AcquireSessionMutex(ctx context.Context, userID string) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// Count returns the number of stored users.
	Count(ctx context.Context) (int64, error)

	// DeleteByUserID removes a single user and everything that references it.
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteAll removes every user.
	DeleteAll(ctx context.Context) error
}
