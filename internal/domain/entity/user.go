// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import "time"

// User is a PlanP account. UserID and Email are each unique across all users.
type User struct {
	UserID       string    // Login identifier chosen at signup; immutable afterwards.
	PasswordHash string    // bcrypt hash; empty for accounts created through Google sign-in.
	Name         string    // Display name.
	Email        string    // Contact email, unique across accounts.
	Active       bool      // Disabled accounts cannot log in.
	CreatedAt    time.Time // Timestamp of when this account was created.
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
