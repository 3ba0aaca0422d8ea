// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"planp/internal/domain/entity"
)

// --- Input DTOs ---

// SignupInput is the raw signup form.
type SignupInput struct {
	UserID   string
	Password string
	Name     string
	Email    string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	UserID   string
	Password string
}

type RefreshTokenInput struct {
	RefreshToken string
}

type LogoutInput struct {
	RefreshToken string
}

// GoogleLoginInput carries the ID token obtained by the client from Google Sign-In.
type GoogleLoginInput struct {
	IDToken string
}

type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

// --- Output DTOs ---

// SignupOutput returns the newly created account.
type SignupOutput struct {
	User *entity.User
}

// LoginOutput returns the generated tokens after a successful login.
type LoginOutput struct {
	AccessToken  string
	RefreshToken string
	User         *entity.User
}

type RefreshTokenOutput struct {
	AccessToken string
}

// UserUsecase defines the account operations the delivery layer depends on.
type UserUsecase interface {
	Signup(ctx context.Context, input *SignupInput) (*SignupOutput, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	IsUserIDAvailable(ctx context.Context, userID string) (bool, error)
	IsEmailAvailable(ctx context.Context, email string) (bool, error)
	RefreshToken(ctx context.Context, input *RefreshTokenInput) (*RefreshTokenOutput, error)
	Logout(ctx context.Context, input *LogoutInput) error
	GoogleLogin(ctx context.Context, input *GoogleLoginInput) (*LoginOutput, error)
	GetProfile(ctx context.Context, userID string) (*entity.User, error)
	ChangePassword(ctx context.Context, input *ChangePasswordInput) error
	DeleteAccount(ctx context.Context, userID string) error
}
