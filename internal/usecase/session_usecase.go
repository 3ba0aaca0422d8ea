package usecase

import "context"

// SessionUsecase maintains the stored refresh token sessions.
type SessionUsecase interface {
	// CleanupExpiredSessions removes expired refresh tokens and reports how many were removed.
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}
