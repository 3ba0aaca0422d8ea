package impl

import (
	"context"
	"log/slog"

	deliverycontext "planp/internal/delivery/context"
	"planp/internal/domain/repository"
	"planp/internal/errors"
	"planp/internal/usecase"
)

type sessionService struct {
	refreshTokenRepo repository.RefreshTokenRepository
	logger           *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(refreshTokenRepo repository.RefreshTokenRepository, logger *slog.Logger) usecase.SessionUsecase {
	return &sessionService{
		refreshTokenRepo: refreshTokenRepo,
		logger:           logger,
	}
}

// CleanupExpiredSessions removes all expired sessions from the database.
func (srv *sessionService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)

	deleted, err := srv.refreshTokenRepo.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		logger.Error("Failed to cleanup expired sessions", slog.Any("error", err))

		return 0, errors.Wrap(err, "failed to cleanup expired sessions")
	}
	if deleted > 0 {
		logger.Info("Cleaned up expired sessions", slog.Int64("deleted_count", deleted))
	}

	return deleted, nil
}
