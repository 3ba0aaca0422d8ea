package middleware

import (
	"log/slog"
	"strings"

	deliverycontext "planp/internal/delivery/context"
	domainerrors "planp/internal/domain/errors"
	"planp/internal/domain/service"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// AuthMiddleware is the authentication filter in front of the protected routes.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	logger   *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, logger: logger}
}

// Authenticate accepts only valid access tokens (refresh tokens are rejected)
// and records the caller's user id on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return domainerrors.ErrUnauthorized.WrapMessage("authorization header is missing")
		}

		tokenString, found := strings.CutPrefix(authHeader, bearerPrefix)
		if !found || strings.TrimSpace(tokenString) == "" {
			return domainerrors.ErrAccessTokenInvalid.WrapMessage("authorization header must be a bearer token")
		}

		claims, err := m.tokenSvc.ValidateToken(strings.TrimSpace(tokenString))
		if err != nil {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
				Debug("Rejected access token", slog.Any("error", err))

			return domainerrors.ErrAccessTokenInvalid.WrapMessage("token validation failed")
		}
		if claims.Type != service.TokenTypeAccess || claims.UserID == "" {
			return domainerrors.ErrAccessTokenInvalid.WrapMessage("not an access token")
		}

		deliverycontext.SetUserID(c, claims.UserID)

		return next(c)
	}
}
