package middleware

import (
	"log/slog"
	"net/http"

	"planp/internal/delivery/api/response"
	deliverycontext "planp/internal/delivery/context"
	domainerrors "planp/internal/domain/errors"
	"planp/internal/errors"

	"github.com/labstack/echo/v4"
)

// ErrorMiddleware turns handler errors into the JSON failure envelope.
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// HandleHTTPError is installed as echo's HTTPErrorHandler.
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	logger := deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger)

	if validationErr, ok := errors.AsApp[*domainerrors.ValidationError](err); ok {
		_ = response.Error(c, validationErr.HTTPCode(), validationErr.ErrorCode(), validationErr.Message(), validationErr.Errors())

		return
	}

	if appErr, ok := errors.AsApp[domainerrors.AppError](err); ok {
		if appErr.HTTPCode() >= http.StatusInternalServerError {
			logger.Error("Request failed",
				slog.Any("error", err),
				slog.String("details", appErr.Details()),
				slog.String("path", c.Request().URL.Path),
				slog.String("method", c.Request().Method),
			)
		}
		// Internals never leave the process for 5xx; Message() is the public text.
		_ = response.Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), nil)

		return
	}

	if httpErr, ok := errors.AsApp[*echo.HTTPError](err); ok {
		code, message := httpErrorText(httpErr)
		_ = response.Error(c, httpErr.Code, code, message, nil)

		return
	}

	logger.Error("Unhandled error",
		slog.Any("error", err),
		slog.String("path", c.Request().URL.Path),
		slog.String("method", c.Request().Method),
	)

	_ = response.Error(c, http.StatusInternalServerError, domainerrors.ErrInternalError.ErrorCode(), domainerrors.ErrInternalError.Message(), nil)
}

func httpErrorText(httpErr *echo.HTTPError) (code, message string) {
	switch httpErr.Code {
	case http.StatusNotFound:
		return "NOT_FOUND", "Resource not found"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED", "Method not allowed"
	case http.StatusRequestEntityTooLarge:
		return "REQUEST_TOO_LARGE", "Request body too large"
	case http.StatusBadRequest:
		return domainerrors.ErrInvalidRequest.ErrorCode(), domainerrors.ErrInvalidRequest.Message()
	}

	if msg, ok := httpErr.Message.(string); ok && msg != "" {
		return "HTTP_ERROR", msg
	}

	return "HTTP_ERROR", http.StatusText(httpErr.Code)
}
