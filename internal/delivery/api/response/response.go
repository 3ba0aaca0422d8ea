// Package response writes the JSON bodies shared by every endpoint.
package response

import (
	"net/http"

	domainerrors "planp/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// MessageResponse is the body of operations that only report the outcome.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// OK writes a 200 response with the given body.
func OK(c echo.Context, body any) error {
	return c.JSON(http.StatusOK, body)
}

// Message writes {success:true,message}.
func Message(c echo.Context, message string) error {
	return OK(c, MessageResponse{Success: true, Message: message})
}

// Error writes the failure envelope. The list of messages is dropped for 5xx
// and authentication errors.
func Error(c echo.Context, statusCode int, errorCode, message string, errs []string) error {
	if statusCode >= http.StatusInternalServerError || statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		errs = nil
	}

	if c.Request().Method == http.MethodHead {
		return c.NoContent(statusCode)
	}

	return c.JSON(statusCode, domainerrors.ErrorResponse{
		Success: false,
		Message: message,
		Code:    errorCode,
		Errors:  errs,
	})
}
