// Package validator plugs the domain validation rules into echo's Context.Validate.
package validator

import (
	"planp/internal/domain/validation"

	"github.com/labstack/echo/v4"
)

type requestValidator struct{}

// New returns the echo.Validator used by the API server.
func New() echo.Validator {
	return requestValidator{}
}

// Validate checks the `validate` tags of a bound request.
func (requestValidator) Validate(i any) error {
	return validation.Struct(i)
}
