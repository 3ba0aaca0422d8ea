package errors

import (
	"net/http"
	"testing"

	"planp/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseError_WithDetailsKeepsIdentity(t *testing.T) {
	detailed := ErrUserIDAlreadyExists.WithDetails("user_id=alice")

	assert.Equal(t, http.StatusBadRequest, detailed.HTTPCode())
	assert.Equal(t, "USER_ID_ALREADY_EXISTS", detailed.ErrorCode())
	assert.Equal(t, "User ID already exists", detailed.Message())
	assert.Equal(t, "user_id=alice", detailed.Details())
	assert.Empty(t, ErrUserIDAlreadyExists.Details())
}

func TestBaseError_WrapMessageIsStillAppError(t *testing.T) {
	err := ErrEmailAlreadyExists.WrapMessage("signup")

	var appErr AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Email already registered", appErr.Message())
	assert.True(t, errors.Is(err, ErrEmailAlreadyExists))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError([]string{"a is required", "b is too long"})

	var appErr AppError
	require.True(t, errors.As(errors.Wrap(err, "validate"), &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPCode())
	assert.Equal(t, "VALIDATION_FAILED", appErr.ErrorCode())
	assert.Equal(t, "a is required; b is too long", appErr.Details())

	var validationErr *ValidationError
	require.True(t, errors.As(errors.Wrap(err, "validate"), &validationErr))
	assert.Equal(t, []string{"a is required", "b is too long"}, validationErr.Errors())
}

func TestDatabaseExecuteError(t *testing.T) {
	err := NewDatabaseExecuteError(errors.New("connection refused"), "find user")

	assert.Equal(t, http.StatusInternalServerError, err.HTTPCode())
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", err.ErrorCode())
	assert.Equal(t, "database execution failed: connection refused", err.Error())
	assert.Equal(t, "find user", err.Details())
}
