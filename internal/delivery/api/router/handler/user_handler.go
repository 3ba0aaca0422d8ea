// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"

	"planp/internal/delivery/api/response"
	deliverycontext "planp/internal/delivery/context"
	domainerrors "planp/internal/domain/errors"
	"planp/internal/domain/validation"
	"planp/internal/errors"
	"planp/internal/usecase"

	"github.com/labstack/echo/v4"
)

// UserHandler holds dependencies for user-related handlers.
type UserHandler struct {
	uc     usecase.UserUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.UserUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		uc:     uc,
		logger: logger,
	}
}

// bindAndValidate decodes the JSON body into req and checks its `validate` tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrInvalidRequest.WrapMessage(err.Error())
	}

	return errors.WithStack(c.Validate(req))
}

// Signup handles POST /api/users/signup.
func (h *UserHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return domainerrors.ErrInvalidRequest.WrapMessage(err.Error())
	}

	output, err := h.uc.Signup(c.Request().Context(), &usecase.SignupInput{
		UserID:   req.UserID,
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, SignupResponse{
		Success: true,
		Message: "Signup successful",
		UserID:  output.User.UserID,
	})
}

// Login handles POST /api/users/login.
func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.uc.Login(c.Request().Context(), &usecase.LoginInput{
		UserID:   req.UserID,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newLoginResponse("Login successful", output))
}

// CheckUserID handles GET /api/users/check-id?userId=.
func (h *UserHandler) CheckUserID(c echo.Context) error {
	userID := c.QueryParam("userId")
	switch {
	case userID == "":
		return domainerrors.NewValidationError([]string{"User ID is required"})
	case !validation.IsValidUserID(userID):
		return domainerrors.NewValidationError([]string{"User ID must be 3 to 20 letters, digits or underscores"})
	}

	available, err := h.uc.IsUserIDAvailable(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	message := "User ID is available"
	if !available {
		message = "User ID is already taken"
	}

	return response.OK(c, AvailabilityResponse{Available: available, Message: message})
}

// CheckEmail handles GET /api/users/check-email?email=.
func (h *UserHandler) CheckEmail(c echo.Context) error {
	email := c.QueryParam("email")
	switch {
	case email == "":
		return domainerrors.NewValidationError([]string{"Email is required"})
	case !validation.IsValidEmail(email):
		return domainerrors.NewValidationError([]string{"Email format is invalid"})
	}

	available, err := h.uc.IsEmailAvailable(c.Request().Context(), email)
	if err != nil {
		return errors.WithStack(err)
	}

	message := "Email is available"
	if !available {
		message = "Email is already registered"
	}

	return response.OK(c, AvailabilityResponse{Available: available, Message: message})
}

// RefreshToken handles POST /api/users/refresh.
func (h *UserHandler) RefreshToken(c echo.Context) error {
	var req RefreshTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.uc.RefreshToken(c.Request().Context(), &usecase.RefreshTokenInput{RefreshToken: req.RefreshToken})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, RefreshTokenResponse{
		Success:     true,
		Message:     "Token refreshed",
		AccessToken: output.AccessToken,
	})
}

// Logout handles POST /api/users/logout.
func (h *UserHandler) Logout(c echo.Context) error {
	var req RefreshTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.uc.Logout(c.Request().Context(), &usecase.LogoutInput{RefreshToken: req.RefreshToken}); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, "Logged out")
}

// GoogleLogin handles POST /api/users/oauth/google with an ID token from Google Sign-In.
func (h *UserHandler) GoogleLogin(c echo.Context) error {
	var req GoogleLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.uc.GoogleLogin(c.Request().Context(), &usecase.GoogleLoginInput{IDToken: req.IDToken})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newLoginResponse("Google sign-in successful", output))
}

// GetProfile handles GET /api/users/me.
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	user, err := h.uc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, ProfileResponse{
		Success: true,
		Message: "Profile retrieved",
		User:    newUserResponse(user),
	})
}

// ChangePassword handles PUT /api/users/me/password.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.uc.ChangePassword(c.Request().Context(), &usecase.ChangePasswordInput{
		UserID:          userID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, "Password changed")
}

// DeleteAccount handles DELETE /api/users/me.
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	if err := h.uc.DeleteAccount(c.Request().Context(), userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, "Account deleted")
}

func currentUserID(c echo.Context) (string, error) {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return "", domainerrors.ErrUnauthorized.WrapMessage("no authenticated user on context")
	}

	return userID, nil
}

func newLoginResponse(message string, output *usecase.LoginOutput) LoginResponse {
	return LoginResponse{
		Success:      true,
		Message:      message,
		User:         newUserResponse(output.User),
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
	}
}
