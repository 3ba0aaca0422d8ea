// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"planp/config"
	deliverycontext "planp/internal/delivery/context"
	"planp/internal/domain/entity"
	domainerrors "planp/internal/domain/errors"
	"planp/internal/domain/repository"
	"planp/internal/domain/service"
	"planp/internal/domain/validation"
	"planp/internal/errors"
	"planp/internal/usecase"

	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	txManager         repository.TransactionManager
	userRepo          repository.UserRepository
	refreshTokenRepo  repository.RefreshTokenRepository
	hasher            service.PasswordHasher
	tokenService      service.TokenService
	googleAuthService service.OAuthAuthService
	publisher         service.EventPublisher
	maxActiveSessions int
	minPasswordScore  int
	logger            *slog.Logger
	now               func() time.Time
	// dummyHash is compared against when there is no stored hash, so every
	// failed login costs one bcrypt comparison.
	dummyHash func() string
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager         repository.TransactionManager
	UserRepo          repository.UserRepository
	RefreshTokenRepo  repository.RefreshTokenRepository
	Hasher            service.PasswordHasher
	TokenService      service.TokenService
	GoogleAuthService service.OAuthAuthService
	Publisher         service.EventPublisher
	Config            *config.Config
	Logger            *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	var maxActiveSessions, minPasswordScore int
	if params.Config != nil && params.Config.Auth != nil {
		maxActiveSessions = params.Config.Auth.MaxActiveSessions
		minPasswordScore = params.Config.Auth.MinPasswordScore
	}

	srv := &userService{
		txManager:         params.TxManager,
		userRepo:          params.UserRepo,
		refreshTokenRepo:  params.RefreshTokenRepo,
		hasher:            params.Hasher,
		tokenService:      params.TokenService,
		googleAuthService: params.GoogleAuthService,
		publisher:         params.Publisher,
		maxActiveSessions: maxActiveSessions,
		minPasswordScore:  minPasswordScore,
		logger:            params.Logger,
		now:               time.Now,
	}
	srv.dummyHash = sync.OnceValue(func() string {
		hash, err := srv.hasher.Hash("planp-login-timing-equalizer")
		if err != nil {
			return ""
		}

		return hash
	})

	return srv
}

// checkPassword verifies password against the user's hash. Accounts without
// a password are compared against the dummy hash and never match.
func (srv *userService) checkPassword(password string, user *entity.User) bool {
	if !user.HasPassword() {
		srv.hasher.Check(password, srv.dummyHash())

		return false
	}

	return srv.hasher.Check(password, user.PasswordHash)
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Signup walks Received → Validated → IdChecked → EmailChecked →
// StrengthChecked → Hashed → Persisted. Any failing stage ends the flow; only
// the last stage writes, so nothing has to be undone.
func (srv *userService) Signup(ctx context.Context, input *usecase.SignupInput) (*usecase.SignupOutput, error) {
	logger := srv.log(ctx).With(slog.String("userId", input.UserID))
	logger.Debug("Signup received")

	email := normalizeEmail(input.Email)
	errs := validation.ValidateSignup(validation.SignupFields{
		UserID:   input.UserID,
		Password: input.Password,
		Name:     input.Name,
		Email:    email,
	})
	if len(errs) > 0 {
		logger.Info("Signup rejected by validation", slog.Any("errors", errs))

		return nil, domainerrors.NewValidationError(errs)
	}

	taken, err := srv.userRepo.ExistsByUserID(ctx, input.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check user id")
	}
	if taken {
		logger.Info("Signup rejected: user id taken")

		return nil, domainerrors.ErrUserIDAlreadyExists.WrapMessage("signup rejected")
	}

	taken, err = srv.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check email")
	}
	if taken {
		logger.Info("Signup rejected: email taken")

		return nil, domainerrors.ErrEmailAlreadyExists.WrapMessage("signup rejected")
	}

	if !validation.IsStrongPassword(input.Password, srv.minPasswordScore) {
		logger.Info("Signup rejected: weak password", slog.Int("score", validation.PasswordStrength(input.Password)))

		return nil, domainerrors.ErrPasswordTooWeak.WrapMessage("signup rejected")
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		logger.Error("Failed to hash password during signup", slog.Any("error", err))

		return nil, domainerrors.ErrPasswordHashFailed.WithDetails(err.Error())
	}

	newUser := &entity.User{
		UserID:       input.UserID,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Active:       true,
	}
	if err := srv.userRepo.Create(ctx, newUser); err != nil {
		logger.Warn("Signup failed at persistence", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create user")
	}
	logger.Info("User signed up")

	srv.publishUserEvent(ctx, entity.UserEventSignedUp, newUser, "")

	return &usecase.SignupOutput{User: newUser}, nil
}

// Login checks the password and opens a new session. Unknown user ids and
// wrong passwords are indistinguishable to the caller.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	logger := srv.log(ctx).With(slog.String("userId", input.UserID))
	logger.Debug("Starting user login")

	user, err := srv.userRepo.FindByUserID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.hasher.Check(input.Password, srv.dummyHash())
			logger.Info("Login failed: unknown user")

			return nil, domainerrors.ErrInvalidCredentials.WrapMessage("login failed")
		}

		return nil, errors.Wrap(err, "failed to load user for login")
	}

	// bcrypt is CPU-bound, so it runs outside any transaction.
	if !srv.checkPassword(input.Password, user) {
		logger.Info("Login failed: password mismatch")

		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("login failed")
	}
	if !user.Active {
		logger.Info("Login failed: account disabled")

		return nil, domainerrors.ErrAccountDisabled.WrapMessage("login failed")
	}

	accessToken, refreshToken, err := srv.tokenService.GenerateTokens(user.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate tokens")
	}

	if err := srv.persistLoginRefreshToken(ctx, user.UserID, refreshToken); err != nil {
		logger.Warn("Login failed: could not open session", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create refresh token during login")
	}
	logger.Debug("User logged in successfully")

	srv.publishUserEvent(ctx, entity.UserEventLoggedIn, user, "")

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// IsUserIDAvailable reports whether no account uses the id.
func (srv *userService) IsUserIDAvailable(ctx context.Context, userID string) (bool, error) {
	exists, err := srv.userRepo.ExistsByUserID(ctx, userID)
	if err != nil {
		return false, errors.Wrap(err, "failed to check user id availability")
	}

	return !exists, nil
}

// IsEmailAvailable reports whether no account uses the email.
func (srv *userService) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	exists, err := srv.userRepo.ExistsByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return false, errors.Wrap(err, "failed to check email availability")
	}

	return !exists, nil
}

// RefreshToken issues a new access token. The refresh token itself stays unchanged.
func (srv *userService) RefreshToken(ctx context.Context, input *usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error) {
	srv.log(ctx).Debug("Attempting to refresh access token")

	claims, err := srv.tokenService.ValidateToken(input.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrRefreshTokenInvalid, err.Error())
	}
	if claims.Type != service.TokenTypeRefresh {
		return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("not a refresh token")
	}

	stored, err := srv.refreshTokenRepo.FindRefreshTokenByHash(ctx, srv.tokenService.HashToken(input.RefreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token revoked")
		}

		return nil, errors.Wrap(err, "failed to find refresh token")
	}
	if stored.UserID != claims.UserID {
		return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token owner mismatch")
	}
	if stored.IsExpired(srv.now()) {
		return nil, domainerrors.ErrRefreshTokenExpired.WrapMessage("refresh token expired")
	}

	user, err := srv.userRepo.FindByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token owner not found")
		}

		return nil, errors.Wrap(err, "failed to find user")
	}
	if !user.Active {
		return nil, domainerrors.ErrAccountDisabled.WrapMessage("refresh rejected")
	}

	accessToken, err := srv.tokenService.GenerateAccessToken(user.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate new access token")
	}

	return &usecase.RefreshTokenOutput{AccessToken: accessToken}, nil
}

// Logout deletes the session behind the refresh token.
func (srv *userService) Logout(ctx context.Context, input *usecase.LogoutInput) error {
	if _, err := srv.tokenService.ValidateToken(input.RefreshToken); err != nil {
		// An expired token still names a stored session that should go away.
		srv.log(ctx).Debug("Logout with invalid token", slog.Any("error", err))
	}

	if err := srv.refreshTokenRepo.DeleteRefreshTokenByHash(ctx, srv.tokenService.HashToken(input.RefreshToken)); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return domainerrors.ErrRefreshTokenInvalid.WrapMessage("logout failed")
		}

		srv.log(ctx).Error("Failed to delete refresh token", slog.Any("error", err))

		return errors.Wrap(err, "failed to delete refresh token")
	}
	srv.log(ctx).Debug("Successfully logged out")

	return nil
}

// GetProfile returns the account of the authenticated caller.
func (srv *userService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := srv.userRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound.WrapMessage("get profile")
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

// ChangePassword replaces the password and ends every open session.
func (srv *userService) ChangePassword(ctx context.Context, input *usecase.ChangePasswordInput) error {
	logger := srv.log(ctx).With(slog.String("userId", input.UserID))

	user, err := srv.GetProfile(ctx, input.UserID)
	if err != nil {
		return err
	}
	if !srv.checkPassword(input.CurrentPassword, user) {
		logger.Info("Password change rejected: current password mismatch")

		return domainerrors.ErrCurrentPasswordMismatch.WrapMessage("change password")
	}

	if errs := validation.ValidatePassword(input.NewPassword); len(errs) > 0 {
		return domainerrors.NewValidationError(errs)
	}
	if !validation.IsStrongPassword(input.NewPassword, srv.minPasswordScore) {
		return domainerrors.ErrPasswordTooWeak.WrapMessage("change password")
	}

	hash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return domainerrors.ErrPasswordHashFailed.WithDetails(err.Error())
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.NewUserRepository().UpdatePassword(ctx, input.UserID, hash); err != nil {
			return errors.Wrap(err, "failed to update password")
		}

		return errors.Wrap(
			repoFactory.NewRefreshTokenRepository().DeleteRefreshTokensByUserID(ctx, input.UserID),
			"failed to revoke sessions",
		)
	})
	if err != nil {
		logger.Error("Failed to change password", slog.Any("error", err))

		return errors.Wrap(err, "failed to execute change password transaction")
	}
	logger.Info("Password changed, sessions revoked")

	return nil
}

// DeleteAccount removes the account together with its sessions and provider links.
func (srv *userService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := srv.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if err := srv.userRepo.DeleteByUserID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrUserNotFound.WrapMessage("delete account")
		}

		return errors.Wrap(err, "failed to delete user")
	}
	srv.log(ctx).Info("Account deleted", slog.String("userId", userID))

	srv.publishUserEvent(ctx, entity.UserEventDeleted, user, "")

	return nil
}

// persistLoginRefreshToken stores the session, enforcing the active session limit when configured.
func (srv *userService) persistLoginRefreshToken(ctx context.Context, userID, refreshToken string) error {
	if srv.maxActiveSessions > 0 {
		// Lock, count and insert in one short transaction.
		return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
			return srv.storeRefreshToken(ctx, repoFactory, userID, refreshToken)
		})
	}

	return srv.storeRefreshTokenWithRepo(ctx, srv.refreshTokenRepo, userID, refreshToken)
}

// storeRefreshToken is used inside a transaction.
func (srv *userService) storeRefreshToken(ctx context.Context, repoFactory repository.RepositoryFactory, userID, refreshToken string) error {
	refreshRepo := repoFactory.NewRefreshTokenRepository()

	if srv.maxActiveSessions > 0 {
		if err := repoFactory.NewUserRepository().AcquireSessionMutex(ctx, userID); err != nil {
			return errors.Wrap(err, "failed to lock user row for session limit check")
		}

		activeSessions, err := refreshRepo.CountActiveSessionsByUserID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to count active sessions")
		}
		if activeSessions >= srv.maxActiveSessions {
			return domainerrors.ErrSessionLimitExceeded.WrapMessage("active session limit exceeded")
		}
	}

	return srv.storeRefreshTokenWithRepo(ctx, refreshRepo, userID, refreshToken)
}

func (srv *userService) storeRefreshTokenWithRepo(ctx context.Context, refreshRepo repository.RefreshTokenRepository, userID, refreshToken string) error {
	token := &entity.RefreshToken{
		UserID:    userID,
		TokenHash: srv.tokenService.HashToken(refreshToken),
		ExpiresAt: srv.now().Add(srv.tokenService.GetRefreshTokenDuration()),
	}

	return errors.Wrap(refreshRepo.CreateRefreshToken(ctx, token), "failed to store refresh token")
}

// publishUserEvent is best-effort: the account change is already committed.
func (srv *userService) publishUserEvent(ctx context.Context, eventType entity.UserEventType, user *entity.User, provider string) {
	if srv.publisher == nil {
		return
	}

	event := &entity.UserEvent{
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
		Type:       eventType,
		UserID:     user.UserID,
		Email:      user.Email,
		Provider:   provider,
		OccurredAt: srv.now().UTC(),
	}
	if err := srv.publisher.PublishUserEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish user event",
			slog.String("type", string(eventType)),
			slog.String("userId", user.UserID),
			slog.Any("error", err),
		)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
