package impl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"

	"planp/internal/domain/entity"
	domainerrors "planp/internal/domain/errors"
	"planp/internal/domain/repository"
	"planp/internal/domain/service"
	"planp/internal/errors"
	"planp/internal/usecase"
)

const (
	generatedIDPrefixLen = 12
	generatedIDAttempts  = 3
)

// GoogleLogin signs a user in with a Google ID token. The first sign-in links
// the Google account to the user owning the verified email, or creates a new
// password-less user when there is none.
func (srv *userService) GoogleLogin(ctx context.Context, input *usecase.GoogleLoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Handling Google sign-in")

	oauthUser, err := srv.googleAuthService.VerifyIDToken(ctx, input.IDToken)
	if err != nil {
		if errors.Is(err, service.ErrOAuthNotConfigured) {
			return nil, domainerrors.ErrOAuthNotConfigured.WrapMessage("google sign-in")
		}
		srv.log(ctx).Info("Google ID token rejected", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrOAuthTokenInvalid, err.Error())
	}

	var (
		loggedInUser              *entity.User
		accessToken, refreshToken string
		created                   bool
	)
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, isNew, err := srv.findOrCreateGoogleUser(ctx, repoFactory, oauthUser)
		if err != nil {
			return err
		}
		if !user.Active {
			return domainerrors.ErrAccountDisabled.WrapMessage("google sign-in")
		}

		accessToken, refreshToken, err = srv.tokenService.GenerateTokens(user.UserID)
		if err != nil {
			return errors.Wrap(err, "failed to generate tokens for google sign-in")
		}

		loggedInUser, created = user, isNew

		return srv.storeRefreshToken(ctx, repoFactory, user.UserID, refreshToken)
	})
	if err != nil {
		srv.log(ctx).Warn("Google sign-in failed", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute google sign-in transaction")
	}

	if created {
		srv.publishUserEvent(ctx, entity.UserEventSignedUp, loggedInUser, entity.ProviderTypeGoogle.String())
	}
	srv.publishUserEvent(ctx, entity.UserEventLoggedIn, loggedInUser, entity.ProviderTypeGoogle.String())

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         loggedInUser,
	}, nil
}

func (srv *userService) findOrCreateGoogleUser(ctx context.Context, repoFactory repository.RepositoryFactory, oauthUser *service.OAuthUser) (*entity.User, bool, error) {
	authRepo := repoFactory.NewAuthRepository()
	userRepo := repoFactory.NewUserRepository()

	link, err := authRepo.FindAuthentication(ctx, entity.ProviderTypeGoogle, oauthUser.ID)
	switch {
	case err == nil:
		user, err := userRepo.FindByUserID(ctx, link.UserID)
		if err != nil {
			return nil, false, errors.Wrap(err, "failed to find linked user")
		}

		return user, false, nil
	case !errors.Is(err, repository.ErrAuthNotFound):
		return nil, false, errors.Wrap(err, "failed to find authentication")
	}

	email := normalizeEmail(oauthUser.Email)
	user, err := userRepo.FindByEmail(ctx, email)
	isNew := false
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		user, err = srv.createGoogleUser(ctx, userRepo, oauthUser.Name, email)
		if err != nil {
			return nil, false, err
		}
		isNew = true
	case err != nil:
		return nil, false, errors.Wrap(err, "failed to find user by email")
	case !oauthUser.EmailVerified:
		// Only a verified address may take over an existing account.
		return nil, false, domainerrors.ErrEmailAlreadyExists.WrapMessage("google email is not verified")
	default:
		srv.log(ctx).Info("Linking Google account to existing user", slog.String("userId", user.UserID))
	}

	if err := authRepo.CreateAuthentication(ctx, &entity.Authentication{
		UserID:         user.UserID,
		Provider:       entity.ProviderTypeGoogle,
		ProviderUserID: oauthUser.ID,
	}); err != nil {
		return nil, false, errors.Wrap(err, "failed to create Google authentication")
	}

	return user, isNew, nil
}

func (srv *userService) createGoogleUser(ctx context.Context, userRepo repository.UserRepository, name, email string) (*entity.User, error) {
	if strings.TrimSpace(name) == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	var lastErr error
	for range generatedIDAttempts {
		userID, err := generateUserID(email)
		if err != nil {
			return nil, err
		}

		newUser := &entity.User{
			UserID: userID,
			Name:   truncateRunes(strings.TrimSpace(name), 50),
			Email:  email,
			Active: true,
		}
		lastErr = userRepo.Create(ctx, newUser)
		if lastErr == nil {
			srv.log(ctx).Info("Created user for Google account", slog.String("userId", userID))

			return newUser, nil
		}
		if !errors.Is(lastErr, domainerrors.ErrUserIDAlreadyExists) {
			break
		}
	}

	return nil, errors.Wrap(lastErr, "failed to create user for Google sign-in")
}

// generateUserID derives a login id from the email local part plus a random
// suffix, e.g. "jane_doe_3fa9c1". The result always satisfies the user id rules.
func generateUserID(email string) (string, error) {
	local, _, _ := strings.Cut(email, "@")

	var prefix strings.Builder
	for _, r := range local {
		if prefix.Len() >= generatedIDPrefixLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			prefix.WriteRune(r)
		}
	}
	if prefix.Len() == 0 {
		prefix.WriteString("user")
	}

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", errors.Wrap(err, "failed to generate user id suffix")
	}

	return prefix.String() + "_" + hex.EncodeToString(suffix), nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
