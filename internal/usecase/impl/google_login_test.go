package impl

import (
	"context"
	"regexp"
	"testing"

	"planp/internal/domain/entity"
	domainerrors "planp/internal/domain/errors"
	"planp/internal/domain/service"
	"planp/internal/errors"
	"planp/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func googleUser() *service.OAuthUser {
	return &service.OAuthUser{
		ID:            "google-sub-1",
		Email:         "Jane.Doe+planp@gmail.com",
		Name:          "Jane Doe",
		Provider:      entity.ProviderTypeGoogle,
		EmailVerified: true,
	}
}

func TestGoogleLogin_CreatesUserOnFirstSignIn(t *testing.T) {
	env := newTestEnv(0)
	env.oauth.user = googleUser()

	out, err := env.svc.GoogleLogin(context.Background(), &usecase.GoogleLoginInput{IDToken: "id-token"})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^janedoeplanp_[0-9a-f]{6}$`), out.User.UserID)
	assert.Equal(t, "jane.doe+planp@gmail.com", out.User.Email)
	assert.False(t, out.User.HasPassword())
	assert.NotEmpty(t, out.AccessToken)
	assert.Len(t, env.store.auths, 1)
	assert.Equal(t, []entity.UserEventType{entity.UserEventSignedUp, entity.UserEventLoggedIn}, env.publishedTypes())

	again, err := env.svc.GoogleLogin(context.Background(), &usecase.GoogleLoginInput{IDToken: "id-token"})
	require.NoError(t, err)
	assert.Equal(t, out.User.UserID, again.User.UserID)
	assert.Len(t, env.store.users, 1)
}

func TestGoogleLogin_LinksExistingEmail(t *testing.T) {
	env := newTestEnv(0)
	input := validSignup()
	input.Email = "jane.doe+planp@gmail.com"
	signup(t, env, input)
	env.oauth.user = googleUser()

	out, err := env.svc.GoogleLogin(context.Background(), &usecase.GoogleLoginInput{IDToken: "id-token"})
	require.NoError(t, err)

	assert.Equal(t, "alice_01", out.User.UserID)
	assert.Len(t, env.store.users, 1)
	assert.Equal(t, "alice_01", env.store.auths["google:google-sub-1"].UserID)
}

func TestGoogleLogin_UnverifiedEmailDoesNotLink(t *testing.T) {
	env := newTestEnv(0)
	input := validSignup()
	input.Email = "jane.doe+planp@gmail.com"
	signup(t, env, input)
	env.oauth.user = googleUser()
	env.oauth.user.EmailVerified = false

	_, err := env.svc.GoogleLogin(context.Background(), &usecase.GoogleLoginInput{IDToken: "id-token"})

	assert.ErrorIs(t, err, domainerrors.ErrEmailAlreadyExists)
	assert.Empty(t, env.store.auths)
}

func TestGoogleLogin_InvalidToken(t *testing.T) {
	env := newTestEnv(0)
	env.oauth.err = errors.New("token verification failed")

	_, err := env.svc.GoogleLogin(context.Background(), &usecase.GoogleLoginInput{IDToken: "bad"})
	assert.ErrorIs(t, err, domainerrors.ErrOAuthTokenInvalid)
}

func TestGoogleLogin_NotConfigured(t *testing.T) {
	env := newTestEnv(0)
	env.oauth.err = service.ErrOAuthNotConfigured

	_, err := env.svc.GoogleLogin(context.Background(), &usecase.GoogleLoginInput{IDToken: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrOAuthNotConfigured)
}

func TestGenerateUserID(t *testing.T) {
	for email, pattern := range map[string]string{
		"averyveryverylongname@x.com": `^averyveryver_[0-9a-f]{6}$`,
		"..@x.com":                    `^user_[0-9a-f]{6}$`,
		"bob@x.com":                   `^bob_[0-9a-f]{6}$`,
	} {
		userID, err := generateUserID(email)
		require.NoError(t, err)
		assert.Regexp(t, pattern, userID)
		assert.LessOrEqual(t, len(userID), 20)
	}
}
