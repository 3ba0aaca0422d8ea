package validation

import (
	"strings"
	"testing"

	domainerrors "planp/internal/domain/errors"
	"planp/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSignup() SignupFields {
	return SignupFields{
		UserID:   "planner_01",
		Password: "Secret123!",
		Name:     "Alice",
		Email:    "alice@example.com",
	}
}

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *SignupFields)
		want   []string
	}{
		{
			name:   "valid input",
			mutate: func(*SignupFields) {},
			want:   []string{},
		},
		{
			name:   "user id too short",
			mutate: func(f *SignupFields) { f.UserID = "ab" },
			want:   []string{"User ID must be at least 3 characters long"},
		},
		{
			name:   "user id too long",
			mutate: func(f *SignupFields) { f.UserID = strings.Repeat("a", 21) },
			want:   []string{"User ID must be at most 20 characters long"},
		},
		{
			name:   "user id with illegal characters",
			mutate: func(f *SignupFields) { f.UserID = "bad-id!" },
			want:   []string{"User ID may only contain letters, digits and underscores"},
		},
		{
			name:   "password too short",
			mutate: func(f *SignupFields) { f.Password = "12345" },
			want:   []string{"Password must be at least 6 characters long"},
		},
		{
			name:   "password too long",
			mutate: func(f *SignupFields) { f.Password = strings.Repeat("x", 51) },
			want:   []string{"Password must be at most 50 characters long"},
		},
		{
			name:   "multi-byte password at the bcrypt limit",
			mutate: func(f *SignupFields) { f.Password = strings.Repeat("Пароль", 6) },
			want:   []string{},
		},
		{
			name:   "multi-byte password over the bcrypt limit",
			mutate: func(f *SignupFields) { f.Password = strings.Repeat("Пароль", 6) + "1" },
			want:   []string{"Password must be at most 72 bytes long (non-Latin characters take several bytes)"},
		},
		{
			name:   "blank name",
			mutate: func(f *SignupFields) { f.Name = "   " },
			want:   []string{"Name is required"},
		},
		{
			name:   "name too long",
			mutate: func(f *SignupFields) { f.Name = strings.Repeat("n", 51) },
			want:   []string{"Name must be at most 50 characters long"},
		},
		{
			name:   "email without domain",
			mutate: func(f *SignupFields) { f.Email = "foo@" },
			want:   []string{"Email format is invalid"},
		},
		{
			name:   "email without local part",
			mutate: func(f *SignupFields) { f.Email = "@bar.com" },
			want:   []string{"Email format is invalid"},
		},
		{
			name: "every field empty reports every field",
			mutate: func(f *SignupFields) {
				*f = SignupFields{}
			},
			want: []string{
				"User ID is required",
				"Password is required",
				"Name is required",
				"Email is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validSignup()
			tt.mutate(&fields)

			assert.Equal(t, tt.want, ValidateSignup(fields))
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"alice@example.com", "a.b+tag@sub.domain.io", "x_y@foo-bar.org"}
	invalid := []string{"", "foo@", "@bar.com", "foo@bar", "foo bar@baz.com", "foo@@bar.com", "foo@-bar.com"}

	for _, email := range valid {
		assert.True(t, IsValidEmail(email), email)
	}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), email)
	}
}

func TestIsValidUserID(t *testing.T) {
	assert.True(t, IsValidUserID("abc"))
	assert.True(t, IsValidUserID("User_2024"))
	assert.False(t, IsValidUserID("ab"))
	assert.False(t, IsValidUserID("has space"))
	assert.False(t, IsValidUserID("ünicode"))
	assert.False(t, IsValidUserID(strings.Repeat("a", 21)))
}

func TestValidatePassword(t *testing.T) {
	assert.Empty(t, ValidatePassword("secret"))
	assert.Equal(t, []string{"Password must be between 6 and 50 characters long"}, ValidatePassword("short"))

	// 37 characters, 73 bytes.
	tooManyBytes := strings.Repeat("Пароль", 6) + "1"
	assert.Equal(t, []string{"Password must be at most 72 bytes long (non-Latin characters take several bytes)"}, ValidatePassword(tooManyBytes))
	assert.Empty(t, ValidatePassword(strings.Repeat("Пароль", 6)))
}

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		want     int
	}{
		{password: "", want: 0},
		{password: "abc123", want: 38},
		{password: "abcdef1", want: 41},
		{password: "password", want: 34},
		{password: "Password1!", want: 70},
		{password: strings.Repeat("aA1!", 10), want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, PasswordStrength(tt.password))
		})
	}
}

func TestIsStrongPassword(t *testing.T) {
	assert.False(t, IsStrongPassword("abc123", 40))
	assert.True(t, IsStrongPassword("abcdef1", 40))
	assert.True(t, IsStrongPassword("abcdef1", 0), "zero falls back to the default minimum")
	assert.False(t, IsStrongPassword("Password1!", 80))
}

func TestStruct(t *testing.T) {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	require.NoError(t, Struct(&request{RefreshToken: "token"}))

	err := Struct(&request{})
	var validationErr *domainerrors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, []string{"Refresh token is required"}, validationErr.Errors())
}

func TestStruct_NonStructInputIsAnErrorNotAPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Error(t, Struct(42))
	})
}

func TestMessages(t *testing.T) {
	assert.Equal(t, []string{}, Messages(nil))
	assert.Equal(t, []string{"Invalid input"}, Messages(errors.New("other")))
}
