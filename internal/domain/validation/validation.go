// Package validation holds the input rules for account data. Every check
// reports violations as human-readable messages instead of failing hard.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	domainerrors "planp/internal/domain/errors"
	"planp/internal/errors"

	"github.com/go-playground/validator/v10"
)

const (
	userIDRules   = "required,min=3,max=20,userid"
	emailRules    = "required,max=254,planpemail"
	passwordRules = "required,min=6,max=50,bcryptlen"

	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72

	// DefaultMinPasswordScore is the strength score a password must reach when nothing else is configured.
	DefaultMinPasswordScore = 40
)

var (
	userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailPattern  = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?)*\.[A-Za-z]{2,}$`)

	fieldLabels = map[string]string{
		"userId":          "User ID",
		"password":        "Password",
		"name":            "Name",
		"email":           "Email",
		"currentPassword": "Current password",
		"newPassword":     "New password",
		"refreshToken":    "Refresh token",
		"idToken":         "ID token",
	}

	std = newValidate()
)

// SignupFields are the raw values submitted on signup.
type SignupFields struct {
	UserID   string `json:"userId" validate:"required,min=3,max=20,userid"`
	Password string `json:"password" validate:"required,min=6,max=50,bcryptlen"`
	Name     string `json:"name" validate:"notblank,max=50"`
	Email    string `json:"email" validate:"required,max=254,planpemail"`
}

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("userid", func(fl validator.FieldLevel) bool {
		return userIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("planpemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// ValidateSignup returns one message per invalid field. An empty slice means the input is valid.
func ValidateSignup(fields SignupFields) []string {
	return Messages(std.Struct(fields))
}

// Struct validates a request struct using its `validate` tags. Violations
// are returned as a *errors.ValidationError.
func Struct(v any) error {
	if err := std.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return errors.Wrap(err, "validate struct")
		}

		return domainerrors.NewValidationError(Messages(err))
	}

	return nil
}

// IsValidUserID reports whether id satisfies the user ID rules.
func IsValidUserID(id string) bool {
	return std.Var(id, userIDRules) == nil
}

// IsValidEmail reports whether email satisfies the email rules.
func IsValidEmail(email string) bool {
	return std.Var(email, emailRules) == nil
}

// ValidatePassword returns the violations of the password length rules.
func ValidatePassword(password string) []string {
	err := std.Var(password, passwordRules)
	if err == nil {
		return []string{}
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "bcryptlen" {
		return []string{passwordTooLongMessage("Password")}
	}

	return []string{"Password must be between 6 and 50 characters long"}
}

// Messages translates a validator error into human-readable messages.
func Messages(err error) []string {
	messages := []string{}
	if err == nil {
		return messages
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return append(messages, "Invalid input")
	}

	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}

	return messages
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", label, fe.Param())
	case "userid":
		return label + " may only contain letters, digits and underscores"
	case "bcryptlen":
		return passwordTooLongMessage(label)
	case "planpemail", "email":
		return label + " format is invalid"
	default:
		return label + " is invalid"
	}
}

func passwordTooLongMessage(label string) string {
	return fmt.Sprintf("%s must be at most %d bytes long (non-Latin characters take several bytes)", label, MaxPasswordBytes)
}

// PasswordStrength scores a password from 0 to 100: three points per
// character up to 20 characters, plus ten for each character class present
// (lowercase, uppercase, digit, other).
func PasswordStrength(password string) int {
	length := min(utf8.RuneCountInString(password), 20)

	var lower, upper, digit, other bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}

	score := length * 3
	for _, present := range []bool{lower, upper, digit, other} {
		if present {
			score += 10
		}
	}

	return score
}

// IsStrongPassword reports whether the password reaches minScore.
func IsStrongPassword(password string, minScore int) bool {
	if minScore <= 0 {
		minScore = DefaultMinPasswordScore
	}

	return PasswordStrength(password) >= minScore
}
