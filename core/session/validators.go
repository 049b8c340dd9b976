package session

import (
	"regexp"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
)

var (
	errAllFieldsRequired = errors.New("All fields are required")
	errPasswordTooShort  = errors.New("Password must be at least 8 characters long")

	upperRegex   = regexp.MustCompile(`[A-Z]`)
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[^A-Za-z0-9]`)
)

const minPasswordLength = 8

// LoginForm holds the credentials typed on the login screen.
type LoginForm struct {
	Email    string `json:"email" label:"Email" validate:"required,emailfmt"`
	Password string `json:"password" label:"Password" validate:"required"`
}

// Validate rejects empty fields first, then a malformed email, then a short password.
func (f LoginForm) Validate() error {
	if f.Email == "" || f.Password == "" {
		var flds []core.FieldError
		if f.Email == "" {
			flds = append(flds, core.FieldError{Field: "Email", Error: "Email is required"})
		}
		if f.Password == "" {
			flds = append(flds, core.FieldError{Field: "Password", Error: "Password is required"})
		}
		return core.NewValidationError(errAllFieldsRequired, flds...)
	}
	if err := core.ValidateStruct(f); err != nil {
		return err
	}
	if utf8.RuneCountInString(f.Password) < minPasswordLength {
		return core.NewValidationError(errPasswordTooShort,
			core.FieldError{Field: "Password", Error: errPasswordTooShort.Error()})
	}
	return nil
}

// SignupForm holds the signup screen fields.
type SignupForm struct {
	Username        string `json:"username" label:"Username" validate:"required,min=3,alphanum_"`
	Email           string `json:"email" label:"Email" validate:"required,emailfmt"`
	Password        string `json:"password" label:"Password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" label:"Confirm password" validate:"required,eqfield=Password"`
	Role            string `json:"role" label:"Role selection" validate:"required,role"`
}

func (f SignupForm) Validate() error { return core.ValidateStruct(f) }

// ConfirmPasswordError is the live check run while the user types either password field.
func ConfirmPasswordError(pwd, confirm string) string {
	if confirm == "" {
		return "Please confirm your password"
	}
	if pwd != confirm {
		return "Passwords do not match"
	}
	return ""
}

// PasswordStrength scores pwd from 0 to 100, 25 points each for:
// - length >= 8
// - an uppercase letter
// - a digit
// - a special character
func PasswordStrength(pwd string) int {
	if pwd == "" {
		return 0
	}
	var strength int
	if len([]rune(pwd)) >= 8 {
		strength += 25
	}
	if upperRegex.MatchString(pwd) {
		strength += 25
	}
	if digitRegex.MatchString(pwd) {
		strength += 25
	}
	if specialRegex.MatchString(pwd) {
		strength += 25
	}
	return strength
}

// PasswordStrengthText labels a PasswordStrength score.
func PasswordStrengthText(strength int) string {
	switch {
	case strength == 0:
		return ""
	case strength <= 25:
		return "Weak"
	case strength <= 50:
		return "Fair"
	case strength <= 75:
		return "Good"
	default:
		return "Strong"
	}
}
