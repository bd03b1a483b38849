// Package auth provides back-office authentication: JWT access tokens and
// bcrypt password hashes.
package auth

import (
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/actionculture/heritage/internal/validate"
)

const bcryptCost = 12

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

// ErrInvalidPassword is returned when a password does not match its hash or is empty.
var ErrInvalidPassword = errors.New("invalid password")

// PasswordField holds the strength rules for back-office passwords, checked in order.
var PasswordField = validate.Field{
	Name:     "password",
	Required: true,
	Rules: []validate.Rule{
		validate.MinLength(8),
		{
			Check:   func(v string) bool { return len(v) <= maxPasswordBytes },
			Message: "Au plus 72 octets",
		},
		validate.Pattern(regexp.MustCompile(`\p{Lu}`), "Au moins une lettre majuscule"),
		validate.Pattern(regexp.MustCompile(`\p{Ll}`), "Au moins une lettre minuscule"),
		validate.Pattern(regexp.MustCompile(`\p{Nd}`), "Au moins un chiffre"),
	},
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a password against its hash.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	return err
}

// ValidatePasswordStrength reports the first rule of PasswordField the
// password breaks, or nil.
func ValidatePasswordStrength(password string) error {
	if msg, ok := validate.Evaluate(PasswordField, password); !ok {
		return errors.New(msg)
	}
	return nil
}
