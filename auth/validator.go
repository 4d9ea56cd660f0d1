package auth

import (
	apperrors "chat-relay/errors"
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Email    string `validate:"required,email"`
	Name     string `validate:"required,min=1,max=64"`
	Password string `validate:"required"`
}

const (
	passwordMinLength = 12
	passwordMaxLength = 72
)

// ValidateRegister checks the request shape first, then the password
// policy. Every policy failure, length included, carries the
// ErrInvalidPassword sentinel so callers can tell a weak password apart
// from a malformed request.
func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrArgument, err)
	}
	if len(req.Password) < passwordMinLength || len(req.Password) > passwordMaxLength {
		return fmt.Errorf("%w: length must be between %d and %d", apperrors.ErrInvalidPassword, passwordMinLength, passwordMaxLength)
	}
	if !isPasswordComplex(req.Password) {
		return fmt.Errorf("%w: upper, lower, digit and special characters required", apperrors.ErrInvalidPassword)
	}
	return nil
}

// isPasswordComplex requires at least one upper, lower, digit and special
// character.
func isPasswordComplex(s string) bool {
	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
