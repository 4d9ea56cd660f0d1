package domain

import (
	apperrors "chat-relay/errors"
	"fmt"
)

// User carries the credentials the auth service checks at login. The
// password never leaves the service layer unhashed.
type User struct {
	Base
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
}

func NewUser(email, name, passwordHash string, roles []string) User {
	return User{Base: NewBase(), Email: email, Name: name, PasswordHash: passwordHash, Roles: roles}
}

func (u User) Meta() Base { return u.Base }

func EnsureUser(u User) error {
	if err := validate.Var(u.Email, "required,email"); err != nil {
		return fmt.Errorf("%w: %q is not a valid email", apperrors.ErrArgument, u.Email)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: user without password hash", apperrors.ErrArgument)
	}
	return nil
}
