package domain

import (
	apperrors "chat-relay/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var validate = validator.New()

// ID is a document identifier. Persisted records use the 24 character hex
// form of a Mongo object id; access tokens reuse the type with their own
// format check.
type ID string

func (id ID) String() string { return string(id) }

// NewID returns a fresh object id in hex form.
func NewID() ID {
	return ID(bson.NewObjectID().Hex())
}

// EnsureCheck validates an identifier's format before any store access.
type EnsureCheck func(id ID) error

// EnsureObjectID rejects anything that is not a 24 character hex string.
func EnsureObjectID(id ID) error {
	if err := validate.Var(string(id), "required,len=24,hexadecimal"); err != nil {
		return fmt.Errorf("%w: %q is not a valid object id", apperrors.ErrArgument, id)
	}
	return nil
}

// EnsureTokenID rejects anything that is not a 64 character hex string,
// the shape NewAccessToken generates.
func EnsureTokenID(id ID) error {
	if err := validate.Var(string(id), "required,len=64,hexadecimal"); err != nil {
		return fmt.Errorf("%w: malformed access token", apperrors.ErrArgument)
	}
	return nil
}
