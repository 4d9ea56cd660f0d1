package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

const tokenBytes = 32

// AccessToken is an opaque bearer credential. The token string itself is
// the document id, so the gate validates it through the repository read
// path and nothing else.
type AccessToken struct {
	Base
	TTL    time.Duration
	UserID ID
}

func NewAccessToken(userID ID, ttl time.Duration) (AccessToken, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return AccessToken{}, err
	}
	base := NewBase()
	base.ID = ID(hex.EncodeToString(raw))
	return AccessToken{Base: base, TTL: ttl, UserID: userID}, nil
}

func (t AccessToken) Meta() Base { return t.Base }

// Valid reports whether the token has not yet expired.
func (t AccessToken) Valid(now time.Time) bool {
	return t.CreatedAt.Add(t.TTL).After(now)
}

func EnsureAccessToken(t AccessToken) error {
	if err := EnsureTokenID(t.ID); err != nil {
		return err
	}
	return EnsureObjectID(t.UserID)
}
