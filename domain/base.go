package domain

import (
	"time"

	"github.com/google/uuid"
)

// Base is the versioned-record envelope every persisted model embeds.
// ChangeStamp is the opaque token the conditional-replace path matches on;
// the repository rotates it on every successful mutation, callers never
// assign it themselves.
type Base struct {
	ID          ID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ChangeStamp string
	Deleted     bool
}

// NewBase seeds the envelope for a record about to be inserted.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{
		ID:          NewID(),
		CreatedAt:   now,
		UpdatedAt:   now,
		ChangeStamp: uuid.NewString(),
	}
}

// Rotated returns a copy with a fresh change stamp and updatedAt. The
// receiver is left untouched so a failed conditional replace never leaks a
// stamp the store does not hold.
func (b Base) Rotated(now time.Time) Base {
	b.ChangeStamp = uuid.NewString()
	b.UpdatedAt = now.UTC()
	return b
}

// Model is implemented by every persisted domain value.
type Model interface {
	Meta() Base
}
