package gateway

import (
	"chat-relay/contract"
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
)

// Credentials is what a client presents during the handshake. UserID and
// ConversationID are optional; the token is not.
type Credentials struct {
	Token          string
	UserID         domain.ID
	ConversationID domain.ID
}

// Identity is the authenticated result the rest of the handshake runs on.
type Identity struct {
	UserID         domain.ID
	ConversationID domain.ID
}

// Gate decides whether a handshake may proceed. The token resolves to a
// user through the validator; a client claiming to be someone else than
// the token's owner is rejected.
type Gate struct {
	log       *slog.Logger
	validator contract.TokenValidator
}

func NewGate(log *slog.Logger, validator contract.TokenValidator) *Gate {
	return &Gate{log: log, validator: validator}
}

func (g *Gate) Authenticate(ctx context.Context, creds Credentials) (Identity, error) {
	if creds.Token == "" {
		return Identity{}, fmt.Errorf("%w: missing access token", apperrors.ErrUnauthorized)
	}

	userID, err := g.validator.Validate(ctx, creds.Token)
	if err != nil {
		return Identity{}, err
	}

	if creds.UserID != "" && creds.UserID != userID {
		g.log.Warn("token owner mismatch", "claimed", creds.UserID, "actual", userID)
		return Identity{}, fmt.Errorf("%w: token does not belong to user %q", apperrors.ErrUnauthorized, creds.UserID)
	}

	if creds.ConversationID != "" {
		if err := domain.EnsureObjectID(creds.ConversationID); err != nil {
			return Identity{}, err
		}
	}

	return Identity{UserID: userID, ConversationID: creds.ConversationID}, nil
}
