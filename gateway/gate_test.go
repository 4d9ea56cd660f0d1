package gateway

import (
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/mocks"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestGate_Authenticate(t *testing.T) {
	ctx := context.Background()
	token := "deadbeef"
	owner := domain.NewID()

	t.Run("should reject a missing token without hitting the validator", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		validator := mocks.NewMockTokenValidator(ctrl)
		validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Times(0)
		gate := NewGate(slog.Default(), validator)

		_, err := gate.Authenticate(ctx, Credentials{})

		req.ErrorIs(err, apperrors.ErrUnauthorized)
	})

	t.Run("should propagate a validator rejection", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		validator := mocks.NewMockTokenValidator(ctrl)
		validator.EXPECT().
			Validate(gomock.Any(), token).
			Return(domain.ID(""), fmt.Errorf("%w: expired access token", apperrors.ErrUnauthorized))
		gate := NewGate(slog.Default(), validator)

		_, err := gate.Authenticate(ctx, Credentials{Token: token})

		req.ErrorIs(err, apperrors.ErrUnauthorized)
	})

	t.Run("should reject a client claiming another user", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		validator := mocks.NewMockTokenValidator(ctrl)
		validator.EXPECT().Validate(gomock.Any(), token).Return(owner, nil)
		gate := NewGate(slog.Default(), validator)

		_, err := gate.Authenticate(ctx, Credentials{Token: token, UserID: domain.NewID()})

		req.ErrorIs(err, apperrors.ErrUnauthorized)
	})

	t.Run("should reject a malformed conversation id", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		validator := mocks.NewMockTokenValidator(ctrl)
		validator.EXPECT().Validate(gomock.Any(), token).Return(owner, nil)
		gate := NewGate(slog.Default(), validator)

		_, err := gate.Authenticate(ctx, Credentials{Token: token, ConversationID: "not-hex"})

		req.ErrorIs(err, apperrors.ErrArgument)
	})

	t.Run("should resolve the identity from the token", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		validator := mocks.NewMockTokenValidator(ctrl)
		validator.EXPECT().Validate(gomock.Any(), token).Return(owner, nil)
		gate := NewGate(slog.Default(), validator)
		conversationID := domain.NewID()

		identity, err := gate.Authenticate(ctx, Credentials{
			Token:          token,
			UserID:         owner,
			ConversationID: conversationID,
		})

		req.NoError(err)
		req.Equal(owner, identity.UserID)
		req.Equal(conversationID, identity.ConversationID)
	})
}
