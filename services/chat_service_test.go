package services

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	apperrors "chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newChatFixture(t *testing.T, propagator *mocks.MockIPropagator, limit int) *ChatService {
	log := slog.Default()
	store := newStore(t)
	return NewChatService(
		log,
		repositories.NewConversationRepository(log, repositories.NewConversationCollection(store)),
		repositories.NewMessageRepository(log, repositories.NewMessageCollection(store)),
		repositories.NewSubscriptionRepository(log, repositories.NewSubscriptionCollection(store)),
		propagator,
		limit,
	)
}

func TestChatService_CreateConversation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	svc := newChatFixture(t, mocks.NewMockIPropagator(ctrl), 0)

	conversation, err := svc.CreateConversation(ctx, "design review")
	req.NoError(err)
	req.NotEmpty(conversation.ID)

	_, err = svc.CreateConversation(ctx, "")
	req.ErrorIs(err, apperrors.ErrArgument)
}

func TestChatService_Subscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("should create the membership and announce the join", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		propagator := mocks.NewMockIPropagator(ctrl)
		svc := newChatFixture(t, propagator, 0)
		conversation, err := svc.CreateConversation(ctx, "design review")
		req.NoError(err)
		userID := domain.NewID()

		propagator.EXPECT().
			PropagateEvent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, evt event.DomainEvent) bool {
				req.Equal(event.NewMessage, evt.Event)
				req.Equal(conversation.ID.String(), evt.ConversationID)
				return true
			}).
			Times(1)

		subscription, err := svc.SubscribeToConversation(ctx, conversation.ID, userID)

		req.NoError(err)
		req.Equal(conversation.ID, subscription.ConversationID)
		req.Equal(userID, subscription.UserID)
	})

	t.Run("should hand back the existing membership on a second join", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		propagator := mocks.NewMockIPropagator(ctrl)
		propagator.EXPECT().PropagateEvent(gomock.Any(), gomock.Any()).Return(true).Times(1)
		svc := newChatFixture(t, propagator, 0)
		conversation, err := svc.CreateConversation(ctx, "design review")
		req.NoError(err)
		userID := domain.NewID()

		first, err := svc.SubscribeToConversation(ctx, conversation.ID, userID)
		req.NoError(err)
		second, err := svc.SubscribeToConversation(ctx, conversation.ID, userID)
		req.NoError(err)

		req.Equal(first.ID, second.ID)
	})

	t.Run("should fail for an unknown conversation", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		svc := newChatFixture(t, mocks.NewMockIPropagator(ctrl), 0)

		_, err := svc.SubscribeToConversation(ctx, domain.NewID(), domain.NewID())

		req.ErrorIs(err, apperrors.ErrNotFound)
	})
}

func TestChatService_Unsubscribe(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	propagator := mocks.NewMockIPropagator(ctrl)
	propagator.EXPECT().PropagateEvent(gomock.Any(), gomock.Any()).Return(true).AnyTimes()
	svc := newChatFixture(t, propagator, 0)
	conversation, err := svc.CreateConversation(ctx, "design review")
	req.NoError(err)
	userID := domain.NewID()
	_, err = svc.SubscribeToConversation(ctx, conversation.ID, userID)
	req.NoError(err)

	req.NoError(svc.UnsubscribeFromConversation(ctx, conversation.ID, userID))

	_, err = svc.GetMySubscription(ctx, conversation.ID, userID)
	req.ErrorIs(err, apperrors.ErrNotFound)
	err = svc.UnsubscribeFromConversation(ctx, conversation.ID, userID)
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func TestChatService_SendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist and fan out the message", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		propagator := mocks.NewMockIPropagator(ctrl)
		propagator.EXPECT().PropagateEvent(gomock.Any(), gomock.Any()).Return(true).AnyTimes()
		svc := newChatFixture(t, propagator, 0)
		conversation, err := svc.CreateConversation(ctx, "design review")
		req.NoError(err)
		author := domain.Author{UserID: domain.NewID(), Name: "alice"}
		_, err = svc.SubscribeToConversation(ctx, conversation.ID, author.UserID)
		req.NoError(err)

		message, err := svc.SendMessage(ctx, conversation.ID, author, "hello")

		req.NoError(err)
		req.Equal(domain.MessageTypeUser, message.Type)

		snapshot, err := svc.GetConversationWithMessages(ctx, conversation.ID)
		req.NoError(err)
		req.Equal("hello", snapshot.Messages[len(snapshot.Messages)-1].Content)
		req.Equal("alice", snapshot.Messages[len(snapshot.Messages)-1].AuthorName)
	})

	t.Run("should reject a sender without a subscription", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		svc := newChatFixture(t, mocks.NewMockIPropagator(ctrl), 0)
		conversation, err := svc.CreateConversation(ctx, "design review")
		req.NoError(err)

		_, err = svc.SendMessage(ctx, conversation.ID, domain.Author{UserID: domain.NewID(), Name: "mallory"}, "hello")

		req.ErrorIs(err, apperrors.ErrNotFound)
	})
}

func TestChatService_Snapshot_Respects_Message_Limit(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	propagator := mocks.NewMockIPropagator(ctrl)
	propagator.EXPECT().PropagateEvent(gomock.Any(), gomock.Any()).Return(true).AnyTimes()
	svc := newChatFixture(t, propagator, 2)
	conversation, err := svc.CreateConversation(ctx, "design review")
	req.NoError(err)
	author := domain.Author{UserID: domain.NewID(), Name: "alice"}
	_, err = svc.SubscribeToConversation(ctx, conversation.ID, author.UserID)
	req.NoError(err)
	for _, content := range []string{"one", "two", "three"} {
		_, err = svc.SendMessage(ctx, conversation.ID, author, content)
		req.NoError(err)
	}

	snapshot, err := svc.GetConversationWithMessages(ctx, conversation.ID)

	req.NoError(err)
	req.Len(snapshot.Messages, 2)
	req.Equal("three", snapshot.Messages[1].Content)
}

func TestChatService_RemoveMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	propagator := mocks.NewMockIPropagator(ctrl)
	propagator.EXPECT().PropagateEvent(gomock.Any(), gomock.Any()).Return(true).AnyTimes()
	svc := newChatFixture(t, propagator, 0)
	conversation, err := svc.CreateConversation(ctx, "design review")
	req.NoError(err)
	author := domain.Author{UserID: domain.NewID(), Name: "alice"}
	_, err = svc.SubscribeToConversation(ctx, conversation.ID, author.UserID)
	req.NoError(err)
	message, err := svc.SendMessage(ctx, conversation.ID, author, "regrettable")
	req.NoError(err)

	err = svc.RemoveMessage(ctx, message.ID, domain.NewID())
	req.ErrorIs(err, apperrors.ErrUnauthorized)

	req.NoError(svc.RemoveMessage(ctx, message.ID, author.UserID))
	snapshot, err := svc.GetConversationWithMessages(ctx, conversation.ID)
	req.NoError(err)
	for _, m := range snapshot.Messages {
		req.NotEqual(message.ID.String(), m.ID)
	}
}

func TestChatService_NotifyUser(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	propagator := mocks.NewMockIPropagator(ctrl)
	svc := newChatFixture(t, propagator, 0)
	userID := domain.NewID()

	propagator.EXPECT().
		PropagateEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, evt event.DomainEvent) bool {
			req.Equal(userID.String(), evt.UserID)
			req.Empty(evt.ConversationID)
			return true
		}).
		Times(1)

	err := svc.NotifyUser(ctx, userID, event.ErrorPayload{Message: "maintenance at noon", Kind: event.ConnectionError})
	req.NoError(err)

	err = svc.NotifyUser(ctx, "bad-id", event.ErrorPayload{Message: "x", Kind: event.ConnectionError})
	req.ErrorIs(err, apperrors.ErrArgument)
}
