package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	apperrors "chat-relay/errors"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

type IChatService interface {
	CreateConversation(ctx context.Context, title string) (domain.Conversation, error)
	SubscribeToConversation(ctx context.Context, conversationID, userID domain.ID) (domain.Subscription, error)
	UnsubscribeFromConversation(ctx context.Context, conversationID, userID domain.ID) error
	GetMySubscription(ctx context.Context, conversationID, userID domain.ID) (domain.Subscription, error)
	GetConversationWithMessages(ctx context.Context, conversationID domain.ID) (event.ConversationPayload, error)
	SendMessage(ctx context.Context, conversationID domain.ID, author domain.Author, content string) (domain.Message, error)
	RemoveMessage(ctx context.Context, messageID domain.ID, userID domain.ID) error
	NotifyUser(ctx context.Context, userID domain.ID, payload event.Payload) error
}

type ChatService struct {
	log           *slog.Logger
	conversations *repositories.ConversationRepository
	messages      *repositories.MessageRepository
	subscriptions *repositories.SubscriptionRepository
	propagator    contract.IPropagator
	messageLimit  int
}

func NewChatService(
	log *slog.Logger,
	conversations *repositories.ConversationRepository,
	messages *repositories.MessageRepository,
	subscriptions *repositories.SubscriptionRepository,
	propagator contract.IPropagator,
	messageLimit int,
) *ChatService {
	return &ChatService{
		log:           log,
		conversations: conversations,
		messages:      messages,
		subscriptions: subscriptions,
		propagator:    propagator,
		messageLimit:  messageLimit,
	}
}

func (s *ChatService) CreateConversation(ctx context.Context, title string) (domain.Conversation, error) {
	if title == "" {
		return domain.Conversation{}, fmt.Errorf("%w: conversation title is empty", apperrors.ErrArgument)
	}
	return s.conversations.Insert(ctx, domain.NewConversation(title))
}

// SubscribeToConversation is idempotent: joining a conversation twice
// hands back the existing membership. A join announcement goes out to the
// whole conversation as a system message.
func (s *ChatService) SubscribeToConversation(ctx context.Context, conversationID, userID domain.ID) (domain.Subscription, error) {
	if _, err := s.conversations.GetByID(ctx, conversationID); err != nil {
		return domain.Subscription{}, err
	}

	existing, found, err := s.subscriptions.TryGetByConversationAndUser(ctx, conversationID, userID)
	if err != nil {
		return domain.Subscription{}, err
	}
	if found {
		return existing, nil
	}

	subscription, err := s.subscriptions.Insert(ctx, domain.NewSubscription(conversationID, userID))
	if err != nil {
		return domain.Subscription{}, err
	}

	s.announce(ctx, conversationID, fmt.Sprintf("user %s joined", userID))
	return subscription, nil
}

func (s *ChatService) UnsubscribeFromConversation(ctx context.Context, conversationID, userID domain.ID) error {
	subscription, found, err := s.subscriptions.TryGetByConversationAndUser(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: user %q is not subscribed to conversation %q", apperrors.ErrNotFound, userID, conversationID)
	}
	if err := s.subscriptions.DeleteByID(ctx, subscription.ID); err != nil {
		return err
	}

	s.announce(ctx, conversationID, fmt.Sprintf("user %s left", userID))
	return nil
}

func (s *ChatService) GetMySubscription(ctx context.Context, conversationID, userID domain.ID) (domain.Subscription, error) {
	subscription, found, err := s.subscriptions.TryGetByConversationAndUser(ctx, conversationID, userID)
	if err != nil {
		return domain.Subscription{}, err
	}
	if !found {
		return domain.Subscription{}, fmt.Errorf("%w: user %q is not subscribed to conversation %q", apperrors.ErrNotFound, userID, conversationID)
	}
	return subscription, nil
}

// GetConversationWithMessages returns the join snapshot: the conversation
// and its newest messages, capped by the configured limit.
func (s *ChatService) GetConversationWithMessages(ctx context.Context, conversationID domain.ID) (event.ConversationPayload, error) {
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return event.ConversationPayload{}, err
	}
	messages, err := s.messages.GetByConversation(ctx, conversationID, s.messageLimit)
	if err != nil {
		return event.ConversationPayload{}, err
	}
	return event.ConversationPayload{
		ID:    conversation.ID.String(),
		Title: conversation.Title,
		Messages: lo.Map(messages, func(m domain.Message, _ int) event.MessagePayload {
			return messageToPayload(m)
		}),
	}, nil
}

// SendMessage persists the message first, then fans it out. Persistence
// failures reach the caller; a fanout miss only gets logged, the message
// is already durable.
func (s *ChatService) SendMessage(ctx context.Context, conversationID domain.ID, author domain.Author, content string) (domain.Message, error) {
	if _, err := s.GetMySubscription(ctx, conversationID, author.UserID); err != nil {
		return domain.Message{}, err
	}

	message, err := s.messages.Insert(ctx, domain.NewUserMessage(conversationID, content, author))
	if err != nil {
		return domain.Message{}, err
	}

	s.propagate(ctx, message)
	return message, nil
}

// RemoveMessage soft-deletes one of the caller's own messages.
func (s *ChatService) RemoveMessage(ctx context.Context, messageID domain.ID, userID domain.ID) error {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.Author == nil || message.Author.UserID != userID {
		return fmt.Errorf("%w: message %q does not belong to user %q", apperrors.ErrUnauthorized, messageID, userID)
	}
	_, err = s.messages.SoftDeleteByID(ctx, messageID)
	return err
}

// NotifyUser targets every connection of one user across all processes.
func (s *ChatService) NotifyUser(ctx context.Context, userID domain.ID, payload event.Payload) error {
	if err := domain.EnsureObjectID(userID); err != nil {
		return err
	}
	evt, err := event.New(payload, userID.String(), "")
	if err != nil {
		return err
	}
	if !s.propagator.PropagateEvent(ctx, evt) {
		return fmt.Errorf("%w: notification for user %q was not routable", apperrors.ErrInvalidOperation, userID)
	}
	return nil
}

func (s *ChatService) announce(ctx context.Context, conversationID domain.ID, content string) {
	message, err := s.messages.Insert(ctx, domain.NewSystemMessage(conversationID, content))
	if err != nil {
		s.log.Warn("failed to record announcement", "conversationId", conversationID, "error", err)
		return
	}
	s.propagate(ctx, message)
}

func (s *ChatService) propagate(ctx context.Context, message domain.Message) {
	evt, err := event.New(messageToPayload(message), "", message.ConversationID.String())
	if err != nil {
		s.log.Warn("failed to build message event", "messageId", message.ID, "error", err)
		return
	}
	if !s.propagator.PropagateEvent(ctx, evt) {
		s.log.Warn("message event was not routable", "messageId", message.ID)
	}
}

func messageToPayload(m domain.Message) event.MessagePayload {
	p := event.MessagePayload{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		Type:           string(m.Type),
		Content:        m.Content,
		Edited:         m.Edited,
		CreatedAt:      m.CreatedAt,
	}
	if m.Author != nil {
		p.AuthorName = m.Author.Name
		p.AuthorUserID = m.Author.UserID.String()
	}
	return p
}
