package domain

import (
	apperrors "chat-relay/errors"
	"fmt"
)

type MessageType string

const (
	MessageTypeUser   MessageType = "user"
	MessageTypeSystem MessageType = "system"
)

// Author identifies the human sender of a user message. System messages
// carry no author.
type Author struct {
	UserID ID
	Name   string
}

// Message belongs to exactly one conversation. Messages are soft-deleted:
// the audit trail keeps the document, reads filter it out.
type Message struct {
	Base
	ConversationID ID
	Type           MessageType
	Content        string
	Author         *Author
	Edited         bool
}

func NewUserMessage(conversationID ID, content string, author Author) Message {
	return Message{
		Base:           NewBase(),
		ConversationID: conversationID,
		Type:           MessageTypeUser,
		Content:        content,
		Author:         &author,
	}
}

func NewSystemMessage(conversationID ID, content string) Message {
	return Message{
		Base:           NewBase(),
		ConversationID: conversationID,
		Type:           MessageTypeSystem,
		Content:        content,
	}
}

func (m Message) Meta() Base { return m.Base }

// WithContent returns an edited copy carrying the new content.
func (m Message) WithContent(content string) Message {
	m.Content = content
	m.Edited = true
	return m
}

// EnsureMessage is the model shape check the message repository runs
// before any write.
func EnsureMessage(m Message) error {
	if m.Content == "" {
		return fmt.Errorf("%w: message content is empty", apperrors.ErrArgument)
	}
	if err := EnsureObjectID(m.ConversationID); err != nil {
		return err
	}
	switch m.Type {
	case MessageTypeUser:
		if m.Author == nil {
			return fmt.Errorf("%w: user message without author", apperrors.ErrArgument)
		}
		return EnsureObjectID(m.Author.UserID)
	case MessageTypeSystem:
		return nil
	default:
		return fmt.Errorf("%w: unknown message type %q", apperrors.ErrArgument, m.Type)
	}
}
