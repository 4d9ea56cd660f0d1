package event

import (
	apperrors "chat-relay/errors"
	"encoding/json"
	"fmt"
	"time"
)

// Name identifies a client-facing event kind.
type Name string

const (
	NewMessage               Name = "new-message"
	ConversationWithMessages Name = "conversation-with-messages"
	ConnectionError          Name = "connection-error"
	SendMessageError         Name = "send-message-error"
)

// DomainEvent is the envelope published on the fanout channels and emitted
// to connected clients. Exactly one of UserID/ConversationID makes it
// routable; ConversationID wins when both are set.
type DomainEvent struct {
	Event          Name            `json:"event"`
	Data           json.RawMessage `json:"data"`
	UserID         string          `json:"userId,omitempty"`
	ConversationID string          `json:"conversationId,omitempty"`
}

// Routable reports whether the fanout has a channel for this event.
func (e DomainEvent) Routable() bool {
	return e.UserID != "" || e.ConversationID != ""
}

// Payload is one of the known event bodies.
type Payload interface {
	EventName() Name
}

// MessagePayload is the body of a new-message event.
type MessagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Type           string    `json:"type"`
	Content        string    `json:"content"`
	AuthorName     string    `json:"authorName,omitempty"`
	AuthorUserID   string    `json:"authorUserId,omitempty"`
	Edited         bool      `json:"edited"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (MessagePayload) EventName() Name { return NewMessage }

// ConversationPayload is emitted once on a successful join.
type ConversationPayload struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Messages []MessagePayload `json:"messages"`
}

func (ConversationPayload) EventName() Name { return ConversationWithMessages }

// ErrorPayload is the only shape an error ever takes on the wire.
type ErrorPayload struct {
	Message string `json:"message"`
	Kind    Name   `json:"-"`
}

func (p ErrorPayload) EventName() Name { return p.Kind }

// RawPayload keeps forward compatibility: an event kind this build does
// not know still round-trips untouched.
type RawPayload struct {
	Name Name
	Data json.RawMessage
}

func (p RawPayload) EventName() Name { return p.Name }

// New builds a routable envelope around a payload.
func New(p Payload, userID, conversationID string) (DomainEvent, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return DomainEvent{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
	}
	return DomainEvent{
		Event:          p.EventName(),
		Data:           data,
		UserID:         userID,
		ConversationID: conversationID,
	}, nil
}

// DecodePayload maps the envelope back onto its typed body, falling back
// to RawPayload for unknown kinds.
func (e DomainEvent) DecodePayload() (Payload, error) {
	switch e.Event {
	case NewMessage:
		var p MessagePayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
		}
		return p, nil
	case ConversationWithMessages:
		var p ConversationPayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
		}
		return p, nil
	case ConnectionError, SendMessageError:
		var p ErrorPayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
		}
		p.Kind = e.Event
		return p, nil
	default:
		return RawPayload{Name: e.Event, Data: e.Data}, nil
	}
}
