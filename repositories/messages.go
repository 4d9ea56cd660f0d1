package repositories

import (
	"chat-relay/domain"
	"chat-relay/repositories/storage"
	"context"
	"log/slog"

	"github.com/samber/lo"
)

type authorSchema struct {
	UserID string `bson:"userId" json:"userId"`
	Name   string `bson:"name" json:"name"`
}

type messageSchema struct {
	storage.Meta   `bson:",inline"`
	ConversationID string        `bson:"conversationId" json:"conversationId"`
	Type           string        `bson:"type" json:"type"`
	Content        string        `bson:"content" json:"content"`
	Author         *authorSchema `bson:"author,omitempty" json:"author,omitempty"`
	Edited         bool          `bson:"edited" json:"edited"`
}

// MessageRepository persists conversation messages. Deletion is soft: the
// document stays as an audit record and the read paths skip it.
type MessageRepository struct {
	*SoftRepository[domain.Message, messageSchema]
}

func NewMessageRepository(log *slog.Logger, col storage.Collection[messageSchema]) *MessageRepository {
	return &MessageRepository{
		SoftRepository: NewSoftRepository(NewRepository(
			log,
			storage.CollectionMessages,
			col,
			domain.EnsureObjectID,
			domain.EnsureMessage,
			messageToSchema,
			messageFromSchema,
		)),
	}
}

func messageToSchema(m domain.Message, b domain.Base) messageSchema {
	s := messageSchema{
		Meta:           metaOf(b),
		ConversationID: m.ConversationID.String(),
		Type:           string(m.Type),
		Content:        m.Content,
		Edited:         m.Edited,
	}
	if m.Author != nil {
		s.Author = &authorSchema{UserID: m.Author.UserID.String(), Name: m.Author.Name}
	}
	return s
}

func messageFromSchema(s messageSchema) (domain.Message, error) {
	m := domain.Message{
		Base:           baseOf(s.Meta),
		ConversationID: domain.ID(s.ConversationID),
		Type:           domain.MessageType(s.Type),
		Content:        s.Content,
		Edited:         s.Edited,
	}
	if s.Author != nil {
		m.Author = &domain.Author{UserID: domain.ID(s.Author.UserID), Name: s.Author.Name}
	}
	return m, nil
}

// GetByConversation returns the live messages of a conversation oldest
// first. A non-positive limit returns everything; otherwise only the
// newest limit messages are kept.
func (r *MessageRepository) GetByConversation(ctx context.Context, conversationID domain.ID, limit int) ([]domain.Message, error) {
	if err := domain.EnsureObjectID(conversationID); err != nil {
		return nil, err
	}
	docs, err := r.col.FindManyBy(ctx, storage.Filter{"conversationId": conversationID.String()})
	if err != nil {
		return nil, err
	}
	messages, err := r.fromSchemas(docs)
	if err != nil {
		return nil, err
	}
	alive := lo.Filter(messages, func(m domain.Message, _ int) bool { return !m.Deleted })
	if limit > 0 && len(alive) > limit {
		alive = alive[len(alive)-limit:]
	}
	return alive, nil
}

func NewMessageCollection(store storage.Store) storage.Collection[messageSchema] {
	return storage.Open[messageSchema](store, storage.CollectionMessages)
}
