package repositories

import (
	"chat-relay/domain"
	"chat-relay/repositories/storage"
	"log/slog"
)

type conversationSchema struct {
	storage.Meta `bson:",inline"`
	Title        string `bson:"title" json:"title"`
}

// ConversationRepository persists chat rooms.
type ConversationRepository struct {
	*Repository[domain.Conversation, conversationSchema]
}

func NewConversationRepository(log *slog.Logger, col storage.Collection[conversationSchema]) *ConversationRepository {
	return &ConversationRepository{
		Repository: NewRepository(
			log,
			storage.CollectionConversations,
			col,
			domain.EnsureObjectID,
			func(domain.Conversation) error { return nil },
			func(c domain.Conversation, b domain.Base) conversationSchema {
				return conversationSchema{Meta: metaOf(b), Title: c.Title}
			},
			func(s conversationSchema) (domain.Conversation, error) {
				return domain.Conversation{Base: baseOf(s.Meta), Title: s.Title}, nil
			},
		),
	}
}

// NewConversationCollection binds the schema to a store backend.
func NewConversationCollection(store storage.Store) storage.Collection[conversationSchema] {
	return storage.Open[conversationSchema](store, storage.CollectionConversations)
}
