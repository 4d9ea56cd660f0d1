package repositories

import (
	"chat-relay/domain"
	"chat-relay/repositories/storage"
	"context"
	"log/slog"
)

type subscriptionSchema struct {
	storage.Meta   `bson:",inline"`
	ConversationID string `bson:"conversationId" json:"conversationId"`
	UserID         string `bson:"userId" json:"userId"`
}

// SubscriptionRepository persists the membership documents. The store
// holds a unique index on (conversationId, userId), so inserting a second
// subscription for the same pair fails with ErrConflict.
type SubscriptionRepository struct {
	*Repository[domain.Subscription, subscriptionSchema]
}

func NewSubscriptionRepository(log *slog.Logger, col storage.Collection[subscriptionSchema]) *SubscriptionRepository {
	return &SubscriptionRepository{
		Repository: NewRepository(
			log,
			storage.CollectionSubscriptions,
			col,
			domain.EnsureObjectID,
			domain.EnsureSubscription,
			func(s domain.Subscription, b domain.Base) subscriptionSchema {
				return subscriptionSchema{
					Meta:           metaOf(b),
					ConversationID: s.ConversationID.String(),
					UserID:         s.UserID.String(),
				}
			},
			func(s subscriptionSchema) (domain.Subscription, error) {
				return domain.Subscription{
					Base:           baseOf(s.Meta),
					ConversationID: domain.ID(s.ConversationID),
					UserID:         domain.ID(s.UserID),
				}, nil
			},
		),
	}
}

// TryGetByConversationAndUser looks up the membership document for one
// user in one conversation.
func (r *SubscriptionRepository) TryGetByConversationAndUser(ctx context.Context, conversationID, userID domain.ID) (domain.Subscription, bool, error) {
	var zero domain.Subscription
	if err := domain.EnsureObjectID(conversationID); err != nil {
		return zero, false, err
	}
	if err := domain.EnsureObjectID(userID); err != nil {
		return zero, false, err
	}
	doc, found, err := r.col.FindOneBy(ctx, storage.Filter{
		"conversationId": conversationID.String(),
		"userId":         userID.String(),
	})
	if err != nil || !found {
		return zero, false, err
	}
	s, err := r.fromSchema(doc)
	if err != nil {
		return zero, false, err
	}
	return s, true, nil
}

// GetByUser returns every subscription held by one user.
func (r *SubscriptionRepository) GetByUser(ctx context.Context, userID domain.ID) ([]domain.Subscription, error) {
	if err := domain.EnsureObjectID(userID); err != nil {
		return nil, err
	}
	docs, err := r.col.FindManyBy(ctx, storage.Filter{"userId": userID.String()})
	if err != nil {
		return nil, err
	}
	return r.fromSchemas(docs)
}

func NewSubscriptionCollection(store storage.Store) storage.Collection[subscriptionSchema] {
	return storage.Open[subscriptionSchema](store, storage.CollectionSubscriptions)
}
