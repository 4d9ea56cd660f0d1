package domain

// Subscription ties a user to a conversation. One document per pair; the
// store enforces uniqueness on (conversationId, userId).
type Subscription struct {
	Base
	ConversationID ID
	UserID         ID
}

func NewSubscription(conversationID, userID ID) Subscription {
	return Subscription{Base: NewBase(), ConversationID: conversationID, UserID: userID}
}

func (s Subscription) Meta() Base { return s.Base }

func EnsureSubscription(s Subscription) error {
	if err := EnsureObjectID(s.ConversationID); err != nil {
		return err
	}
	return EnsureObjectID(s.UserID)
}
