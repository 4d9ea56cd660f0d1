package runtime

import (
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"fmt"
	"sync"
)

type Set map[string]struct{}

// Registry indexes the live connections of this process by user and by
// conversation. It is constructed once in main and handed by reference to
// every collaborator; its state never leaves the process. Other processes
// learn nothing from it directly, they only converge through the fanout
// channels.
type Registry struct {
	mu             sync.RWMutex
	byUser         map[domain.ID]Set
	byConversation map[domain.ID]Set
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:         make(map[domain.ID]Set),
		byConversation: make(map[domain.ID]Set),
	}
}

// Add indexes a connection under every routing key it carries. Set
// semantics: re-adding the same connection under the same keys changes
// nothing. A call with neither key is a caller bug, not a no-op.
func (r *Registry) Add(connID string, userID, conversationID domain.ID) error {
	if userID == "" && conversationID == "" {
		return fmt.Errorf("%w: connection %s has no userId or conversationId", apperrors.ErrInvalidOperation, connID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if userID != "" {
		if _, ok := r.byUser[userID]; !ok {
			r.byUser[userID] = make(Set)
		}
		r.byUser[userID][connID] = struct{}{}
	}
	if conversationID != "" {
		if _, ok := r.byConversation[conversationID]; !ok {
			r.byConversation[conversationID] = make(Set)
		}
		r.byConversation[conversationID][connID] = struct{}{}
	}
	return nil
}

// Remove drops a connection from both indexes and cleans up keys whose
// set became empty, so an unknown key never lingers as an empty entry.
func (r *Registry) Remove(connID string, userID, conversationID domain.ID) error {
	if userID == "" && conversationID == "" {
		return fmt.Errorf("%w: connection %s has no userId or conversationId", apperrors.ErrInvalidOperation, connID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if userID != "" {
		if conns, ok := r.byUser[userID]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(r.byUser, userID)
			}
		}
	}
	if conversationID != "" {
		if conns, ok := r.byConversation[conversationID]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(r.byConversation, conversationID)
			}
		}
	}
	return nil
}

// GetByUser returns the connection ids attached for a user. Unknown users
// yield an empty result, never an error.
func (r *Registry) GetByUser(userID domain.ID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.byUser[userID])
}

// GetByConversation returns the connection ids joined to a conversation.
func (r *Registry) GetByConversation(conversationID domain.ID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.byConversation[conversationID])
}

// GetAllUserConnections flattens the user index for diagnostics.
func (r *Registry) GetAllUserConnections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return flatten(r.byUser)
}

// GetAllConversationConnections flattens the conversation index.
func (r *Registry) GetAllConversationConnections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return flatten(r.byConversation)
}

func collect(conns Set) []string {
	out := make([]string, 0, len(conns))
	for id := range conns {
		out = append(out, id)
	}
	return out
}

func flatten(index map[domain.ID]Set) []string {
	var out []string
	for _, conns := range index {
		for id := range conns {
			out = append(out, id)
		}
	}
	return out
}
