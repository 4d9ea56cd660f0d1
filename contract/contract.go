//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"encoding/json"
	"reflect"
)

// IRegistry is the per-process connection index. It only ever sees the
// connections this process accepted; cross-process visibility goes through
// the fanout channels.
type IRegistry interface {
	Add(connID string, userID, conversationID domain.ID) error
	Remove(connID string, userID, conversationID domain.ID) error
	GetByUser(userID domain.ID) []string
	GetByConversation(conversationID domain.ID) []string
	GetAllUserConnections() []string
	GetAllConversationConnections() []string
}

// Transport delivers an event straight to a locally attached connection.
// Unknown connection ids are ignored: a socket gone between publish and
// dispatch simply receives nothing.
type Transport interface {
	Emit(connID string, name event.Name, data json.RawMessage)
}

// IPropagator bridges local delivery with cross-process delivery.
type IPropagator interface {
	// PropagateEvent publishes to exactly one channel. Returns false
	// without publishing when the event carries no routing key.
	PropagateEvent(ctx context.Context, evt event.DomainEvent) bool
	// InjectTransport binds the live transport handle. Channel messages
	// arriving before injection are silently dropped.
	InjectTransport(t Transport)
}

// Broker is the shared publish/subscribe channel. Every subscribed
// process receives every message (fan-out, not work-stealing).
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe returns a channel that closes when ctx is canceled or the
	// underlying subscription dies.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// TokenValidator resolves a bearer token to the user it was issued to.
// Missing, unknown and expired tokens all come back as ErrUnauthorized.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (domain.ID, error)
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
