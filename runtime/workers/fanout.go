package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Logical pub/sub channels shared by every process. Channel selection is
// exclusively by routing key: conversationId wins over userId.
const (
	ChannelEmitToConversation = "emit-to-conversation"
	ChannelNotifyUser         = "notify-user"
)

// Propagator turns local registry lookups into cross-process delivery.
// Publishing goes straight to the broker; consuming happens in the two
// FanoutWorkers it spawns, one receive loop per channel.
type Propagator struct {
	log      *slog.Logger
	broker   contract.Broker
	registry contract.IRegistry

	mu        sync.RWMutex
	transport contract.Transport
}

func NewPropagator(log *slog.Logger, broker contract.Broker, registry contract.IRegistry) *Propagator {
	return &Propagator{log: log, broker: broker, registry: registry}
}

// InjectTransport binds the live transport handle used for direct
// delivery. Until this is called, inbound channel messages are dropped;
// that race at process startup is accepted, not fatal.
func (p *Propagator) InjectTransport(t contract.Transport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transport = t
}

func (p *Propagator) currentTransport() contract.Transport {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.transport
}

// PropagateEvent publishes the event to exactly one channel. An event
// with neither routing key is a no-op and returns false.
func (p *Propagator) PropagateEvent(ctx context.Context, evt event.DomainEvent) bool {
	if !evt.Routable() {
		return false
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		p.log.Error("Dropping unserializable event", "event", evt.Event, "error", err)
		return false
	}

	channel := ChannelNotifyUser
	if evt.ConversationID != "" {
		channel = ChannelEmitToConversation
	}
	if err := p.broker.Publish(ctx, channel, payload); err != nil {
		// Best effort: connected clients of other processes miss this
		// one, the caller's write already succeeded.
		p.log.Warn("Publish failed", "channel", channel, "event", evt.Event, "error", err)
	}
	return true
}

// Workers returns the two channel consumers to hand to the supervisor.
func (p *Propagator) Workers() []contract.Worker {
	return []contract.Worker{
		&FanoutWorker{
			log:       p.log,
			broker:    p.broker,
			channel:   ChannelEmitToConversation,
			resolve:   p.resolveConversation,
			transport: p.currentTransport,
		},
		&FanoutWorker{
			log:       p.log,
			broker:    p.broker,
			channel:   ChannelNotifyUser,
			resolve:   p.resolveUser,
			transport: p.currentTransport,
		},
	}
}

func (p *Propagator) resolveConversation(evt event.DomainEvent) []string {
	if evt.ConversationID == "" {
		return nil
	}
	return p.registry.GetByConversation(domain.ID(evt.ConversationID))
}

func (p *Propagator) resolveUser(evt event.DomainEvent) []string {
	if evt.UserID == "" {
		return nil
	}
	return p.registry.GetByUser(domain.ID(evt.UserID))
}

// FanoutWorker consumes one pub/sub channel and emits every received
// event on the matching local connections. It owns its receive loop, so
// canceling the worker context is a deterministic shutdown.
type FanoutWorker struct {
	log       *slog.Logger
	broker    contract.Broker
	channel   string
	resolve   func(evt event.DomainEvent) []string
	transport func() contract.Transport
}

func (w *FanoutWorker) Run(ctx context.Context) error {
	msgs, err := w.broker.Subscribe(ctx, w.channel)
	if err != nil {
		return err
	}
	w.log.Info("Subscribed", "channel", w.channel)

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel consumer", "channel", w.channel)
			return nil
		case raw, ok := <-msgs:
			if !ok {
				w.log.Debug("Subscription closed", "channel", w.channel)
				return nil
			}
			w.dispatch(raw)
		}
	}
}

func (w *FanoutWorker) dispatch(raw []byte) {
	var evt event.DomainEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		w.log.Warn("Dropping malformed channel payload", "channel", w.channel, "error", err)
		return
	}

	transport := w.transport()
	if transport == nil {
		// Startup race: the channel went live before the transport did.
		w.log.Debug("Transport not injected yet, dropping event", "channel", w.channel, "event", evt.Event)
		return
	}

	for _, connID := range w.resolve(evt) {
		transport.Emit(connID, evt.Event, evt.Data)
	}
}
