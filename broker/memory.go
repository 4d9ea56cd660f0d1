package broker

import (
	"context"
	"sync"
)

// Memory is an in-process broker with the same contract as Redis. It
// backs single-process runs and tests; every subscriber of a channel
// receives every message, in publish order.
type Memory struct {
	mu          sync.RWMutex
	buffer      int
	subscribers map[string][]chan []byte
}

func NewMemory(buffer int) *Memory {
	return &Memory{buffer: buffer, subscribers: make(map[string][]chan []byte)}
}

func (b *Memory) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers[channel] {
		// Slow consumers lose messages instead of blocking the
		// publisher, matching the best-effort fanout contract.
		select {
		case sub <- payload:
		default:
		}
	}
	return nil
}

func (b *Memory) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := make(chan []byte, b.buffer)

	b.mu.Lock()
	b.subscribers[channel] = append(b.subscribers[channel], sub)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		subs := b.subscribers[channel]
		for i, s := range subs {
			if s == sub {
				b.subscribers[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		close(sub)
	}()
	return sub, nil
}
