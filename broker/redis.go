package broker

import (
	"context"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

// Redis is the shared pub/sub transport between processes. A dedicated
// subscriber client keeps subscriptions off the publishing connection,
// which Redis requires anyway once a connection enters subscribe mode.
type Redis struct {
	log        *slog.Logger
	publisher  *redis.Client
	subscriber *redis.Client
	buffer     int
}

func NewRedis(log *slog.Logger, addr, password string, buffer int) *Redis {
	return &Redis{
		log:        log,
		publisher:  redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		subscriber: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		buffer:     buffer,
	}
}

// Ping verifies both connections at startup.
func (b *Redis) Ping(ctx context.Context) error {
	if err := b.publisher.Ping(ctx).Err(); err != nil {
		return err
	}
	return b.subscriber.Ping(ctx).Err()
}

func (b *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.publisher.Publish(ctx, channel, payload).Err()
}

// Subscribe confirms the subscription before returning, then pumps
// messages until ctx is canceled. Redis preserves per-channel publish
// order, so the returned channel does too.
func (b *Redis) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	pubsub := b.subscriber.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan []byte, b.buffer)
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *Redis) Close() error {
	if err := b.publisher.Close(); err != nil {
		b.log.Warn("Closing publisher failed", "error", err)
	}
	return b.subscriber.Close()
}
