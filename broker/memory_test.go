package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Every_Subscriber_Receives_Every_Message(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := NewMemory(4)

	first, err := b.Subscribe(ctx, "announcements")
	req.NoError(err)
	second, err := b.Subscribe(ctx, "announcements")
	req.NoError(err)
	other, err := b.Subscribe(ctx, "elsewhere")
	req.NoError(err)

	req.NoError(b.Publish(ctx, "announcements", []byte("hello")))

	for _, sub := range []<-chan []byte{first, second} {
		select {
		case msg := <-sub:
			req.Equal("hello", string(msg))
		case <-time.After(time.Second):
			t.Fatal("subscriber missed the message")
		}
	}
	select {
	case <-other:
		t.Fatal("message leaked across channels")
	case <-time.After(50 * time.Millisecond):
	}
}

func Test_Subscription_Closes_On_Cancel(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	b := NewMemory(4)

	sub, err := b.Subscribe(ctx, "announcements")
	req.NoError(err)

	cancel()

	select {
	case _, ok := <-sub:
		req.False(ok)
	case <-time.After(time.Second):
		t.Fatal("subscription did not close")
	}

	// canceled subscriber no longer receives
	req.NoError(b.Publish(context.Background(), "announcements", []byte("late")))
}

func Test_Slow_Subscriber_Drops_Instead_Of_Blocking(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := NewMemory(1)

	sub, err := b.Subscribe(ctx, "busy")
	req.NoError(err)

	req.NoError(b.Publish(ctx, "busy", []byte("one")))
	// buffer full, publish must not block
	req.NoError(b.Publish(ctx, "busy", []byte("two")))

	msg := <-sub
	req.Equal("one", string(msg))
	select {
	case <-sub:
		t.Fatal("overflowed message should have been dropped")
	case <-time.After(50 * time.Millisecond):
	}
}
