// Package broker wraps the Redis pub/sub client behind the consumer's
// bounded-poll subscription contract. Delivery is fire-and-forget: there is
// no acknowledgement or redelivery, and messages published while the worker
// is not subscribed are lost.
package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect parses a Redis URL, connects, and verifies the connection.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// Subscription adapts a redis PubSub handle to the worker's Subscription
// interface.
type Subscription struct {
	pubsub  *redis.PubSub
	channel string
}

// Subscribe attaches to channel and waits for the subscription
// acknowledgement before returning, so a successful return means the worker
// is actually receiving.
func Subscribe(ctx context.Context, client *redis.Client, channel string) (*Subscription, error) {
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", channel, err)
	}
	return &Subscription{pubsub: pubsub, channel: channel}, nil
}

// Next waits up to timeout for one delivery. Poll timeouts and non-data
// control messages (subscription acks, pongs) return ok=false with no error.
func (s *Subscription) Next(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	msg, err := s.pubsub.ReceiveTimeout(ctx, timeout)
	if err != nil {
		if isPollTimeout(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	switch m := msg.(type) {
	case *redis.Message:
		return []byte(m.Payload), true, nil
	default:
		return nil, false, nil
	}
}

// Close unsubscribes and releases the pub/sub handle.
func (s *Subscription) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.pubsub.Unsubscribe(ctx, s.channel); err != nil {
		_ = s.pubsub.Close()
		return fmt.Errorf("unsubscribing from %s: %w", s.channel, err)
	}
	return s.pubsub.Close()
}

func isPollTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
