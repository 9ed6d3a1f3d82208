package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	pkglog "github.com/beeline-social/engagement-core/pkg/log"
)

// subscriptionBuffer bounds how many undelivered events a slow subscriber can
// hold before newer ones are dropped.
const subscriptionBuffer = 100

// RedisPubSub carries live per-user events over Redis channels. It implements
// both Publisher and Subscriber: the notifier publishes on a recipient's
// channel and the stream endpoint subscribes to it.
type RedisPubSub struct {
	client *redis.Client

	mu   sync.Mutex
	subs map[string]*redis.PubSub
}

// NewRedisPubSub connects to Redis and verifies the connection.
func NewRedisPubSub(cfg RedisConfig) (*RedisPubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPubSub{
		client: client,
		subs:   make(map[string]*redis.PubSub),
	}, nil
}

// Publish sends one event to every current subscriber of the channel.
// Delivery is at-most-once: a recipient with no open subscription misses the
// event and catches up from the persisted notification list.
func (r *RedisPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe opens a subscription on channel. The returned channel closes when
// ctx is canceled or Unsubscribe is called. Subscribing twice to the same
// channel replaces the earlier subscription.
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.subs[channel]; ok {
		prev.Close()
	}
	sub := r.client.Subscribe(ctx, channel)
	r.subs[channel] = sub

	events := make(chan *Event, subscriptionBuffer)
	go r.forward(ctx, channel, sub, events)
	return events, nil
}

// Unsubscribe closes the subscription on channel, if any.
func (r *RedisPubSub) Unsubscribe(_ context.Context, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[channel]
	if !ok {
		return nil
	}
	delete(r.subs, channel)
	return sub.Close()
}

// Close drops every open subscription and the client connection.
func (r *RedisPubSub) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.subs {
		sub.Close()
	}
	r.subs = make(map[string]*redis.PubSub)
	return r.client.Close()
}

// forward decodes raw Redis messages onto the event channel until the
// subscription closes. Events that do not fit the buffer are dropped.
func (r *RedisPubSub) forward(ctx context.Context, channel string, sub *redis.PubSub, events chan<- *Event) {
	defer close(events)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				l := pkglog.L()
				l.Warn().Err(err).Str("channel", channel).Msg("dropping undecodable live event")
				continue
			}
			select {
			case events <- &event:
			case <-ctx.Done():
				return
			default:
			}
		}
	}
}
