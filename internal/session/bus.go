package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/teemow/tagdeck/internal/logging"
)

// EventType is the kind of a session change.
type EventType string

const (
	SignedIn       EventType = "signed_in"
	SignedOut      EventType = "signed_out"
	TokenRefreshed EventType = "token_refreshed"
)

// Event is one session change.
type Event struct {
	Type   EventType `json:"type"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

// Bus distributes session change events to every listener.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe registers fn and returns a function removing it. fn must not block.
	Subscribe(fn func(Event)) (unsubscribe func())
	Close() error
}

// LocalBus is an in-process Bus.
type LocalBus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Event)
}

var _ Bus = (*LocalBus)(nil)

// NewLocalBus creates an in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]func(Event))}
}

// Publish delivers ev synchronously to every subscriber.
func (b *LocalBus) Publish(_ context.Context, ev Event) error {
	b.dispatch(ev)
	return nil
}

func (b *LocalBus) dispatch(ev Event) {
	b.mu.RLock()
	subs := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Subscribe registers fn.
func (b *LocalBus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Close removes every subscriber.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[int]func(Event))
	return nil
}

// DefaultChannel is the Redis channel session events are published on.
const DefaultChannel = "tagdeck:session"

// RedisBus shares session events between instances over Redis pub/sub. Events
// published by any instance, this one included, reach local subscribers through
// the subscription.
type RedisBus struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	channel string
	local   *LocalBus
	logger  *slog.Logger
	done    chan struct{}
}

var _ Bus = (*RedisBus)(nil)

// NewRedisBus connects to the Redis server at url and subscribes to channel.
func NewRedisBus(ctx context.Context, url, channel string, logger *slog.Logger) (*RedisBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if channel == "" {
		channel = DefaultChannel
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		client.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	b := &RedisBus{
		client:  client,
		pubsub:  pubsub,
		channel: channel,
		local:   NewLocalBus(),
		logger:  logging.WithService(logger, "session_bus"),
		done:    make(chan struct{}),
	}
	go b.run()
	return b, nil
}

func (b *RedisBus) run() {
	defer close(b.done)
	for msg := range b.pubsub.Channel() {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			b.logger.Warn("dropping malformed session event", logging.Err(err))
			continue
		}
		b.local.dispatch(ev)
	}
}

// Publish sends ev to every instance.
func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode session event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish session event: %w", err)
	}
	return nil
}

// Subscribe registers fn.
func (b *RedisBus) Subscribe(fn func(Event)) func() {
	return b.local.Subscribe(fn)
}

// Close ends the subscription and the connection.
func (b *RedisBus) Close() error {
	err := b.pubsub.Close()
	<-b.done
	b.local.Close()
	if cerr := b.client.Close(); err == nil {
		err = cerr
	}
	return err
}
