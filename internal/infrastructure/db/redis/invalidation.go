package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/query"
)

// invalidation is the payload published on the bus channel.
type invalidation struct {
	Origin string   `json:"origin"`
	Keys   []string `json:"keys"`
}

// InvalidationBus fans query invalidations out to every runtime instance
// subscribed to the same channel. It implements query.Broadcaster.
type InvalidationBus struct {
	client  *redis.Client
	channel string
	origin  string
	log     zerolog.Logger
}

var _ query.Broadcaster = (*InvalidationBus)(nil)

// NewInvalidationBus creates a bus on channel. Every bus gets its own origin
// id so it can ignore its own messages.
func NewInvalidationBus(client *redis.Client, channel string, log zerolog.Logger) *InvalidationBus {
	return &InvalidationBus{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		log:     log,
	}
}

// Origin returns the id stamped on messages published by this bus.
func (b *InvalidationBus) Origin() string {
	return b.origin
}

// Publish sends keys to the other instances.
func (b *InvalidationBus) Publish(ctx context.Context, keys []query.Key) error {
	msg := invalidation{Origin: b.origin, Keys: make([]string, 0, len(keys))}
	for _, k := range keys {
		msg.Keys = append(msg.Keys, k.String())
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Listen subscribes to the channel and hands every foreign invalidation to
// apply, usually (*query.Cache).InvalidateLocal. It blocks until ctx is done.
func (b *InvalidationBus) Listen(ctx context.Context, apply func(keys ...query.Key) int) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info().Str("channel", b.channel).Str("origin", b.origin).Msg("invalidation bus listening")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(m.Payload, apply)
		}
	}
}

func (b *InvalidationBus) handle(payload string, apply func(keys ...query.Key) int) {
	var msg invalidation
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		b.log.Warn().Err(err).Msg("dropping malformed invalidation")
		return
	}
	if msg.Origin == b.origin {
		return
	}
	keys := make([]query.Key, 0, len(msg.Keys))
	for _, s := range msg.Keys {
		k, err := query.ParseKey(s)
		if err != nil {
			b.log.Warn().Err(err).Str("key", s).Msg("dropping malformed invalidation key")
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return
	}
	n := apply(keys...)
	b.log.Debug().Str("from", msg.Origin).Int("keys", len(keys)).Int("entries", n).Msg("applied remote invalidation")
}
