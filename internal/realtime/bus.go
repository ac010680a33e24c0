package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisChannelPrefix = "notify:"

// Bus carries envelopes from publishers to every registry that serves the
// envelope's topic.
type Bus interface {
	Publish(ctx context.Context, env Envelope) error
}

type Deliverer interface {
	Deliver(ctx context.Context, env Envelope) int
}

// LocalBus delivers straight into the registry of this process.
type LocalBus struct {
	target Deliverer
}

func NewLocalBus(target Deliverer) *LocalBus {
	return &LocalBus{target: target}
}

func (b *LocalBus) Publish(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.target.Deliver(ctx, env)
	return nil
}

// RedisBus fans envelopes out through Redis pub/sub so every instance's
// registry sees them. Run must be started for local delivery.
type RedisBus struct {
	client *redis.Client
	target Deliverer
	logger *zap.Logger
}

func NewRedisBus(client *redis.Client, target Deliverer, logger *zap.Logger) *RedisBus {
	return &RedisBus{client: client, target: target, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	return b.client.Publish(ctx, redisChannelPrefix+env.Topic, payload).Err()
}

// Run subscribes to every notification channel and feeds the registry until
// ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, redisChannelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	b.logger.Info("subscribed to notification bus", zap.String("pattern", redisChannelPrefix+"*"))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(ctx, msg)
		}
	}
}

func (b *RedisBus) handle(ctx context.Context, msg *redis.Message) {
	var env Envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		b.logger.Warn("discarding malformed envelope", zap.String("channel", msg.Channel), zap.Error(err))
		return
	}
	if env.Topic == "" {
		env.Topic = strings.TrimPrefix(msg.Channel, redisChannelPrefix)
	}
	b.target.Deliver(ctx, env)
}
