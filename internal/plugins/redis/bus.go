package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisEventBus is the pub/sub backplane between relay instances. Redis
// pub/sub is fire-and-forget with no replay, which matches the relay's
// at-most-once delivery semantics exactly.
type RedisEventBus struct {
	rdb *redis.Client
}

func NewRedisEventBus(rdb *redis.Client) *RedisEventBus {
	return &RedisEventBus{rdb: rdb}
}

func (b *RedisEventBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.rdb.Publish(ctx, channel, payload).Err()
}

func (b *RedisEventBus) Subscribe(
	ctx context.Context,
	channel string,
	handler func(ctx context.Context, data []byte) error,
) error {
	pubsub := b.rdb.Subscribe(ctx, channel)
	// Confirm the subscription before returning so a publish racing the
	// startup isn't silently missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := handler(ctx, []byte(msg.Payload)); err != nil {
					slog.Warn("redis bus - handler error", "channel", channel, "err", err)
				}
			}
		}
	}()
	return nil
}
