package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceKey = "presence:online"

// RedisPresenceStore keeps online users in a single ZSet scored by the last
// heartbeat unix time. Stale members are pruned on read, so a crashed
// instance's users fall out after the TTL window without any cleanup job.
type RedisPresenceStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPresenceStore(rdb *redis.Client, ttl time.Duration) *RedisPresenceStore {
	return &RedisPresenceStore{
		rdb: rdb,
		ttl: ttl,
	}
}

func (p *RedisPresenceStore) UpdateOnlineStatus(
	ctx context.Context,
	userID string,
	ttl time.Duration,
) error {
	now := time.Now().Unix()
	err := p.rdb.ZAdd(ctx, presenceKey, redis.Z{
		Score:  float64(now),
		Member: userID,
	}).Err()
	if err != nil {
		return err
	}
	// Expire the whole set so an idle deployment doesn't leak the key.
	return p.rdb.Expire(ctx, presenceKey, ttl*2).Err()
}

func (p *RedisPresenceStore) MarkOffline(ctx context.Context, userID string) error {
	return p.rdb.ZRem(ctx, presenceKey, userID).Err()
}

func (p *RedisPresenceStore) ListOnline(ctx context.Context) ([]string, error) {
	threshold := time.Now().Add(-p.ttl).Unix()

	// Self-cleaning: drop members whose heartbeat fell out of the window.
	p.rdb.ZRemRangeByScore(ctx, presenceKey, "-inf", strconv.FormatInt(threshold, 10))

	return p.rdb.ZRange(ctx, presenceKey, 0, -1).Result()
}
