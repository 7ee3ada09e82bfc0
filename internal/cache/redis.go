package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Redis backs the Cache interface with Redis, for sharing matrix and
// result caches across multiple optimizer instances. Grounded on the
// teacher's RedisBroker (internal/api/broker_redis.go), which parses
// REDIS_URL the same way.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to the Redis instance described by rawURL (the
// REDIS_URL convention, e.g. "redis://localhost:6379/0").
func NewRedis(rawURL string) (*Redis, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &Redis{rdb: redis.NewClient(opt)}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
