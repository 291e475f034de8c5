package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "analytics:cache:"
	redisTagPrefix = "analytics:tag:"
)

// RedisStore keeps cached results in Redis so every instance of the service
// shares one cache. Tags are Redis sets of cache keys and live until the tag
// is invalidated.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string, db int, password string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	fullKey := redisKeyPrefix + key
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, fullKey, value, ttl)
		for _, tag := range tags {
			pipe.SAdd(ctx, redisTagPrefix+tag, fullKey)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// InvalidateTag deletes every key stored under tag and the tag set itself.
// It returns the number of cache entries that still existed.
func (r *RedisStore) InvalidateTag(ctx context.Context, tag string) (int, error) {
	tagKey := redisTagPrefix + tag
	members, err := r.client.SMembers(ctx, tagKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read tag %s: %w", tag, err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	var removed *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, members...)
		pipe.Del(ctx, tagKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate tag %s: %w", tag, err)
	}
	return int(removed.Val()), nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
