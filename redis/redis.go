// Package redis caches the most recent top-level threads for the
// default feed page.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/threadsapp/threads-backend/api"
)

// Redis provides caching in Redis.
type Redis struct {
	cli *redis.Client
}

// Connect connects to the Redis server and pings the server to ensure
// the connection is working.
func Connect(ctx context.Context, addr string) (*Redis, error) {
	cli := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{
		cli: cli,
	}, nil
}

const (
	threadPrefix = "threads"
	maxSize      = 10
)

// ListThreads returns the cached top-level threads sorted by creation
// time in descending order.
func (r *Redis) ListThreads(ctx context.Context) ([]api.Message, error) {
	keys, err := r.cli.ZRevRangeByScore(ctx, threadPrefix, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", time.Now().UnixNano()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange: %w", err)
	}

	out := make([]api.Message, 0, len(keys))
	for _, key := range keys {
		var th thread
		if err := r.cli.HGetAll(ctx, key).Scan(&th); err != nil {
			return nil, fmt.Errorf("hgetall: %w", err)
		}
		if th.ID == "" {
			// Index entry whose hash expired or was invalidated.
			continue
		}
		out = append(out, th.APIMessage())
	}

	return out, nil
}

// InsertThread adds the thread to Redis with threads:MESSAGE_ID as the
// key and adds the key to a sorted set scored by creation time.
func (r *Redis) InsertThread(ctx context.Context, msg api.Message) error {
	th := cacheThread(msg)

	err := r.cli.Watch(ctx, func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			key := fmt.Sprintf("%s:%s", threadPrefix, th.ID)
			pipe.HSet(ctx, key, th)
			pipe.ZAdd(ctx, threadPrefix, redis.Z{
				Score:  float64(msg.CreatedAt.UnixNano()),
				Member: key,
			})

			return nil
		})
		return err
	}, th.ID)

	if err != nil {
		return fmt.Errorf("redis insert thread: %w", err)
	}

	// Keep the cache bounded by evicting the oldest entries past the
	// max size.
	if err := r.evictOldest(ctx); err != nil {
		return fmt.Errorf("evict oldest: %w", err)
	}
	return nil
}

// RemoveThread drops a thread from the cache. Mutating handlers call
// this so counters are never served stale from Redis.
func (r *Redis) RemoveThread(ctx context.Context, id string) error {
	key := fmt.Sprintf("%s:%s", threadPrefix, id)
	if err := r.cli.ZRem(ctx, threadPrefix, key).Err(); err != nil {
		return fmt.Errorf("zrem: %w", err)
	}
	if err := r.cli.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

func (r *Redis) evictOldest(ctx context.Context) error {
	keys, err := r.cli.ZRange(ctx, threadPrefix, 0, int64(-maxSize-1)).Result()
	if err != nil {
		return fmt.Errorf("zrange: %w", err)
	}

	for _, key := range keys {
		_ = r.cli.ZRem(ctx, threadPrefix, key).Err()
		_ = r.cli.Del(ctx, key).Err()
	}

	return nil
}
