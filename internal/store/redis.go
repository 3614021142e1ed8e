package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	coreconfig "dropbot/core/config"
	"dropbot/core/logger"
	"log/slog"
)

// Redis implements Store on top of a Redis instance. INCRBY provides the
// atomic increment primitive and SET NX PX the conditional write.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies connectivity with a ping.
func NewRedis(ctx context.Context, cfg coreconfig.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.STORE.Error("redis connect failed",
			slog.String("event", "store.connect"),
			slog.String("driver", "redis"),
			slog.String("host", cfg.Addr),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	logger.STORE.Info("redis connected",
		slog.String("event", "store.connect"),
		slog.String("driver", "redis"),
		slog.String("host", cfg.Addr),
		slog.Int("db", cfg.DB),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)

	return &Redis{client: client}, nil
}

// Get returns the value for key or ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Put writes the value for key unconditionally.
func (r *Redis) Put(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// PutNX writes the value only if the key is absent.
func (r *Redis) PutNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

// Delete removes the key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// List scans all keys with the given prefix and fetches their values.
func (r *Redis) List(ctx context.Context, prefix string) (map[string]string, error) {
	out := make(map[string]string)
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Key vanished between SCAN and MGET; skip it.
			continue
		}
		out[keys[i]] = s
	}
	return out, nil
}

// IncrBy atomically adds delta to the integer value at key.
func (r *Redis) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	val, err := r.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incrby %s: %w", key, err)
	}
	return val, nil
}

// TTL returns the remaining lifetime of key.
func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl %s: %w", key, err)
	}
	if d < 0 {
		// go-redis maps TTL's sentinel replies to -2 (missing) and -1 (no expiry).
		if d == -2 {
			return 0, ErrNotFound
		}
		return 0, nil
	}
	return d, nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
