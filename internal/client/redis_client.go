package client

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"markwave-backend/internal/config"
	"markwave-backend/internal/util"
)

// RedisClient wraps the go-redis client with the few operations the OTP
// cache needs.
type RedisClient struct {
	Client *redis.Client
}

// NewRedisClient initializes a Redis client from the configured URL.
func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Only set password if not already in URL
	if opts.Password == "" && cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}

	opts.DB = cfg.Redis.DB
	if cfg.Redis.PoolSize > 0 {
		opts.PoolSize = cfg.Redis.PoolSize
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rc := &RedisClient{Client: redis.NewClient(opts)}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("redis health check: %w", err)
	}

	util.Info("Redis client initialized", util.String("addr", opts.Addr))
	return rc, nil
}

// NewRedisClientFromExisting wraps an already constructed go-redis client.
// Used by tests running against miniredis.
func NewRedisClientFromExisting(c *redis.Client) *RedisClient {
	return &RedisClient{Client: c}
}

func (r *RedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.Client.Set(ctx, key, value, ttl).Err()
}

// IncrWithExpire increments a counter and applies the TTL on first use.
func (r *RedisClient) IncrWithExpire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := r.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *RedisClient) HealthCheck(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}
