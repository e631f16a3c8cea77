// Package cache provides the Redis connection used for caching and token revocation
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrKeyNotFound is returned when a key is absent
var ErrKeyNotFound = errors.New("cache key not found")

// RedisClient wraps a UniversalClient and namespaces every key
type RedisClient struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

// NewRedisClient connects to Redis, or a cluster when cluster nodes are configured
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (*RedisClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	opts := &redis.UniversalOptions{
		Addrs:           []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:        cfg.Password,
		DB:              cfg.Database,
		MaxRetries:      cfg.MaxRetries,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: 5 * time.Minute,
		PoolTimeout:     10 * time.Second,
	}

	if cfg.EnableCluster && len(cfg.ClusterNodes) > 0 {
		opts.Addrs = cfg.ClusterNodes
		logger.Info("Redis cluster mode enabled", zap.Strings("nodes", cfg.ClusterNodes))
	}

	client := NewRedisClientFrom(redis.NewUniversalClient(opts), cfg.KeyPrefix, logger)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized",
		zap.Strings("addrs", opts.Addrs),
		zap.Int("database", cfg.Database),
		zap.String("key_prefix", cfg.KeyPrefix),
	)

	return client, nil
}

// NewRedisClientFrom wraps an existing client
func NewRedisClientFrom(client redis.UniversalClient, prefix string, logger *zap.Logger) *RedisClient {
	return &RedisClient{client: client, prefix: prefix, logger: logger}
}

// Key returns the namespaced form of key
func (r *RedisClient) Key(key string) string {
	return r.prefix + key
}

// Ping tests the connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get retrieves a value
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := r.client.Get(ctx, r.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		r.logger.Error("Redis GET failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return result, nil
}

// Set stores a value with a TTL, zero meaning no expiry
func (r *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.Key(key), value, ttl).Err(); err != nil {
		r.logger.Error("Redis SET failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Delete removes keys
func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.Key(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		r.logger.Error("Redis DEL failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// Exists reports whether key is present
func (r *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.Key(key)).Result()
	if err != nil {
		r.logger.Error("Redis EXISTS failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return n > 0, nil
}

// Client exposes the underlying client for health checks
func (r *RedisClient) Client() redis.UniversalClient {
	return r.client
}

// Close closes the connection pool
func (r *RedisClient) Close() error {
	return r.client.Close()
}
