package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "fxdash/internal/errors"
)

// RedisStore implements Store on top of a Redis server
type RedisStore struct {
	client *redis.Client
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg *RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeCacheConnection,
			fmt.Sprintf("failed to connect to Redis at %s", cfg.Addr))
	}

	return &RedisStore{client: client}, nil
}

// Get retrieves a value and unmarshals it into dest
func (r *RedisStore) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return Miss(key)
	}
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeCacheOperation, "redis get failed")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeCacheOperation, "cached value is not valid JSON")
	}
	return nil
}

// Set stores a JSON-encoded value with expiration
func (r *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeCacheOperation, "failed to marshal cache value")
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeCacheOperation, "redis set failed")
	}
	return nil
}

// Delete removes a key
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeCacheOperation, "redis del failed")
	}
	return nil
}

// Exists checks whether a key exists
func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, apperrors.WrapError(err, apperrors.ErrCodeCacheOperation, "redis exists failed")
	}
	return n > 0, nil
}

// HealthCheck pings the Redis server
func (r *RedisStore) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
