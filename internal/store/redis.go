package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNil marks a key with no value. Distinct from operational errors so
// callers can tell a miss from an unreachable store.
var ErrNil = errors.New("store: nil value")

// KV is the shared counter/cache store contract.
type KV interface {
	// Incr atomically increments the integer at key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// Expire sets the TTL of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Get returns the value at key, or ErrNil when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// SetEx stores value at key with the given TTL.
	SetEx(ctx context.Context, key string, ttl time.Duration, value []byte) error
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Close releases the underlying connection pool.
	Close() error
}

// Config holds redis connection settings.
type Config struct {
	Addr         string        `yaml:"addr" json:"addr"`
	Password     string        `yaml:"password" json:"password"`
	DB           int           `yaml:"db" json:"db"`
	MaxRetries   int           `yaml:"max_retries" json:"max_retries"`
	PoolSize     int           `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" json:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
}

// DefaultConfig returns the default redis settings.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
	}
}

// Redis implements KV on a go-redis client.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// Compile-time interface compliance check.
var _ KV = (*Redis)(nil)

// NewRedis connects to redis and verifies the connection.
func NewRedis(cfg Config, logger *zap.Logger) (*Redis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger = logger.With(zap.String("component", "kv_store"))
	logger.Info("redis store connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))

	return &Redis{client: client, logger: logger}, nil
}

// Incr implements KV.
func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		r.logger.Warn("store incr failed", zap.String("key", key), zap.Error(err))
		return 0, fmt.Errorf("store incr: %w", err)
	}
	return n, nil
}

// Expire implements KV.
func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		r.logger.Warn("store expire failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("store expire: %w", err)
	}
	return nil
}

// Get implements KV.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNil
	}
	if err != nil {
		r.logger.Warn("store get failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("store get: %w", err)
	}
	return val, nil
}

// SetEx implements KV.
func (r *Redis) SetEx(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Warn("store setex failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("store setex: %w", err)
	}
	return nil
}

// Ping implements KV.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close implements KV.
func (r *Redis) Close() error {
	return r.client.Close()
}
