package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/meridianhq/gatehouse/pkg/auth"
)

// Config holds Redis connection settings for the registry.
type Config struct {
	RedisURL   string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int

	// TTL bounds the lifetime of a session entry. Matches the token
	// lifetime so a live session never outlasts its credential.
	TTL time.Duration
}

// Registry tracks live sessions in Redis, keyed by principal id. A
// session exists from login until logout or TTL expiry; authentication
// consults it so issued tokens can be revoked server-side.
type Registry struct {
	client *redis.Client
	ttl    time.Duration
}

const keyPrefix = "gatehouse:login_uid:"

func sessionKey(principalID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, principalID)
}

// NewRegistry connects to Redis and verifies connectivity.
func NewRegistry(cfg Config) (*Registry, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB >= 0 {
		opts.DB = cfg.DB
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Registry{client: client, ttl: cfg.TTL}, nil
}

// Create records a live session for the principal with the configured TTL.
func (r *Registry) Create(ctx context.Context, p *auth.Principal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal principal: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(p.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Exists reports whether a live session exists for the principal id.
func (r *Registry) Exists(ctx context.Context, principalID int64) (bool, error) {
	n, err := r.client.Exists(ctx, sessionKey(principalID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

// Invalidate removes the principal's session. Used by logout; the token
// stays cryptographically valid but authentication will reject it.
func (r *Registry) Invalidate(ctx context.Context, principalID int64) error {
	if err := r.client.Del(ctx, sessionKey(principalID)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity for health probes.
func (r *Registry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *Registry) Close() error {
	return r.client.Close()
}
