package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "triage:rl"

// Manager provides Redis-backed fixed-window rate limiting shared across
// replicas
type Manager struct {
	redis *redis.Client
	now   func() time.Time
}

// Option adjusts the parsed connection options
type Option func(*redis.Options)

// WithPassword overrides the password carried by the URL when non-empty
func WithPassword(password string) Option {
	return func(o *redis.Options) {
		if password != "" {
			o.Password = password
		}
	}
}

// WithDB overrides the database number carried by the URL when non-zero
func WithDB(db int) Option {
	return func(o *redis.Options) {
		if db != 0 {
			o.DB = db
		}
	}
}

// NewManager connects to redisURL and verifies the connection
func NewManager(redisURL string, opts ...Option) (*Manager, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	for _, o := range opts {
		o(opt)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewManagerWithClient(client), nil
}

// NewManagerWithClient wraps an existing client
func NewManagerWithClient(client *redis.Client) *Manager {
	return &Manager{redis: client, now: time.Now}
}

// Client exposes the connection so other components can share it
func (m *Manager) Client() *redis.Client { return m.redis }

func (m *Manager) Close() error { return m.redis.Close() }

// Decision is the outcome of a rate check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetSec  int
}

// CheckRate counts one request for key in the current minute window
func (m *Manager) CheckRate(ctx context.Context, key string, rpm int) (Decision, error) {
	now := m.now().UTC()
	window := now.Unix() / 60
	rk := fmt.Sprintf("%s:%s:%d", keyPrefix, key, window)

	// INCR and set TTL atomically so abandoned windows expire
	pipe := m.redis.TxPipeline()
	incr := pipe.Incr(ctx, rk)
	pipe.Expire(ctx, rk, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate check: %w", err)
	}

	count := int(incr.Val())
	d := Decision{
		Allowed:   count <= rpm,
		Limit:     rpm,
		Remaining: rpm - count,
		ResetSec:  60 - int(now.Unix()%60),
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	return d, nil
}
