package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Setup lookups sit on the turn path, so a slow cache must fail fast and
// let the planner rebuild the setup instead.
const (
	defaultIOTimeout = 250 * time.Millisecond
	pingTimeout      = 5 * time.Second
)

// Client is the setup cache. It holds one hash per match.
type Client struct {
	rdb *redis.Client
}

// Option adjusts the connection options after the URL is parsed.
type Option func(*redis.Options)

// WithIOTimeout overrides the read and write timeout of cache commands.
func WithIOTimeout(d time.Duration) Option {
	return func(o *redis.Options) {
		o.ReadTimeout = d
		o.WriteTimeout = d
	}
}

// NewClient connects to the setup cache at redisURL. Timeouts given in the
// URL query (read_timeout, write_timeout) win over the short defaults.
func NewClient(redisURL string, opts ...Option) (*Client, error) {
	ropts, err := clientOptions(redisURL, opts...)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", ropts.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

func clientOptions(redisURL string, opts ...Option) (*redis.Options, error) {
	ropts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if ropts.ReadTimeout == 0 {
		ropts.ReadTimeout = defaultIOTimeout
	}
	if ropts.WriteTimeout == 0 {
		ropts.WriteTimeout = defaultIOTimeout
	}
	for _, opt := range opts {
		opt(ropts)
	}
	return ropts, nil
}

// NewClientFromPool wraps an existing redis.Client for use in tests.
func NewClientFromPool(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
