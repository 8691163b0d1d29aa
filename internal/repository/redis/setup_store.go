package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Each match keeps one hash of encoded setups, one field per team.
func setupKey(matchID string) string { return "match:" + matchID + ":setup" }

// GetSetup returns the encoded setup for a team, or nil when none is cached.
func (c *Client) GetSetup(ctx context.Context, matchID, team string) ([]byte, error) {
	data, err := c.rdb.HGet(ctx, setupKey(matchID), team).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get setup: %w", err)
	}
	return data, nil
}

// SetSetup caches a team's encoded setup. A positive ttl (re)arms the
// expiry of the whole match hash.
func (c *Client) SetSetup(ctx context.Context, matchID, team string, data []byte, ttl time.Duration) error {
	key := setupKey(matchID)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, team, data)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set setup: %w", err)
	}
	return nil
}

// DeleteSetups drops every cached setup of a match.
func (c *Client) DeleteSetups(ctx context.Context, matchID string) error {
	return c.rdb.Del(ctx, setupKey(matchID)).Err()
}
