// Package cache keeps each game's latest standings in a Redis sorted set
// so ranking reads skip the database.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talgya/supstats/internal/stats"
)

const keyPrefix = "standings:"

// Entry is one cached ranking row.
type Entry struct {
	PlayerID int64 `json:"player_id"` // Internal player id
	Points   int   `json:"points"`
}

// Standings is a Redis-backed standings cache. A nil *Standings is a
// disabled cache: writes are dropped and reads miss.
type Standings struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at addr. It returns nil when addr is empty.
func New(addr string, ttl time.Duration) *Standings {
	if addr == "" {
		return nil
	}
	return &Standings{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Key is the sorted-set key of a game, by upstream game id.
func Key(gameID int64) string {
	return keyPrefix + strconv.FormatInt(gameID, 10)
}

// Ping checks the connection.
func (c *Standings) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the connection.
func (c *Standings) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Store replaces the cached standings of a game.
func (c *Standings) Store(ctx context.Context, gameID int64, rows []stats.Standing) error {
	if c == nil {
		return nil
	}
	key := Key(gameID)
	members := make([]redis.Z, len(rows))
	for i, r := range rows {
		members[i] = redis.Z{Score: float64(r.Points), Member: strconv.FormatInt(r.Player.ID, 10)}
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) > 0 {
			pipe.ZAdd(ctx, key, members...)
		}
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store standings of game %d: %w", gameID, err)
	}
	return nil
}

// Top returns up to n cached rows, highest points first. ok is false on
// a miss.
func (c *Standings) Top(ctx context.Context, gameID int64, n int) ([]Entry, bool, error) {
	if c == nil || n <= 0 {
		return nil, false, nil
	}
	zs, err := c.client.ZRevRangeWithScores(ctx, Key(gameID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("top standings of game %d: %w", gameID, err)
	}
	if len(zs) == 0 {
		return nil, false, nil
	}
	return entries(zs)
}

func entries(zs []redis.Z) ([]Entry, bool, error) {
	out := make([]Entry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, false, fmt.Errorf("unexpected member %v", z.Member)
		}
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("bad member %q: %w", member, err)
		}
		out = append(out, Entry{PlayerID: id, Points: int(z.Score)})
	}
	return out, true, nil
}
