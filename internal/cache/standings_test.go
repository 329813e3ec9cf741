package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/supstats/internal/model"
	"github.com/talgya/supstats/internal/stats"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "standings:4512345", Key(4512345))
}

func TestDisabledCache(t *testing.T) {
	c := New("", time.Minute)
	require.Nil(t, c)

	ctx := context.Background()
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Store(ctx, 1, []stats.Standing{{Points: 5}}))

	rows, ok, err := c.Top(ctx, 1, 10)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rows)
	assert.NoError(t, c.Close())
}

func TestEntries(t *testing.T) {
	got, ok, err := entries([]redis.Z{
		{Score: 300, Member: "7"},
		{Score: 120, Member: "3"},
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []Entry{{PlayerID: 7, Points: 300}, {PlayerID: 3, Points: 120}}, got)

	_, _, err = entries([]redis.Z{{Score: 1, Member: "x"}})
	assert.Error(t, err)
}

// Runs against a live server when SUPSTATS_TEST_REDIS is set.
func TestStoreAndTopIntegration(t *testing.T) {
	addr := os.Getenv("SUPSTATS_TEST_REDIS")
	if addr == "" {
		t.Skip("SUPSTATS_TEST_REDIS not set")
	}
	ctx := context.Background()
	c := New(addr, time.Minute)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.Ping(ctx))

	const gameID = 990001
	require.NoError(t, c.Store(ctx, gameID, []stats.Standing{
		{Rank: 1, Player: model.Player{ID: 11}, Points: 500},
		{Rank: 2, Player: model.Player{ID: 12}, Points: 300},
		{Rank: 3, Player: model.Player{ID: 13}, Points: 100},
	}))

	top, ok, err := c.Top(ctx, gameID, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []Entry{{PlayerID: 11, Points: 500}, {PlayerID: 12, Points: 300}}, top)
}
