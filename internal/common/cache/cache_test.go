package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Users []string `json:"users"`
}

func newCache(t *testing.T) (*miniredis.Miniredis, *CacheService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewCacheService(client, 30*time.Second)
}

func TestGetSet(t *testing.T) {
	mr, c := newCache(t)
	ctx := context.Background()

	var got page
	assert.ErrorIs(t, c.Get(ctx, "g1", "leaderboard:1", &got), ErrMiss)

	require.NoError(t, c.Set(ctx, "g1", "leaderboard:1", page{Users: []string{"a", "b"}}))
	require.NoError(t, c.Get(ctx, "g1", "leaderboard:1", &got))
	assert.Equal(t, []string{"a", "b"}, got.Users)

	mr.FastForward(31 * time.Second)
	assert.ErrorIs(t, c.Get(ctx, "g1", "leaderboard:1", &got), ErrMiss)
}

func TestInvalidateGuildOnlyTouchesThatGuild(t *testing.T) {
	_, c := newCache(t)
	ctx := context.Background()

	for _, key := range []string{"leaderboard:1", "leaderboard:2", "giveaways"} {
		require.NoError(t, c.Set(ctx, "g1", key, page{}))
	}
	require.NoError(t, c.Set(ctx, "g2", "leaderboard:1", page{Users: []string{"z"}}))

	require.NoError(t, c.InvalidateGuild(ctx, "g1"))

	var got page
	assert.ErrorIs(t, c.Get(ctx, "g1", "leaderboard:2", &got), ErrMiss)
	require.NoError(t, c.Get(ctx, "g2", "leaderboard:1", &got))
	assert.Equal(t, []string{"z"}, got.Users)
}

func TestInvalidateGuildBumpsGeneration(t *testing.T) {
	mr, c := newCache(t)
	ctx := context.Background()

	gen, err := c.Generation(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, c.InvalidateGuild(ctx, "g1"))
	require.NoError(t, c.InvalidateGuild(ctx, "g1"))

	gen, err = c.Generation(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)
	assert.True(t, mr.Exists("stats-gen:g1"))

	gen, err = c.Generation(ctx, "g2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)
}

func TestNoopAlwaysMisses(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "g1", "k", page{}))
	var got page
	assert.ErrorIs(t, c.Get(ctx, "g1", "k", &got), ErrMiss)
	assert.NoError(t, c.InvalidateGuild(ctx, "g1"))
}
