package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// Cache stores JSON encoded read models. Every key belongs to a guild so a
// write in that guild can drop all of them at once.
//
// A reader that fills the cache from the store takes the guild Generation
// before reading and puts it in the key. InvalidateGuild bumps the
// generation, so a value read before an invalidation and stored after it
// lands under a key nobody asks for again.
type Cache interface {
	Generation(ctx context.Context, guildID string) (int64, error)
	Get(ctx context.Context, guildID, key string, dest interface{}) error
	Set(ctx context.Context, guildID, key string, value interface{}) error
	InvalidateGuild(ctx context.Context, guildID string) error
}

// CacheService is the Redis backed Cache.
type CacheService struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewCacheService(client redis.UniversalClient, ttl time.Duration) *CacheService {
	return &CacheService{client: client, ttl: ttl}
}

func guildKey(guildID, key string) string {
	return fmt.Sprintf("stats:%s:%s", guildID, key)
}

// generationKey is outside the guildKey pattern so InvalidateGuild's scan
// never deletes it.
func generationKey(guildID string) string {
	return fmt.Sprintf("stats-gen:%s", guildID)
}

func (c *CacheService) Generation(ctx context.Context, guildID string) (int64, error) {
	n, err := c.client.Get(ctx, generationKey(guildID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *CacheService) Get(ctx context.Context, guildID, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, guildKey(guildID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (c *CacheService) Set(ctx context.Context, guildID, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.client.Set(ctx, guildKey(guildID, key), data, c.ttl).Err()
}

// InvalidateGuild bumps the guild generation and removes every cached
// entry of the guild. SCAN is used instead of KEYS so a large keyspace does
// not block Redis.
func (c *CacheService) InvalidateGuild(ctx context.Context, guildID string) error {
	if err := c.client.Incr(ctx, generationKey(guildID)).Err(); err != nil {
		return err
	}
	pattern := guildKey(guildID, "*")
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Noop is used when Redis is disabled: every Get misses.
type Noop struct{}

func (Noop) Generation(context.Context, string) (int64, error)      { return 0, nil }
func (Noop) Get(context.Context, string, string, interface{}) error { return ErrMiss }
func (Noop) Set(context.Context, string, string, interface{}) error { return nil }
func (Noop) InvalidateGuild(context.Context, string) error          { return nil }
