package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "query:"

// QueryCache stores serialized query responses in Redis with a TTL. Keys
// are namespace-scoped, so cached responses never cross namespaces either.
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewQueryCache(client *redis.Client, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &QueryCache{
		client: client,
		ttl:    ttl,
	}
}

// Key derives a cache key from everything that affects the response.
func Key(namespace string, query string, filters map[string]any) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(query))
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "\x00%s=%v", k, filters[k])
	}
	return keyPrefix + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached payload, or false on miss. Redis errors count as
// misses: the cache never blocks a query.
func (c *QueryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("Cache read failed, treating as miss")
		}
		return nil, false
	}
	return payload, true
}

func (c *QueryCache) Set(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to serialize cache entry")
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("Cache write failed")
	}
}

// Clear removes all cached query responses.
func (c *QueryCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	log.Info().Int("keys", len(keys)).Msg("Query cache cleared")
	return nil
}
