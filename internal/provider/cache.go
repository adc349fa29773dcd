package provider

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"neontune/internal/music"
)

// DefaultCacheTTL controls how long a search page stays cached.
const DefaultCacheTTL = 15 * time.Minute

// PageCache stores filtered search pages in Redis. A nil *PageCache is a
// valid, always-missing cache. Redis failures are logged, never returned.
type PageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPageCache returns nil when rdb is nil so callers can pass it through.
func NewPageCache(rdb *redis.Client, ttl time.Duration) *PageCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &PageCache{rdb: rdb, ttl: ttl}
}

func cacheKey(query, pageToken string) string {
	hash := sha256.Sum256([]byte(query + "|" + pageToken))
	return fmt.Sprintf("neontune:search:%x", hash[:12])
}

func (c *PageCache) Get(ctx context.Context, query, pageToken string) (music.SearchPage, bool) {
	if c == nil {
		return music.SearchPage{}, false
	}
	data, err := c.rdb.Get(ctx, cacheKey(query, pageToken)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("provider: search cache get: %v", err)
		}
		return music.SearchPage{}, false
	}
	var page music.SearchPage
	if err := json.Unmarshal(data, &page); err != nil {
		log.Printf("provider: search cache corrupt entry: %v", err)
		return music.SearchPage{}, false
	}
	return page, true
}

func (c *PageCache) Set(ctx context.Context, query, pageToken string, page music.SearchPage) {
	if c == nil {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		log.Printf("provider: search cache marshal: %v", err)
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(query, pageToken), data, c.ttl).Err(); err != nil {
		log.Printf("provider: search cache set: %v", err)
	}
}
