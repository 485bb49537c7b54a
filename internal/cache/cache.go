// Redis-backed snapshot cache of extracted listings per (site,
// keyword, city). Lets an aborted run resume without re-scrolling the
// whole feed.

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"go-jobpilot-automation/internal/site"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at the given URL and returns a Cache.
// URL format: redis://localhost:6379
func New(redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Get retrieves cached postings for the given unit of work. Returns
// the postings and true if a valid cache entry exists.
func (c *Cache) Get(ctx context.Context, siteName, keyword, city string) ([]site.Posting, bool) {
	key := buildKey(siteName, keyword, city)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var postings []site.Posting
	if err := json.Unmarshal(data, &postings); err != nil {
		return nil, false
	}

	return postings, true
}

// Set stores postings in the cache with the configured TTL.
func (c *Cache) Set(ctx context.Context, siteName, keyword, city string, postings []site.Posting) error {
	key := buildKey(siteName, keyword, city)

	data, err := json.Marshal(postings)
	if err != nil {
		return fmt.Errorf("cache: marshal error: %w", err)
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func buildKey(siteName, keyword, city string) string {
	raw := strings.ToLower(siteName + ":" + keyword + ":" + city)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("jobpilot:%s:%x", strings.ToLower(siteName), hash[:8])
}
