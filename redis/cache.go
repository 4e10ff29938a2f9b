// Package redis caches extraction results in Redis, keyed by listing URL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/propsheet/propsheet"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a cached record stays valid.
const DefaultTTL = time.Hour

const keyPrefix = "propsheet:record:"

var _ propsheet.RecordCache = (*Cache)(nil)

// Cache implements propsheet.RecordCache on a Redis client.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a Cache storing records for ttl. A non-positive ttl
// uses DefaultTTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Open connects to the Redis server at addr and verifies it answers.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Get returns the cached record for url. The boolean is false on a miss.
func (c *Cache) Get(ctx context.Context, url string) (*propsheet.Record, bool, error) {
	v, err := c.client.Get(ctx, Key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var record propsheet.Record
	if err := json.Unmarshal(v, &record); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached record: %w", err)
	}
	return &record, true, nil
}

// Set stores record for url.
func (c *Cache) Set(ctx context.Context, url string, record propsheet.Record) error {
	b, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(url), b, c.ttl).Err()
}

// Key returns the Redis key a URL is cached under.
func Key(url string) string {
	return keyPrefix + strconv.FormatUint(xxhash.Sum64String(url), 16)
}
