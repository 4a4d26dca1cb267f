package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	categoryCacheKey        = "catalog:categories"
	defaultCategoryCacheTTL = 5 * time.Minute
)

// CategoryCache keeps the ordered category list in Redis. Categories are
// administered out of band and never mutated by the engine, so a short TTL
// is the only invalidation needed.
type CategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCategoryCache(client *redis.Client, ttl time.Duration) *CategoryCache {
	if ttl <= 0 {
		ttl = defaultCategoryCacheTTL
	}
	return &CategoryCache{client: client, ttl: ttl}
}

// Get returns the cached category list, or nil on a miss.
func (c *CategoryCache) Get(ctx context.Context) ([]Category, error) {
	data, err := c.client.Get(ctx, categoryCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var categories []Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Set stores the category list under the cache TTL.
func (c *CategoryCache) Set(ctx context.Context, categories []Category) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, categoryCacheKey, data, c.ttl).Err()
}
