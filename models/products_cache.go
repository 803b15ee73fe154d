package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ProductReader is the read side of the catalog used by the HTTP handlers.
type ProductReader interface {
	GetFilteredProducts(ctx context.Context, offset, limit int, filters ProductFilters) ([]Product, int64, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
}

// CachedCatalog puts a redis read-through cache in front of single code
// lookups. Listing is passed through. Purchases never read from it, so a
// stale entry can only affect what the search endpoint shows.
type CachedCatalog struct {
	next   ProductReader
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

func NewCachedCatalog(next ProductReader, client *redis.Client, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		next:   next,
		client: client,
		ttl:    ttl,
	}
}

func (c *CachedCatalog) GetFilteredProducts(ctx context.Context, offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	return c.next.GetFilteredProducts(ctx, offset, limit, filters)
}

func (c *CachedCatalog) GetByCode(ctx context.Context, code string) (*Product, error) {
	if p, ok := c.get(ctx, code); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(code, func() (any, error) {
		p, err := c.next.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		c.set(ctx, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*Product)
	return &p, nil
}

// Invalidate drops the cached entry for code.
func (c *CachedCatalog) Invalidate(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, productCacheKey(code)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Redis failures degrade to a miss.
func (c *CachedCatalog) get(ctx context.Context, code string) (*Product, bool) {
	data, err := c.client.Get(ctx, productCacheKey(code)).Bytes()
	if err != nil {
		return nil, false
	}
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *CachedCatalog) set(ctx context.Context, p *Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	// best effort; the next lookup simply misses again
	_ = c.client.Set(ctx, productCacheKey(p.Code), data, c.ttl).Err()
}

func productCacheKey(code string) string {
	return fmt.Sprintf("catalog:product:%s", code)
}
