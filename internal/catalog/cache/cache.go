// Package cache wraps a catalog repository with a Redis read-through cache.
//
// Catalog items are reference data: read on every suggestion and every
// catalog-backed item add, written rarely. List results are cached per
// organization and filter set; single items per ID. Misses and Redis errors
// fall through to the underlying repository, so the cache is never a point
// of failure.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	catalogrepo "offerbuilder_backend/internal/catalog/repository"
	"offerbuilder_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a read-through cache in front of a catalog repository.
type Cache struct {
	next catalogrepo.Repository
	rdb  *redis.Client
	ttl  time.Duration
	log  *logger.Logger

	// group collapses concurrent misses for the same list key into a
	// single repository query.
	group singleflight.Group
}

// New wraps a repository. A nil Redis client disables caching entirely.
func New(next catalogrepo.Repository, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{next: next, rdb: rdb, ttl: ttl, log: log}
}

var _ catalogrepo.Repository = (*Cache)(nil)

func (c *Cache) GetItems(ctx context.Context, orgID uuid.UUID, filters Filters) ([]catalogrepo.Item, error) {
	key := listKey(orgID, filters)
	if items, ok := c.getList(ctx, key); ok {
		return items, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		items, err := c.next.GetItems(ctx, orgID, filters)
		if err != nil {
			return nil, err
		}
		c.setList(ctx, key, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]catalogrepo.Item), nil
}

func (c *Cache) GetItemByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (catalogrepo.Item, error) {
	key := fmt.Sprintf("catalog:%s:item:%s", orgID, id)
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var item catalogrepo.Item
			if err := json.Unmarshal(raw, &item); err == nil {
				return item, nil
			}
		} else if err != redis.Nil && c.log != nil {
			c.log.Warn("catalog cache read failed", "key", key, "error", err)
		}
	}

	item, err := c.next.GetItemByID(ctx, orgID, id)
	if err != nil {
		return catalogrepo.Item{}, err
	}
	if c.rdb != nil {
		if raw, err := json.Marshal(item); err == nil {
			c.rdb.Set(ctx, key, raw, c.ttl)
		}
	}
	return item, nil
}

// SearchItems is not cached: queries are free text and rarely repeat.
func (c *Cache) SearchItems(ctx context.Context, orgID uuid.UUID, query string, filters Filters) ([]catalogrepo.Item, error) {
	return c.next.SearchItems(ctx, orgID, query, filters)
}

func (c *Cache) GetItemsByType(ctx context.Context, orgID uuid.UUID, itemType string) ([]catalogrepo.Item, error) {
	return c.GetItems(ctx, orgID, Filters{Types: []string{itemType}, OnlyAvailable: true})
}

func (c *Cache) GetItemsByCategory(ctx context.Context, orgID uuid.UUID, category string) ([]catalogrepo.Item, error) {
	return c.GetItems(ctx, orgID, Filters{Categories: []string{category}, OnlyAvailable: true})
}

// Invalidate drops all cached entries for one organization.
func (c *Cache) Invalidate(ctx context.Context, orgID uuid.UUID) {
	if c.rdb == nil {
		return
	}
	pattern := fmt.Sprintf("catalog:%s:*", orgID)
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		c.rdb.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil && c.log != nil {
		c.log.Warn("catalog cache invalidation failed", "organization_id", orgID, "error", err)
	}
}

// Filters is re-exported so callers of the cache read naturally.
type Filters = catalogrepo.Filters

func (c *Cache) getList(ctx context.Context, key string) ([]catalogrepo.Item, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil && c.log != nil {
			c.log.Warn("catalog cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var items []catalogrepo.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *Cache) setList(ctx context.Context, key string, items []catalogrepo.Item) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil && c.log != nil {
		c.log.Warn("catalog cache write failed", "key", key, "error", err)
	}
}

func listKey(orgID uuid.UUID, f Filters) string {
	parts := []string{
		fmt.Sprintf("catalog:%s:list", orgID),
		strings.Join(f.Types, ","),
		strings.Join(f.Categories, ","),
		strings.Join(f.Tags, ","),
		fmt.Sprintf("%t:%d:%d", f.OnlyAvailable, f.Limit, f.Offset),
	}
	return strings.Join(parts, "|")
}
