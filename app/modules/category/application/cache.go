package categoryservice

import (
	"context"
	"sync"

	categorydb "github.com/tnt-tag-history/tnt-history/app/modules/category/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// Cache is a read-through snapshot of the category list. A loaded cache is
// never invalidated; it stays valid until Refresh. One is built per request.
type Cache struct {
	repo categorydb.Repository
	db   bun.IDB

	mu     sync.Mutex
	loaded bool
	list   []*categorydb.Category
	byName map[string]*categorydb.Category
}

// NewCache creates an empty cache.
func NewCache(repo categorydb.Repository, db bun.IDB) *Cache {
	return &Cache{repo: repo, db: db}
}

// Get returns the category list, loading it on first use.
func (c *Cache) Get(ctx context.Context) ([]*categorydb.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		if err := c.load(ctx); err != nil {
			return nil, err
		}
	}
	return c.list, nil
}

// Refresh reloads the list from the repository.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Lookup finds a category by name.
func (c *Cache) Lookup(ctx context.Context, name string) (*categorydb.Category, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		if err := c.load(ctx); err != nil {
			return nil, false, err
		}
	}
	category, ok := c.byName[name]
	return category, ok, nil
}

// load must be called with mu held. A failed load leaves the previous snapshot in place.
func (c *Cache) load(ctx context.Context) error {
	list, err := c.repo.List(ctx, c.db)
	if err != nil {
		return err
	}
	byName := make(map[string]*categorydb.Category, len(list))
	for _, category := range list {
		byName[category.Name] = category
	}
	c.list = list
	c.byName = byName
	c.loaded = true
	return nil
}

type cacheKey struct{}

// WithCache attaches cache to ctx.
func WithCache(ctx context.Context, cache *Cache) context.Context {
	return context.WithValue(ctx, cacheKey{}, cache)
}

// CacheFromContext returns the cache attached by WithCache.
func CacheFromContext(ctx context.Context) (*Cache, bool) {
	cache, ok := ctx.Value(cacheKey{}).(*Cache)
	return cache, ok && cache != nil
}
