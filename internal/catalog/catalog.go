// Package catalog serves the browse product list, caching backend fetches
// so a wall of cashier terminals does not hammer the product service.
package catalog

import (
	"context"
	"fmt"
	"log"
	"time"

	"convpos/terminal/internal/cache"
	"convpos/terminal/internal/domain"
)

// Lister fetches the full product list from the backend.
type Lister interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type Catalog struct {
	backend Lister
	cache   cache.CatalogCache
	ttl     time.Duration
}

func New(backend Lister, c cache.CatalogCache, ttl time.Duration) *Catalog {
	if c == nil {
		c = cache.NoopCatalogCache{}
	}
	return &Catalog{backend: backend, cache: c, ttl: ttl}
}

// Products returns the catalog, serving from cache when fresh. Cache
// failures are logged and fall through to the backend.
func (c *Catalog) Products(ctx context.Context) ([]domain.Product, error) {
	cached, ok, err := c.cache.Get(ctx)
	if err != nil {
		log.Printf("[catalog] WARN: cache read failed: %v", err)
	}
	if ok {
		return cached, nil
	}

	products, err := c.backend.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if err := c.cache.Set(ctx, products, c.ttl); err != nil {
		log.Printf("[catalog] WARN: cache write failed: %v", err)
	}
	return products, nil
}
