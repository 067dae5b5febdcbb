package cache

import (
	"context"
	"time"

	"convpos/terminal/internal/domain"
)

// CatalogCache holds the browse product list between backend fetches.
type CatalogCache interface {
	Get(ctx context.Context) ([]domain.Product, bool, error)
	Set(ctx context.Context, products []domain.Product, ttl time.Duration) error
}

// NoopCatalogCache is used when no Redis address is configured; every
// catalog read goes to the backend.
type NoopCatalogCache struct{}

func (NoopCatalogCache) Get(_ context.Context) ([]domain.Product, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) Set(_ context.Context, _ []domain.Product, _ time.Duration) error {
	return nil
}
