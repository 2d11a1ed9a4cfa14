package ports

import (
	"context"
	"time"

	"checkout-engine/internal/features/catalog/domain"
	ordersdomain "checkout-engine/internal/features/orders/domain"
)

// CatalogService defines the primary port for catalog operations.
type CatalogService interface {
	// List returns the active products, served from the listing cache when warm.
	List(ctx context.Context) (*domain.Listing, error)
	// Upsert creates or replaces products and invalidates the listing cache.
	Upsert(ctx context.Context, products []domain.ProductInput) (int, error)
	// Deactivate hides a product from the storefront and from new orders.
	Deactivate(ctx context.Context, id string) error
	// Import upserts the products of a JSON seed file.
	Import(ctx context.Context, path string) (int, error)
}

// ProductStore defines the secondary port for product persistence.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]ordersdomain.Product, error)
	UpsertProducts(ctx context.Context, products []ordersdomain.Product) error
	DeactivateProduct(ctx context.Context, id string) error
}

// ListingCache defines the secondary port for the cached catalog snapshot.
type ListingCache interface {
	Save(ctx context.Context, listing *domain.Listing, ttl time.Duration) error
	// Get returns nil, nil when no snapshot is cached.
	Get(ctx context.Context) (*domain.Listing, error)
	Delete(ctx context.Context) error
}
