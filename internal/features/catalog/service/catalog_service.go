package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/logger"
	"checkout-engine/internal/core/validation"
	"checkout-engine/internal/features/catalog/domain"
	"checkout-engine/internal/features/catalog/ports"
	ordersdomain "checkout-engine/internal/features/orders/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogServiceImpl implements ports.CatalogService.
type CatalogServiceImpl struct {
	store ports.ProductStore
	cache ports.ListingCache
	ttl   time.Duration

	loads singleflight.Group
}

// NewCatalogService creates a new CatalogServiceImpl. Listings are cached for ttl.
func NewCatalogService(store ports.ProductStore, cache ports.ListingCache, ttl time.Duration) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		store: store,
		cache: cache,
		ttl:   ttl,
	}
}

type upsertRequest struct {
	Products []domain.ProductInput `json:"products" validate:"required,min=1,dive"`
}

// List returns the active catalog. A cache failure falls back to the store.
func (s *CatalogServiceImpl) List(ctx context.Context) (*domain.Listing, error) {
	listing, err := s.cache.Get(ctx)
	if err != nil {
		logger.Get().Warn("Catalog cache read failed", zap.Error(err))
	}
	if listing != nil {
		return listing, nil
	}

	v, err, _ := s.loads.Do("listing", func() (interface{}, error) {
		products, err := s.store.ListProducts(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("service: failed to list products: %w", err)
		}

		listing := domain.NewListing(products)
		if err := s.cache.Save(context.WithoutCancel(ctx), listing, s.ttl); err != nil {
			logger.Get().Warn("Catalog cache write failed", zap.Error(err))
		}
		return listing, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Listing), nil
}

// Upsert validates and stores products.
func (s *CatalogServiceImpl) Upsert(ctx context.Context, inputs []domain.ProductInput) (int, error) {
	if err := validation.Struct(upsertRequest{Products: inputs}); err != nil {
		return 0, err
	}

	products := make([]ordersdomain.Product, 0, len(inputs))
	for i, in := range inputs {
		if !in.Price.IsPositive() {
			return 0, apperror.New(apperror.CodeValidation, "validation failed").
				WithDetails(map[string]string{fmt.Sprintf("products[%d].price", i): "must be greater than 0"})
		}
		products = append(products, in.Product())
	}

	if err := s.store.UpsertProducts(ctx, products); err != nil {
		return 0, fmt.Errorf("service: failed to save products: %w", err)
	}
	s.invalidate(ctx)

	logger.Get().Info("Catalog updated", zap.Int("products", len(products)))
	return len(products), nil
}

// Deactivate hides a product.
func (s *CatalogServiceImpl) Deactivate(ctx context.Context, id string) error {
	if err := s.store.DeactivateProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Import reads a JSON array of products from path and upserts it.
func (s *CatalogServiceImpl) Import(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("service: failed to read seed file: %w", err)
	}

	var inputs []domain.ProductInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return 0, fmt.Errorf("service: failed to decode seed file %s: %w", path, err)
	}
	if len(inputs) == 0 {
		return 0, domain.ErrEmptyImport
	}

	return s.Upsert(ctx, inputs)
}

func (s *CatalogServiceImpl) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx); err != nil {
		logger.Get().Warn("Catalog cache invalidation failed", zap.Error(err))
	}
}
