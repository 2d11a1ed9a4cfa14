package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"checkout-engine/internal/core/cache"
	"checkout-engine/internal/features/catalog/domain"
)

const listingCacheKey = "catalog-listing"

// RedisListingCache implements ports.ListingCache using the cache adaptation.
type RedisListingCache struct {
	cache cache.Cache
}

// NewRedisListingCache creates a new RedisListingCache.
func NewRedisListingCache(c cache.Cache) *RedisListingCache {
	return &RedisListingCache{
		cache: c,
	}
}

// Save stores the listing in the cache.
func (r *RedisListingCache) Save(ctx context.Context, listing *domain.Listing, ttl time.Duration) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}

	if err := r.cache.Set(ctx, listingCacheKey, data, ttl); err != nil {
		return fmt.Errorf("failed to save listing to cache: %w", err)
	}

	return nil
}

// Get retrieves the listing from the cache.
func (r *RedisListingCache) Get(ctx context.Context) (*domain.Listing, error) {
	data, err := r.cache.Get(ctx, listingCacheKey)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing from cache: %w", err)
	}

	var listing domain.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listing: %w", err)
	}

	return &listing, nil
}

// Delete removes the listing from the cache.
func (r *RedisListingCache) Delete(ctx context.Context) error {
	if err := r.cache.Delete(ctx, listingCacheKey); err != nil {
		return fmt.Errorf("failed to delete listing from cache: %w", err)
	}
	return nil
}
