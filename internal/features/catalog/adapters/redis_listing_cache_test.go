package adapters

import (
	"context"
	"testing"
	"time"

	"checkout-engine/internal/core/cache"
	"checkout-engine/internal/features/catalog/domain"
	ordersdomain "checkout-engine/internal/features/orders/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisListingCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	adapter, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	return NewRedisListingCache(adapter), mr
}

func TestRedisListingCache(t *testing.T) {
	repo, mr := newTestCache(t)
	ctx := context.Background()

	t.Run("EmptyIsNil", func(t *testing.T) {
		listing, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, listing)
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		saved := domain.NewListing([]ordersdomain.Product{
			{ID: "P1", Name: "Coffee", Price: decimal.NewFromInt(50000), Stock: 5, Active: true},
		})
		require.NoError(t, repo.Save(ctx, saved, time.Minute))

		listing, err := repo.Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, listing)
		require.Len(t, listing.Products, 1)
		assert.Equal(t, "Coffee", listing.Products[0].Name)
		assert.True(t, decimal.NewFromInt(50000).Equal(listing.Products[0].Price))
		assert.True(t, saved.GeneratedAt.Equal(listing.GeneratedAt))
	})

	t.Run("Expires", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, domain.NewListing(nil), time.Minute))
		mr.FastForward(2 * time.Minute)

		listing, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, listing)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, domain.NewListing(nil), time.Minute))
		require.NoError(t, repo.Delete(ctx))

		listing, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, listing)
	})

	t.Run("CorruptValue", func(t *testing.T) {
		require.NoError(t, mr.Set(listingCacheKey, "not json"))
		_, err := repo.Get(ctx)
		assert.Error(t, err)
	})
}
