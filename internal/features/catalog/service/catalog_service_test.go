package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/features/catalog/domain"
	ordersdomain "checkout-engine/internal/features/orders/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductStore is a mock implementation of ports.ProductStore
type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) ListProducts(ctx context.Context) ([]ordersdomain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ordersdomain.Product), args.Error(1)
}

func (m *MockProductStore) UpsertProducts(ctx context.Context, products []ordersdomain.Product) error {
	return m.Called(ctx, products).Error(0)
}

func (m *MockProductStore) DeactivateProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockListingCache is a mock implementation of ports.ListingCache
type MockListingCache struct {
	mock.Mock
}

func (m *MockListingCache) Save(ctx context.Context, listing *domain.Listing, ttl time.Duration) error {
	return m.Called(ctx, listing, ttl).Error(0)
}

func (m *MockListingCache) Get(ctx context.Context) (*domain.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingCache) Delete(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestCatalogService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("CacheHit", func(t *testing.T) {
		store, cache := new(MockProductStore), new(MockListingCache)
		svc := NewCatalogService(store, cache, time.Minute)

		cached := domain.NewListing([]ordersdomain.Product{{ID: "P1"}})
		cache.On("Get", ctx).Return(cached, nil).Once()

		listing, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Same(t, cached, listing)
		store.AssertNotCalled(t, "ListProducts", mock.Anything)
	})

	t.Run("CacheMissLoadsAndStores", func(t *testing.T) {
		store, cache := new(MockProductStore), new(MockListingCache)
		svc := NewCatalogService(store, cache, time.Minute)

		cache.On("Get", ctx).Return(nil, nil).Once()
		store.On("ListProducts", mock.Anything).Return([]ordersdomain.Product{{ID: "P1"}, {ID: "P2"}}, nil).Once()
		cache.On("Save", mock.Anything, mock.AnythingOfType("*domain.Listing"), time.Minute).Return(nil).Once()

		listing, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, listing.Products, 2)
		store.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("CacheDownFallsBackToStore", func(t *testing.T) {
		store, cache := new(MockProductStore), new(MockListingCache)
		svc := NewCatalogService(store, cache, time.Minute)

		cache.On("Get", ctx).Return(nil, errors.New("connection refused")).Once()
		cache.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()
		store.On("ListProducts", mock.Anything).Return([]ordersdomain.Product{{ID: "P1"}}, nil).Once()

		listing, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, listing.Products, 1)
	})

	t.Run("StoreError", func(t *testing.T) {
		store, cache := new(MockProductStore), new(MockListingCache)
		svc := NewCatalogService(store, cache, time.Minute)

		cache.On("Get", ctx).Return(nil, nil).Once()
		store.On("ListProducts", mock.Anything).Return(nil, errors.New("db error")).Once()

		_, err := svc.List(ctx)
		assert.Error(t, err)
		cache.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCatalogService_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store, cache := new(MockProductStore), new(MockListingCache)
		svc := NewCatalogService(store, cache, time.Minute)

		store.On("UpsertProducts", ctx, mock.MatchedBy(func(products []ordersdomain.Product) bool {
			return len(products) == 1 && products[0].ID == "P1" && products[0].Active
		})).Return(nil).Once()
		cache.On("Delete", ctx).Return(nil).Once()

		n, err := svc.Upsert(ctx, []domain.ProductInput{{ID: "P1", Name: "Coffee", Price: decimal.NewFromInt(50000), Stock: 5}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		store.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("Invalid", func(t *testing.T) {
		tests := []struct {
			name   string
			inputs []domain.ProductInput
			field  string
		}{
			{name: "Empty", inputs: nil, field: "products"},
			{name: "MissingName", inputs: []domain.ProductInput{{ID: "P1", Price: decimal.NewFromInt(1)}}, field: "products[0].name"},
			{name: "NegativeStock", inputs: []domain.ProductInput{{ID: "P1", Name: "Coffee", Price: decimal.NewFromInt(1), Stock: -1}}, field: "products[0].stock"},
			{name: "ZeroPrice", inputs: []domain.ProductInput{{ID: "P1", Name: "Coffee"}}, field: "products[0].price"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				store, cache := new(MockProductStore), new(MockListingCache)
				svc := NewCatalogService(store, cache, time.Minute)

				_, err := svc.Upsert(ctx, tt.inputs)
				require.Error(t, err)
				assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
				assert.Contains(t, apperror.As(err).Details(), tt.field)
				store.AssertNotCalled(t, "UpsertProducts", mock.Anything, mock.Anything)
			})
		}
	})
}

func TestCatalogService_Deactivate(t *testing.T) {
	ctx := context.Background()
	store, cache := new(MockProductStore), new(MockListingCache)
	svc := NewCatalogService(store, cache, time.Minute)

	store.On("DeactivateProduct", ctx, "P1").Return(nil).Once()
	cache.On("Delete", ctx).Return(nil).Once()
	require.NoError(t, svc.Deactivate(ctx, "P1"))

	store.On("DeactivateProduct", ctx, "P9").Return(ordersdomain.ErrProductNotFound).Once()
	assert.ErrorIs(t, svc.Deactivate(ctx, "P9"), ordersdomain.ErrProductNotFound)

	cache.AssertNumberOfCalls(t, "Delete", 1)
}

func TestCatalogService_Import(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("Success", func(t *testing.T) {
		path := filepath.Join(dir, "products.json")
		require.NoError(t, os.WriteFile(path, []byte(`[
			{"id":"P1","name":"Coffee","price":"50000","stock":5},
			{"id":"P2","name":"Mug","price":20000,"stock":1,"active":false}
		]`), 0o600))

		store, cache := new(MockProductStore), new(MockListingCache)
		svc := NewCatalogService(store, cache, time.Minute)
		store.On("UpsertProducts", ctx, mock.MatchedBy(func(products []ordersdomain.Product) bool {
			return len(products) == 2 && products[0].Active && !products[1].Active
		})).Return(nil).Once()
		cache.On("Delete", ctx).Return(nil).Once()

		n, err := svc.Import(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("Empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

		svc := NewCatalogService(new(MockProductStore), new(MockListingCache), time.Minute)
		_, err := svc.Import(ctx, path)
		assert.ErrorIs(t, err, domain.ErrEmptyImport)
	})

	t.Run("MissingFile", func(t *testing.T) {
		svc := NewCatalogService(new(MockProductStore), new(MockListingCache), time.Minute)
		_, err := svc.Import(ctx, filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})
}
