package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/features/cart/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory ports.LedgerStore.
type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}}
}

func (m *memoryStore) Load(_ context.Context, sessionID string) (*domain.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	l := domain.NewLedger()
	if raw, ok := m.data[sessionID]; ok {
		if err := l.UnmarshalBinary(raw); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (m *memoryStore) Save(_ context.Context, sessionID string, ledger *domain.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := ledger.MarshalBinary()
	if err != nil {
		return err
	}
	m.data[sessionID] = raw
	return nil
}

func (m *memoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

// MockObserver is a mock implementation of ports.LedgerObserver
type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) LedgerChanged(ctx context.Context, sessionID string, ledger *domain.Ledger) {
	m.Called(ctx, sessionID, ledger)
}

func mug(qty int) domain.CartLine {
	return domain.CartLine{ProductID: "p1", Name: "Mug", UnitPrice: decimal.NewFromInt(50000), Quantity: qty}
}

func TestCartService_AddItem(t *testing.T) {
	svc := NewCartService(newMemoryStore())
	observer := new(MockObserver)
	svc.Observe(observer)
	ctx := context.Background()

	observer.On("LedgerChanged", ctx, "s1", mock.AnythingOfType("*domain.Ledger")).Return().Twice()

	_, err := svc.AddItem(ctx, "s1", mug(2))
	require.NoError(t, err)
	ledger, err := svc.AddItem(ctx, "s1", mug(3))
	require.NoError(t, err)

	assert.Equal(t, 5, ledger.TotalItems())
	assert.Equal(t, "250000", ledger.TotalAmount().String())

	stored, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, ledger.Lines(), stored.Lines())
	observer.AssertExpectations(t)
}

func TestCartService_Rejections(t *testing.T) {
	svc := NewCartService(newMemoryStore())
	observer := new(MockObserver)
	svc.Observe(observer)
	ctx := context.Background()

	observer.On("LedgerChanged", ctx, "s1", mock.Anything).Return().Once()
	_, err := svc.AddItem(ctx, "s1", mug(1))
	require.NoError(t, err)

	t.Run("ZeroQuantity", func(t *testing.T) {
		_, err := svc.SetQuantity(ctx, "s1", "p1", 0)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("NegativeQuantity", func(t *testing.T) {
		_, err := svc.SetQuantity(ctx, "s1", "p1", -1)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})

	t.Run("QuantityAboveMax", func(t *testing.T) {
		_, err := svc.SetQuantity(ctx, "s1", "p1", domain.MaxQuantity+1)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		assert.ErrorIs(t, err, domain.ErrQuantityTooLarge)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		_, err := svc.RemoveItem(ctx, "s1", "nope")
		assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
	})

	ledger, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.TotalItems())
	observer.AssertExpectations(t)
}

func TestCartService_Clear(t *testing.T) {
	svc := NewCartService(newMemoryStore())
	observer := new(MockObserver)
	svc.Observe(observer)
	ctx := context.Background()

	observer.On("LedgerChanged", ctx, "s1", mock.Anything).Return().Once()
	_, err := svc.AddItem(ctx, "s1", mug(2))
	require.NoError(t, err)

	observer.On("LedgerChanged", ctx, "s1", mock.MatchedBy(func(l *domain.Ledger) bool {
		return l.IsEmpty()
	})).Return().Once()
	require.NoError(t, svc.Clear(ctx, "s1"))

	ledger, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ledger.IsEmpty())
	observer.AssertExpectations(t)
}

func TestCartService_StoreError(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("redis down")
	svc := NewCartService(store)

	_, err := svc.AddItem(context.Background(), "s1", mug(1))
	assert.True(t, apperror.IsCode(err, apperror.CodeInternal))

	_, err = svc.Get(context.Background(), "s1")
	assert.True(t, apperror.IsCode(err, apperror.CodeInternal))
}

func TestCartService_ConcurrentAdds(t *testing.T) {
	svc := NewCartService(newMemoryStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.AddItem(ctx, "s1", mug(1))
		}()
	}
	wg.Wait()

	ledger, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 20, ledger.TotalItems())
}
