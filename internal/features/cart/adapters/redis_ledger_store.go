package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkout-engine/internal/core/cache"
	"checkout-engine/internal/core/logger"
	"checkout-engine/internal/features/cart/domain"

	"go.uber.org/zap"
)

const ledgerKeyPrefix = "cart-storage:"

// RedisLedgerStore implements ports.LedgerStore on top of the cache port.
type RedisLedgerStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRedisLedgerStore creates a store whose entries expire after ttl of inactivity.
func NewRedisLedgerStore(c cache.Cache, ttl time.Duration) *RedisLedgerStore {
	return &RedisLedgerStore{
		cache: c,
		ttl:   ttl,
	}
}

// Load retrieves the ledger of a session. A missing or unreadable entry yields an empty ledger.
func (s *RedisLedgerStore) Load(ctx context.Context, sessionID string) (*domain.Ledger, error) {
	ledger := domain.NewLedger()

	data, err := s.cache.Get(ctx, ledgerKey(sessionID))
	if errors.Is(err, cache.ErrNotFound) {
		return ledger, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if err := ledger.UnmarshalBinary(data); err != nil {
		logger.ForSession(sessionID).Warn("Discarding unreadable cart", zap.Error(err))
		return domain.NewLedger(), nil
	}

	return ledger, nil
}

// Save stores the ledger and refreshes its expiry.
func (s *RedisLedgerStore) Save(ctx context.Context, sessionID string, ledger *domain.Ledger) error {
	data, err := ledger.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	if err := s.cache.Set(ctx, ledgerKey(sessionID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Delete removes the stored ledger.
func (s *RedisLedgerStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, ledgerKey(sessionID)); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func ledgerKey(sessionID string) string {
	return ledgerKeyPrefix + sessionID
}
