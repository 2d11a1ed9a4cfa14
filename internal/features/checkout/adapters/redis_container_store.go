package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"checkout-engine/internal/core/cache"
	"checkout-engine/internal/core/logger"
	"checkout-engine/internal/features/checkout/domain"

	"go.uber.org/zap"
)

const containerKeyPrefix = "checkout-storage:"

// RedisContainerStore implements ports.ContainerStore on top of the cache port.
type RedisContainerStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRedisContainerStore creates a store whose entries expire after ttl of inactivity.
func NewRedisContainerStore(c cache.Cache, ttl time.Duration) *RedisContainerStore {
	return &RedisContainerStore{
		cache: c,
		ttl:   ttl,
	}
}

// Load retrieves the snapshot of a session. Missing or unreadable entries yield nil.
func (s *RedisContainerStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	data, err := s.cache.Get(ctx, containerKey(sessionID))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkout: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		logger.ForSession(sessionID).Warn("Discarding unreadable checkout", zap.Error(err))
		return nil, nil
	}
	return &snapshot, nil
}

// Save stores the snapshot and refreshes its expiry.
func (s *RedisContainerStore) Save(ctx context.Context, sessionID string, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout: %w", err)
	}

	if err := s.cache.Set(ctx, containerKey(sessionID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to save checkout: %w", err)
	}
	return nil
}

// Delete removes the stored snapshot.
func (s *RedisContainerStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, containerKey(sessionID)); err != nil {
		return fmt.Errorf("failed to delete checkout: %w", err)
	}
	return nil
}

func containerKey(sessionID string) string {
	return containerKeyPrefix + sessionID
}
