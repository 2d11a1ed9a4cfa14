package service

import (
	"context"
	"errors"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/logger"
	"checkout-engine/internal/core/session"
	"checkout-engine/internal/features/cart/domain"
	"checkout-engine/internal/features/cart/ports"

	"go.uber.org/zap"
)

// CartServiceImpl implements ports.CartService.
type CartServiceImpl struct {
	store     ports.LedgerStore
	locks     *session.Locks
	observers []ports.LedgerObserver
}

// NewCartService creates a new CartServiceImpl.
func NewCartService(store ports.LedgerStore) *CartServiceImpl {
	return &CartServiceImpl{
		store: store,
		locks: session.NewLocks(),
	}
}

// Observe registers an observer. It must be called before the service handles requests.
func (s *CartServiceImpl) Observe(o ports.LedgerObserver) {
	s.observers = append(s.observers, o)
}

// Get returns the session's ledger.
// Reads take no lock; stores replace whole snapshots so a read sees either the old or the new ledger.
func (s *CartServiceImpl) Get(ctx context.Context, sessionID string) (*domain.Ledger, error) {
	ledger, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, err, "failed to load cart")
	}
	return ledger, nil
}

// AddItem adds a line to the session's ledger.
func (s *CartServiceImpl) AddItem(ctx context.Context, sessionID string, line domain.CartLine) (*domain.Ledger, error) {
	return s.mutate(ctx, sessionID, func(l *domain.Ledger) error {
		return l.AddItem(line)
	})
}

// SetQuantity replaces the quantity of a line.
func (s *CartServiceImpl) SetQuantity(ctx context.Context, sessionID, productID string, qty int) (*domain.Ledger, error) {
	return s.mutate(ctx, sessionID, func(l *domain.Ledger) error {
		return l.SetQuantity(productID, qty)
	})
}

// RemoveItem deletes a line.
func (s *CartServiceImpl) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Ledger, error) {
	return s.mutate(ctx, sessionID, func(l *domain.Ledger) error {
		return l.RemoveItem(productID)
	})
}

// Clear empties the session's ledger.
func (s *CartServiceImpl) Clear(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	if err := s.store.Delete(ctx, sessionID); err != nil {
		unlock()
		return apperror.Wrap(apperror.CodeInternal, err, "failed to clear cart")
	}
	unlock()

	logger.ForSession(sessionID).Info("Cart cleared")
	s.notify(ctx, sessionID, domain.NewLedger())
	return nil
}

// mutate runs fn against the stored ledger under the session lock, saves the result
// and notifies observers once the lock is released.
func (s *CartServiceImpl) mutate(ctx context.Context, sessionID string, fn func(*domain.Ledger) error) (*domain.Ledger, error) {
	unlock := s.locks.Lock(sessionID)

	ledger, err := s.store.Load(ctx, sessionID)
	if err != nil {
		unlock()
		return nil, apperror.Wrap(apperror.CodeInternal, err, "failed to load cart")
	}

	if err := fn(ledger); err != nil {
		unlock()
		return nil, mapLedgerError(err)
	}

	if err := s.store.Save(ctx, sessionID, ledger); err != nil {
		unlock()
		return nil, apperror.Wrap(apperror.CodeInternal, err, "failed to save cart")
	}
	unlock()

	logger.ForSession(sessionID).Debug("Cart updated",
		zap.Int("total_items", ledger.TotalItems()),
		zap.String("total_amount", ledger.TotalAmount().String()),
	)

	s.notify(ctx, sessionID, ledger)
	return ledger, nil
}

func (s *CartServiceImpl) notify(ctx context.Context, sessionID string, ledger *domain.Ledger) {
	for _, o := range s.observers {
		o.LedgerChanged(ctx, sessionID, ledger)
	}
}

func mapLedgerError(err error) error {
	switch {
	case errors.Is(err, domain.ErrLineNotFound):
		return apperror.Wrap(apperror.CodeNotFound, err, "product is not in the cart")
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrQuantityTooLarge),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrMissingProductID):
		return apperror.Wrap(apperror.CodeValidation, err, err.Error())
	default:
		return apperror.Wrap(apperror.CodeInternal, err, "cart update failed")
	}
}
