package service

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/logger"
	"checkout-engine/internal/core/session"
	"checkout-engine/internal/core/validation"
	cartdomain "checkout-engine/internal/features/cart/domain"
	"checkout-engine/internal/features/checkout/domain"
	"checkout-engine/internal/features/checkout/ports"

	"go.uber.org/zap"
)

// CheckoutServiceImpl implements ports.CheckoutService.
type CheckoutServiceImpl struct {
	store     ports.ContainerStore
	ledger    ports.LedgerReader
	locks     *session.Locks
	observers []ports.TransactionObserver

	// live holds containers carrying a transaction, which snapshots do not persist.
	mu   sync.Mutex
	live map[string]*domain.Container
}

// NewCheckoutService creates a new CheckoutServiceImpl.
func NewCheckoutService(store ports.ContainerStore, ledger ports.LedgerReader) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		store:  store,
		ledger: ledger,
		locks:  session.NewLocks(),
		live:   make(map[string]*domain.Container),
	}
}

// Observe registers an observer. It must be called before the service handles requests.
func (s *CheckoutServiceImpl) Observe(o ports.TransactionObserver) {
	s.observers = append(s.observers, o)
}

// Get returns the container after resolving the guards.
func (s *CheckoutServiceImpl) Get(ctx context.Context, sessionID string) (domain.Container, error) {
	return s.update(ctx, sessionID, nil)
}

// Continue advances one step.
func (s *CheckoutServiceImpl) Continue(ctx context.Context, sessionID string) (domain.Container, error) {
	return s.update(ctx, sessionID, func(c *domain.Container, ledgerEmpty bool) error {
		return c.Continue(ledgerEmpty)
	})
}

// Back returns to the previous step.
func (s *CheckoutServiceImpl) Back(ctx context.Context, sessionID string) (domain.Container, error) {
	return s.update(ctx, sessionID, func(c *domain.Container, _ bool) error {
		return c.Back()
	})
}

// GoTo jumps to an earlier step.
func (s *CheckoutServiceImpl) GoTo(ctx context.Context, sessionID string, step domain.Step) (domain.Container, error) {
	return s.update(ctx, sessionID, func(c *domain.Container, _ bool) error {
		return c.GoTo(step)
	})
}

// SetPayer records the payer while on the AUTH step.
func (s *CheckoutServiceImpl) SetPayer(ctx context.Context, sessionID string, payer domain.Payer) (domain.Container, error) {
	if err := validation.Struct(payer); err != nil {
		return domain.Container{}, err
	}
	return s.update(ctx, sessionID, func(c *domain.Container, _ bool) error {
		return c.SetPayer(payer)
	})
}

// ClearPayer forgets the payer.
func (s *CheckoutServiceImpl) ClearPayer(ctx context.Context, sessionID string) (domain.Container, error) {
	return s.update(ctx, sessionID, func(c *domain.Container, _ bool) error {
		c.ClearPayer()
		return nil
	})
}

// SetShipping records the shipping address.
func (s *CheckoutServiceImpl) SetShipping(ctx context.Context, sessionID string, address domain.Address) (domain.Container, error) {
	if err := validation.Struct(address); err != nil {
		return domain.Container{}, err
	}
	return s.update(ctx, sessionID, func(c *domain.Container, _ bool) error {
		c.SetShipping(address)
		return nil
	})
}

// SetTransaction records a submitted transaction. The session must be on the PAYMENT step.
func (s *CheckoutServiceImpl) SetTransaction(ctx context.Context, sessionID, transactionID, method string) (domain.Container, error) {
	return s.update(ctx, sessionID, func(c *domain.Container, _ bool) error {
		if c.ActiveStep != domain.StepPayment && c.ActiveStep != domain.StepStatus {
			return apperror.Newf(apperror.CodeConflict, "checkout is on step %s, not %s", c.ActiveStep, domain.StepPayment)
		}
		c.SetTransaction(transactionID, method)
		return nil
	})
}

// ClearTransaction forgets the current transaction.
func (s *CheckoutServiceImpl) ClearTransaction(ctx context.Context, sessionID string) (domain.Container, error) {
	return s.update(ctx, sessionID, func(c *domain.Container, _ bool) error {
		c.ClearTransaction()
		return nil
	})
}

// Reset drops the session's checkout entirely.
func (s *CheckoutServiceImpl) Reset(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)

	s.mu.Lock()
	var txID string
	if c, ok := s.live[sessionID]; ok {
		txID = c.TransactionID
		delete(s.live, sessionID)
	}
	s.mu.Unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil {
		unlock()
		return apperror.Wrap(apperror.CodeInternal, err, "failed to reset checkout")
	}
	unlock()

	logger.ForSession(sessionID).Info("Checkout reset")
	s.notifyCleared(ctx, sessionID, txID)
	return nil
}

// LedgerChanged re-runs the guards after a cart mutation.
func (s *CheckoutServiceImpl) LedgerChanged(ctx context.Context, sessionID string, ledger *cartdomain.Ledger) {
	if _, err := s.apply(ctx, sessionID, ledger.IsEmpty(), nil); err != nil {
		logger.ForSession(sessionID).Error("Failed to resolve checkout guards", zap.Error(err))
	}
}

func (s *CheckoutServiceImpl) update(ctx context.Context, sessionID string, fn func(*domain.Container, bool) error) (domain.Container, error) {
	ledger, err := s.ledger.Get(ctx, sessionID)
	if err != nil {
		return domain.Container{}, err
	}
	return s.apply(ctx, sessionID, ledger.IsEmpty(), fn)
}

// apply loads the container, runs fn and the guards, and commits the result under the session lock.
// Observers are notified after the lock is released.
func (s *CheckoutServiceImpl) apply(ctx context.Context, sessionID string, ledgerEmpty bool, fn func(*domain.Container, bool) error) (domain.Container, error) {
	unlock := s.locks.Lock(sessionID)

	c, err := s.load(ctx, sessionID)
	if err != nil {
		unlock()
		return domain.Container{}, apperror.Wrap(apperror.CodeInternal, err, "failed to load checkout")
	}
	before := c.Clone()

	if fn != nil {
		if err := fn(c, ledgerEmpty); err != nil {
			unlock()
			return domain.Container{}, mapDomainError(err)
		}
	}
	c.ApplyGuards(ledgerEmpty)

	if err := s.commit(ctx, sessionID, before, c); err != nil {
		unlock()
		return domain.Container{}, apperror.Wrap(apperror.CodeInternal, err, "failed to save checkout")
	}
	unlock()

	if before.ActiveStep != c.ActiveStep {
		logger.ForSession(sessionID).Debug("Checkout step changed",
			zap.String("from", string(before.ActiveStep)),
			zap.String("to", string(c.ActiveStep)),
		)
	}
	if before.TransactionID != c.TransactionID {
		s.notifyCleared(ctx, sessionID, before.TransactionID)
	}

	return *c.Clone(), nil
}

func (s *CheckoutServiceImpl) load(ctx context.Context, sessionID string) (*domain.Container, error) {
	s.mu.Lock()
	c, ok := s.live[sessionID]
	s.mu.Unlock()
	if ok {
		return c.Clone(), nil
	}

	snapshot, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return domain.NewContainer(), nil
	}
	return domain.Rehydrate(*snapshot), nil
}

func (s *CheckoutServiceImpl) commit(ctx context.Context, sessionID string, before, after *domain.Container) error {
	if !reflect.DeepEqual(before.Snapshot(), after.Snapshot()) {
		if err := s.store.Save(ctx, sessionID, after.Snapshot()); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if after.TransactionID != "" {
		s.live[sessionID] = after.Clone()
	} else {
		delete(s.live, sessionID)
	}
	return nil
}

// notifyCleared reports a dropped transaction; an empty id is ignored.
func (s *CheckoutServiceImpl) notifyCleared(ctx context.Context, sessionID, transactionID string) {
	if transactionID == "" {
		return
	}
	for _, o := range s.observers {
		o.TransactionCleared(ctx, sessionID, transactionID)
	}
}

func mapDomainError(err error) error {
	if apperror.As(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrPayerLocked):
		return apperror.Wrap(apperror.CodeConflict, err, err.Error())
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrPayerRequired),
		errors.Is(err, domain.ErrShippingRequired),
		errors.Is(err, domain.ErrTransactionRequired),
		errors.Is(err, domain.ErrNoNextStep),
		errors.Is(err, domain.ErrNoPreviousStep),
		errors.Is(err, domain.ErrForwardJump),
		errors.Is(err, domain.ErrInvalidStep),
		errors.Is(err, domain.ErrInvalidAction):
		return apperror.Wrap(apperror.CodeValidation, err, err.Error())
	default:
		return apperror.Wrap(apperror.CodeInternal, err, "checkout update failed")
	}
}
