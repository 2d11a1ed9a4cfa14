package ports

import (
	"context"

	cartdomain "checkout-engine/internal/features/cart/domain"
	"checkout-engine/internal/features/checkout/domain"
)

// ContainerStore persists the snapshot of a session's checkout.
// This is a Secondary Port (Driven Port).
type ContainerStore interface {
	// Load returns the stored snapshot, or nil when nothing is stored.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)
	// Save replaces the stored snapshot.
	Save(ctx context.Context, sessionID string, snapshot domain.Snapshot) error
	// Delete drops the stored snapshot.
	Delete(ctx context.Context, sessionID string) error
}

// LedgerReader gives read access to the session's cart.
type LedgerReader interface {
	Get(ctx context.Context, sessionID string) (*cartdomain.Ledger, error)
}

// TransactionObserver is notified when a session's transaction is dropped by navigation, guards or reset.
type TransactionObserver interface {
	TransactionCleared(ctx context.Context, sessionID, transactionID string)
}

// CheckoutService defines the checkout operations of a session.
// Every call resolves the step guards against the current cart before returning.
// This is a Primary Port (Driving Port).
type CheckoutService interface {
	Get(ctx context.Context, sessionID string) (domain.Container, error)
	Continue(ctx context.Context, sessionID string) (domain.Container, error)
	Back(ctx context.Context, sessionID string) (domain.Container, error)
	GoTo(ctx context.Context, sessionID string, step domain.Step) (domain.Container, error)
	SetPayer(ctx context.Context, sessionID string, payer domain.Payer) (domain.Container, error)
	ClearPayer(ctx context.Context, sessionID string) (domain.Container, error)
	SetShipping(ctx context.Context, sessionID string, address domain.Address) (domain.Container, error)
	SetTransaction(ctx context.Context, sessionID, transactionID, method string) (domain.Container, error)
	ClearTransaction(ctx context.Context, sessionID string) (domain.Container, error)
	Reset(ctx context.Context, sessionID string) error
}
