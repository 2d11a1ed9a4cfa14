package ports

import (
	"context"

	"checkout-engine/internal/features/cart/domain"
)

// LedgerStore persists the ledger of a session.
// This is a Secondary Port (Driven Port).
type LedgerStore interface {
	// Load returns the stored ledger, or an empty one when nothing is stored.
	Load(ctx context.Context, sessionID string) (*domain.Ledger, error)
	// Save replaces the stored ledger.
	Save(ctx context.Context, sessionID string, ledger *domain.Ledger) error
	// Delete drops the stored ledger.
	Delete(ctx context.Context, sessionID string) error
}

// LedgerObserver is notified after every committed ledger mutation.
type LedgerObserver interface {
	LedgerChanged(ctx context.Context, sessionID string, ledger *domain.Ledger)
}

// CartService defines the cart operations of a session.
// This is a Primary Port (Driving Port).
type CartService interface {
	// Get returns the session's ledger.
	Get(ctx context.Context, sessionID string) (*domain.Ledger, error)
	// AddItem adds a line, merging quantities with an existing line of the same product.
	AddItem(ctx context.Context, sessionID string, line domain.CartLine) (*domain.Ledger, error)
	// SetQuantity replaces the quantity of a line.
	SetQuantity(ctx context.Context, sessionID, productID string, qty int) (*domain.Ledger, error)
	// RemoveItem deletes a line.
	RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Ledger, error)
	// Clear empties the ledger.
	Clear(ctx context.Context, sessionID string) error
}
