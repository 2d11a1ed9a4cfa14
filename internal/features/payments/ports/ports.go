package ports

import (
	"context"

	cartdomain "checkout-engine/internal/features/cart/domain"
	checkoutdomain "checkout-engine/internal/features/checkout/domain"
	"checkout-engine/internal/features/payments/domain"
)

// Gateway is the browser-safe side of the payment gateway, authenticated with the public key.
// This is a Secondary Port (Driven Port).
type Gateway interface {
	// TokenizeCard exchanges raw card data for a single-use token.
	TokenizeCard(ctx context.Context, card domain.CardInstrument) (string, error)
	// AcceptanceTerms returns the merchant's current acceptance token.
	AcceptanceTerms(ctx context.Context) (domain.Acceptance, error)
	// GetTransaction fetches the current state of a transaction.
	GetTransaction(ctx context.Context, id string) (domain.Transaction, error)
}

// Backend is the trusted boundary that owns customers, addresses and orders.
// This is a Secondary Port (Driven Port).
type Backend interface {
	// GetOrCreateCustomer returns the customer id of the payer, creating it when needed.
	GetOrCreateCustomer(ctx context.Context, payer checkoutdomain.Payer) (string, error)
	// CreateAddress stores a new address for the customer and returns its id.
	CreateAddress(ctx context.Context, customerID string, address checkoutdomain.Address) (string, error)
	// SubmitOrder creates the order and starts the charge in one call.
	SubmitOrder(ctx context.Context, submission domain.OrderSubmission) (domain.OrderResult, error)
}

// Cart is the part of the cart service the payment flow needs.
type Cart interface {
	Get(ctx context.Context, sessionID string) (*cartdomain.Ledger, error)
	Clear(ctx context.Context, sessionID string) error
}

// Checkout is the part of the checkout service the payment flow needs.
type Checkout interface {
	Get(ctx context.Context, sessionID string) (checkoutdomain.Container, error)
	Back(ctx context.Context, sessionID string) (checkoutdomain.Container, error)
	SetTransaction(ctx context.Context, sessionID, transactionID, method string) (checkoutdomain.Container, error)
	ClearTransaction(ctx context.Context, sessionID string) (checkoutdomain.Container, error)
	Reset(ctx context.Context, sessionID string) error
}

// PaymentService defines the payment operations of a session.
// This is a Primary Port (Driving Port).
type PaymentService interface {
	// Submit validates, tokenizes, resolves the customer and address, and submits the order.
	Submit(ctx context.Context, sessionID string, req domain.SubmitRequest) (domain.SubmitResult, error)
	// AcceptanceTerms returns the acceptance token the shopper must accept.
	AcceptanceTerms(ctx context.Context) (domain.Acceptance, error)
	// Status returns the transaction status screen of the session.
	Status(ctx context.Context, sessionID string) (domain.StatusView, error)
	// CloseStatus dismisses the status screen.
	CloseStatus(ctx context.Context, sessionID string) (domain.StatusView, error)
}
