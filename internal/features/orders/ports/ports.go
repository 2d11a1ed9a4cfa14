package ports

import (
	"context"

	"checkout-engine/internal/features/orders/domain"

	"gorm.io/gorm"
)

// Repository persists customers, addresses, products and orders.
// This is a Secondary Port (Driven Port).
type Repository interface {
	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) Repository

	FindCustomer(ctx context.Context, id string) (*domain.Customer, error)
	FindCustomerByUserID(ctx context.Context, userID string) (*domain.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	UpdateCustomer(ctx context.Context, customer *domain.Customer) error

	FindAddress(ctx context.Context, id string) (*domain.Address, error)
	CreateAddress(ctx context.Context, address *domain.Address) error

	// FindProducts returns the active products among ids.
	FindProducts(ctx context.Context, ids []string) ([]domain.Product, error)
	// ListProducts returns the active products.
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// UpsertProducts creates or replaces catalog entries.
	UpsertProducts(ctx context.Context, products []domain.Product) error
	// DeactivateProduct hides a product from new orders.
	DeactivateProduct(ctx context.Context, id string) error
	// ReserveStock decrements stock, failing with domain.ErrOutOfStock when it would go negative.
	ReserveStock(ctx context.Context, productID string, qty int) error
	// ReleaseStock gives reserved units back.
	ReleaseStock(ctx context.Context, productID string, qty int) error

	CreateOrder(ctx context.Context, order *domain.Order) error
	// FindOrder loads an order with its items and address. Missing orders yield domain.ErrOrderNotFound.
	FindOrder(ctx context.Context, id string) (*domain.Order, error)
	FindOrderByReference(ctx context.Context, reference string) (*domain.Order, error)
	UpdatePayment(ctx context.Context, order *domain.Order) error
}

// Charger starts gateway charges with the merchant's private credentials.
// This is a Secondary Port (Driven Port).
type Charger interface {
	Charge(ctx context.Context, req domain.ChargeRequest) (domain.Charge, error)
}

// OrderService is the trusted backend boundary.
// This is a Primary Port (Driving Port).
type OrderService interface {
	// GetOrCreateCustomer returns the customer of a payer, creating it when needed.
	GetOrCreateCustomer(ctx context.Context, in domain.CustomerInput) (*domain.Customer, error)
	// CreateAddress always inserts a new address.
	CreateAddress(ctx context.Context, in domain.AddressInput) (*domain.Address, error)
	// CreateOrder prices the items, reserves stock, stores the order and starts the charge atomically.
	CreateOrder(ctx context.Context, in domain.CreateOrderInput) (*domain.Placement, error)
	// GetOrder returns an order when email matches its contact email.
	GetOrder(ctx context.Context, orderID, email string) (*domain.Order, error)
	// ApplyTransactionUpdate records a gateway status change on the matching order.
	ApplyTransactionUpdate(ctx context.Context, update domain.TransactionUpdate) (*domain.Order, error)
}
