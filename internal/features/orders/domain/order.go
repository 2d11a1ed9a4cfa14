package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderNotFound is returned when the order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrEmailMismatch is returned when the provided email does not match the order's email.
	ErrEmailMismatch = errors.New("email does not match order record")
	// ErrCustomerNotFound is returned when an address or order references an unknown customer.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrCustomerExists is returned when a customer with the same identity was stored first.
	ErrCustomerExists = errors.New("customer already exists")
	// ErrAddressNotFound is returned when an order references an unknown address.
	ErrAddressNotFound = errors.New("address not found")
	// ErrAddressMismatch is returned when the address does not belong to the order's customer.
	ErrAddressMismatch = errors.New("address does not belong to customer")
	// ErrProductNotFound is returned for unknown or inactive products.
	ErrProductNotFound = errors.New("product not found")
	// ErrOutOfStock is returned when a product cannot cover the requested quantity.
	ErrOutOfStock = errors.New("product is out of stock")
	// ErrChargeRejected is returned when the gateway refuses to start the charge.
	ErrChargeRejected = errors.New("payment could not be started")
)

// OrderStatus represents the current state of an order.
type OrderStatus string

const (
	// OrderStatusPending indicates the order waits for payment confirmation.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusPaid indicates the gateway approved the charge.
	OrderStatusPaid OrderStatus = "PAID"
	// OrderStatusFailed indicates the charge was declined or errored.
	OrderStatusFailed OrderStatus = "FAILED"
	// OrderStatusCancelled indicates the charge was voided.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// StatusForTransaction maps a gateway transaction status to an order status.
func StatusForTransaction(txStatus string) OrderStatus {
	switch txStatus {
	case "APPROVED":
		return OrderStatusPaid
	case "DECLINED", "ERROR":
		return OrderStatusFailed
	case "VOIDED":
		return OrderStatusCancelled
	}
	return OrderStatusPending
}

// ReleasesStock reports whether moving to s gives the reserved units back.
func (s OrderStatus) ReleasesStock() bool {
	return s == OrderStatusFailed || s == OrderStatusCancelled
}

// Customer is a buyer, identified by UserID when authenticated and by email otherwise.
// GuestEmail holds the normalized email of customers without a UserID and is unique, so
// concurrent guest checkouts with one email resolve to a single row.
type Customer struct {
	ID         string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	UserID     *string   `gorm:"column:user_id;type:varchar(64);uniqueIndex" json:"user_id,omitempty"`
	Email      string    `gorm:"column:email;not null;index" json:"email"`
	GuestEmail *string   `gorm:"column:guest_email;type:varchar(320);uniqueIndex" json:"-"`
	FullName   string    `gorm:"column:full_name;not null" json:"full_name"`
	Phone      *string   `gorm:"column:phone" json:"phone,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Address is a shipping address. Addresses are never updated; every checkout inserts a new one.
type Address struct {
	ID          string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	CustomerID  string    `gorm:"column:customer_id;type:varchar(36);not null;index" json:"customer_id"`
	AddressLine string    `gorm:"column:address_line;not null" json:"address_line"`
	City        string    `gorm:"column:city;not null" json:"city"`
	State       string    `gorm:"column:state;not null" json:"state"`
	PostalCode  *string   `gorm:"column:postal_code" json:"postal_code,omitempty"`
	Country     string    `gorm:"column:country;type:varchar(2);not null" json:"country"`
	Phone       string    `gorm:"column:phone" json:"phone"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// Product is a catalog entry. Orders are priced from here, never from the client.
type Product struct {
	ID        string          `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null" json:"price"`
	Stock     int             `gorm:"column:stock;not null;default:0" json:"stock"`
	Active    bool            `gorm:"column:active;not null" json:"active"`
	Image     string          `gorm:"column:image" json:"image,omitempty"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Order represents a customer order in the system.
type Order struct {
	// ID is the unique identifier for the order.
	ID string `gorm:"column:id;type:varchar(36);primaryKey" json:"order_id"`
	// Reference is the unique payment reference sent to the gateway.
	Reference  string      `gorm:"column:reference;type:varchar(32);not null;uniqueIndex" json:"reference"`
	CustomerID string      `gorm:"column:customer_id;type:varchar(36);not null;index" json:"customer_id"`
	AddressID  string      `gorm:"column:address_id;type:varchar(36);not null" json:"address_id"`
	Status     OrderStatus `gorm:"column:status;type:varchar(16);not null;default:'PENDING'" json:"status"`
	// Email is the contact email for the customer at the time of the order.
	Email    string          `gorm:"column:email;not null" json:"email"`
	Total    decimal.Decimal `gorm:"column:total;type:numeric(14,2);not null" json:"total"`
	Currency string          `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	// PaymentMethod is the gateway payment method type (CARD, NEQUI, ...).
	PaymentMethod     string      `gorm:"column:payment_method;type:varchar(32)" json:"payment_method"`
	TransactionID     string      `gorm:"column:transaction_id;type:varchar(64);index" json:"transaction_id,omitempty"`
	TransactionStatus string      `gorm:"column:transaction_status;type:varchar(16)" json:"transaction_status,omitempty"`
	Address           *Address    `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Items             []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt         time.Time   `gorm:"column:created_at;autoCreateTime" json:"create_date"`
	UpdatedAt         time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// AmountInCents returns the order total in the currency's minor unit.
func (o Order) AmountInCents() int64 {
	return o.Total.Shift(2).Round(0).IntPart()
}

// OrderItem is a priced snapshot of one product within an order.
type OrderItem struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	OrderID   string          `gorm:"column:order_id;type:varchar(36);not null;index" json:"-"`
	ProductID string          `gorm:"column:product_id;type:varchar(64);not null" json:"product_id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(14,2);not null" json:"subtotal"`
}

// Models lists the tables owned by the orders feature, in migration order.
func Models() []any {
	return []any{&Customer{}, &Address{}, &Product{}, &Order{}, &OrderItem{}}
}
