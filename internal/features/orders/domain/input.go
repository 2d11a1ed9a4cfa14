package domain

// CustomerInput identifies a payer to resolve.
type CustomerInput struct {
	Email    string `json:"p_email" validate:"required,email"`
	FullName string `json:"p_full_name" validate:"required,max=150"`
	UserID   string `json:"p_user_id"`
	Phone    string `json:"p_phone"`
}

// AddressInput is a new shipping address of a customer.
type AddressInput struct {
	CustomerID  string `json:"p_customer_id" validate:"required"`
	AddressLine string `json:"p_address_line" validate:"required,max=200"`
	City        string `json:"p_city" validate:"required"`
	State       string `json:"p_state" validate:"required"`
	Country     string `json:"p_country" validate:"required,len=2"`
	PostalCode  string `json:"p_postal_code"`
	Phone       string `json:"p_phone"`
}

// ItemInput is one requested product. The price comes from the catalog.
type ItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

// PaymentInput describes how the order is charged.
type PaymentInput struct {
	Type               string `json:"type" validate:"required,oneof=CARD NEQUI BANCOLOMBIA_TRANSFER"`
	Token              string `json:"token,omitempty" validate:"required_if=Type CARD"`
	Installments       int    `json:"installments,omitempty"`
	PhoneNumber        string `json:"phone_number,omitempty" validate:"required_if=Type NEQUI"`
	UserType           string `json:"user_type,omitempty"`
	PaymentDescription string `json:"payment_description,omitempty"`
	AcceptanceToken    string `json:"acceptance_token" validate:"required"`
	CustomerEmail      string `json:"customer_email"`
}

// CustomerData carries contact details for the charge.
type CustomerData struct {
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// CreateOrderInput is the atomic order and charge request.
type CreateOrderInput struct {
	CustomerID   string        `json:"customer_id" validate:"required"`
	AddressID    string        `json:"address_id" validate:"required"`
	Items        []ItemInput   `json:"items" validate:"required,min=1,dive"`
	Payment      PaymentInput  `json:"payment"`
	CustomerData *CustomerData `json:"customer_data,omitempty"`
}

// Placement is the result of a successful CreateOrder.
type Placement struct {
	Order             *Order
	TransactionID     string
	TransactionStatus string
}

// ChargeRequest starts a gateway charge for an order.
type ChargeRequest struct {
	Reference     string
	AmountInCents int64
	Currency      string
	CustomerEmail string
	Payment       PaymentInput
	CustomerData  *CustomerData
}

// Charge is the transaction the gateway started.
type Charge struct {
	TransactionID string
	Status        string
}

// TransactionUpdate is a gateway notification about a transaction.
type TransactionUpdate struct {
	TransactionID string
	Reference     string
	Status        string
}
