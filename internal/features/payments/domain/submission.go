package domain

import (
	"github.com/shopspring/decimal"
)

// SubmitRequest is what the shopper sends from the payment step.
// Card is only read for CARD; PhoneNumber only for NEQUI; UserType only for async methods.
type SubmitRequest struct {
	Method          MethodType      `json:"method" validate:"required,oneof=CARD NEQUI BANCOLOMBIA_TRANSFER"`
	Card            *CardInstrument `json:"card,omitempty"`
	Installments    int             `json:"installments" validate:"omitempty,min=1,max=36"`
	PhoneNumber     string          `json:"phone_number" validate:"omitempty,numeric,len=10"`
	UserType        string          `json:"user_type" validate:"omitempty,oneof=PERSON"`
	AcceptanceToken string          `json:"acceptance_token" validate:"required"`
	TermsAccepted   bool            `json:"terms_accepted"`
}

// OrderLine is one item of an order submission. Prices are resolved by the backend.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PaymentPayload is the payment block of an order submission.
type PaymentPayload struct {
	MethodPayload
	AcceptanceToken string `json:"acceptance_token"`
	CustomerEmail   string `json:"customer_email"`
}

// CustomerData carries contact details for the charge.
type CustomerData struct {
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// OrderSubmission is the single call that creates the order and starts the charge.
type OrderSubmission struct {
	CustomerID   string         `json:"customer_id"`
	AddressID    string         `json:"address_id"`
	Items        []OrderLine    `json:"items"`
	Payment      PaymentPayload `json:"payment"`
	CustomerData *CustomerData  `json:"customer_data,omitempty"`
}

// OrderSummary describes the created order.
type OrderSummary struct {
	ID        string          `json:"id"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
}

// TransactionRef is the gateway transaction started by a submission.
type TransactionRef struct {
	TransactionID string            `json:"transaction_id"`
	Status        TransactionStatus `json:"status"`
}

// OrderResult is the backend answer to a submission.
type OrderResult struct {
	Success bool            `json:"success"`
	Order   *OrderSummary   `json:"order,omitempty"`
	Data    *TransactionRef `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// TransactionID returns the started transaction, or "" when no async confirmation follows.
func (r OrderResult) TransactionID() string {
	if r.Data == nil {
		return ""
	}
	return r.Data.TransactionID
}

// SubmitResult is returned to the shopper after a successful submission.
type SubmitResult struct {
	OrderID       string            `json:"order_id,omitempty"`
	Reference     string            `json:"reference,omitempty"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Status        TransactionStatus `json:"status,omitempty"`
	// Finished is true when the cart was cleared without waiting for a transaction.
	Finished     bool   `json:"finished"`
	Instructions string `json:"instructions,omitempty"`
}

// StatusView is the transaction status screen.
type StatusView struct {
	TransactionID string            `json:"transaction_id"`
	Method        MethodType        `json:"payment_method"`
	Status        TransactionStatus `json:"status"`
	Terminal      bool              `json:"terminal"`
	Rejected      bool              `json:"rejected"`
	// Finished is true once the cart was cleared and the checkout reset.
	Finished     bool   `json:"finished"`
	Message      string `json:"message,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	RedirectURL  string `json:"redirect_url,omitempty"`
	Polls        int    `json:"polls"`
}
