package wompi

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Transaction statuses reported by the gateway.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusDeclined = "DECLINED"
	StatusError    = "ERROR"
	StatusVoided   = "VOIDED"
)

// CardRequest is the body of POST /tokens/cards.
type CardRequest struct {
	Number     string `json:"number"`
	CVC        string `json:"cvc"`
	ExpMonth   string `json:"exp_month"`
	ExpYear    string `json:"exp_year"`
	CardHolder string `json:"card_holder"`
}

// CardToken is the data of a created card token.
type CardToken struct {
	ID        string `json:"id"`
	Brand     string `json:"brand"`
	Name      string `json:"name"`
	LastFour  string `json:"last_four"`
	ExpiresAt string `json:"expires_at"`
}

// PresignedAcceptance is the merchant's current terms acceptance token.
type PresignedAcceptance struct {
	AcceptanceToken string `json:"acceptance_token"`
	Permalink       string `json:"permalink"`
	Type            string `json:"type"`
}

// Merchant is the public merchant information.
type Merchant struct {
	ID                  int                 `json:"id"`
	Name                string              `json:"name"`
	PublicKey           string              `json:"public_key"`
	PresignedAcceptance PresignedAcceptance `json:"presigned_acceptance"`
}

// PaymentMethod is the payment_method object of a transaction request.
type PaymentMethod struct {
	Type               string `json:"type"`
	Token              string `json:"token,omitempty"`
	Installments       int    `json:"installments,omitempty"`
	PhoneNumber        string `json:"phone_number,omitempty"`
	UserType           string `json:"user_type,omitempty"`
	PaymentDescription string `json:"payment_description,omitempty"`
}

// TransactionRequest is the body of POST /transactions.
type TransactionRequest struct {
	AmountInCents   int64         `json:"amount_in_cents"`
	Currency        string        `json:"currency"`
	CustomerEmail   string        `json:"customer_email"`
	Reference       string        `json:"reference"`
	AcceptanceToken string        `json:"acceptance_token"`
	Signature       string        `json:"signature"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	RedirectURL     string        `json:"redirect_url,omitempty"`
	CustomerData    *CustomerData `json:"customer_data,omitempty"`
}

// CustomerData is the optional payer contact block of a transaction request.
type CustomerData struct {
	PhoneNumber string `json:"phone_number,omitempty"`
	FullName    string `json:"full_name,omitempty"`
}

// Transaction is the gateway view of a charge.
type Transaction struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	AmountInCents     int64     `json:"amount_in_cents"`
	Reference         string    `json:"reference"`
	Currency          string    `json:"currency"`
	PaymentMethodType string    `json:"payment_method_type"`
	PaymentMethod     struct {
		Extra struct {
			AsyncPaymentURL string `json:"async_payment_url"`
		} `json:"extra"`
	} `json:"payment_method"`
	Status        string `json:"status"`
	StatusMessage string `json:"status_message"`
}

// Event is a webhook notification.
type Event struct {
	Event string `json:"event"`
	Data  struct {
		Transaction Transaction `json:"transaction"`
	} `json:"data"`
	Environment string `json:"environment"`
	Signature   struct {
		Properties []string `json:"properties"`
		Checksum   string   `json:"checksum"`
	} `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	SentAt    string `json:"sent_at"`
}

// APIError is the error envelope returned by the gateway.
type APIError struct {
	StatusCode int                 `json:"-"`
	Type       string              `json:"type"`
	Reason     string              `json:"reason"`
	Messages   map[string][]string `json:"messages"`
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("wompi: %d %s: %s", e.StatusCode, e.Type, e.Reason)
	}
	return fmt.Sprintf("wompi: %d %s", e.StatusCode, e.Type)
}

// FieldMessages flattens Messages into one line per field.
func (e *APIError) FieldMessages() map[string]string {
	out := make(map[string]string, len(e.Messages))
	for field, msgs := range e.Messages {
		out[field] = strings.Join(msgs, "; ")
	}
	return out
}

// Summary returns a readable one-line description of the failure.
func (e *APIError) Summary() string {
	if e.Reason != "" {
		return e.Reason
	}
	if len(e.Messages) == 0 {
		return e.Type
	}

	fields := make([]string, 0, len(e.Messages))
	for field := range e.Messages {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e.Messages[field], ", "))
	}
	return strings.Join(parts, "; ")
}
