package domain

import "time"

// TransactionStatus is the gateway status of a charge.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusDeclined TransactionStatus = "DECLINED"
	StatusError    TransactionStatus = "ERROR"
	StatusVoided   TransactionStatus = "VOIDED"
)

// IsTerminal reports whether polling can stop.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusDeclined, StatusError, StatusVoided:
		return true
	}
	return false
}

// IsRejected reports a terminal status other than APPROVED.
func (s TransactionStatus) IsRejected() bool {
	return s.IsTerminal() && s != StatusApproved
}

func (s TransactionStatus) String() string {
	return string(s)
}

// Transaction is the gateway's view of a charge.
type Transaction struct {
	ID            string            `json:"id"`
	Status        TransactionStatus `json:"status"`
	AmountInCents int64             `json:"amount_in_cents"`
	Currency      string            `json:"currency"`
	Method        MethodType        `json:"payment_method_type"`
	Reference     string            `json:"reference"`
	StatusMessage string            `json:"status_message,omitempty"`
	// RedirectURL is where async methods complete the payment, when the gateway provides one.
	RedirectURL string    `json:"redirect_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Acceptance is the merchant's terms acceptance token and the document it refers to.
type Acceptance struct {
	AcceptanceToken string `json:"acceptance_token"`
	Permalink       string `json:"permalink"`
}
