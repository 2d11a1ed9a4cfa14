package domain

import (
	"errors"
	"fmt"
)

// MethodType names a payment method.
type MethodType string

const (
	MethodCard                MethodType = "CARD"
	MethodNequi               MethodType = "NEQUI"
	MethodBancolombiaTransfer MethodType = "BANCOLOMBIA_TRANSFER"
)

// ErrUnknownMethod is returned for method types the engine cannot pay with.
var ErrUnknownMethod = errors.New("unknown payment method")

// PaymentMethod is a tagged union over the supported methods.
type PaymentMethod interface {
	Type() MethodType
	// Payload renders the method for the order submission.
	Payload() MethodPayload
	// PendingInstructions tells the shopper what to do while the transaction is PENDING.
	PendingInstructions(tx Transaction) string
}

// MethodPayload is the wire rendering of a payment method. Only the fields of Type are set.
type MethodPayload struct {
	Type               MethodType `json:"type"`
	Token              string     `json:"token,omitempty"`
	Installments       int        `json:"installments,omitempty"`
	PhoneNumber        string     `json:"phone_number,omitempty"`
	UserType           string     `json:"user_type,omitempty"`
	PaymentDescription string     `json:"payment_description,omitempty"`
}

// CardMethod pays with a tokenized card.
type CardMethod struct {
	Token        string
	Installments int
}

func (m CardMethod) Type() MethodType { return MethodCard }

func (m CardMethod) Payload() MethodPayload {
	return MethodPayload{Type: MethodCard, Token: m.Token, Installments: m.Installments}
}

func (m CardMethod) PendingInstructions(Transaction) string {
	return "Your bank is confirming the payment. This usually takes a few seconds."
}

// NequiMethod pays with a push notification to a Nequi wallet.
type NequiMethod struct {
	PhoneNumber string
}

func (m NequiMethod) Type() MethodType { return MethodNequi }

func (m NequiMethod) Payload() MethodPayload {
	return MethodPayload{Type: MethodNequi, PhoneNumber: m.PhoneNumber}
}

func (m NequiMethod) PendingInstructions(Transaction) string {
	return fmt.Sprintf("Open the Nequi app on the phone %s and accept the payment notification.", maskPhone(m.PhoneNumber))
}

// AsyncMethod is a redirect based method such as BANCOLOMBIA_TRANSFER.
type AsyncMethod struct {
	MethodType  MethodType
	UserType    string
	Description string
}

func (m AsyncMethod) Type() MethodType { return m.MethodType }

func (m AsyncMethod) Payload() MethodPayload {
	return MethodPayload{Type: m.MethodType, UserType: m.UserType, PaymentDescription: m.Description}
}

func (m AsyncMethod) PendingInstructions(tx Transaction) string {
	if tx.RedirectURL != "" {
		return "Complete the payment on your bank's page: " + tx.RedirectURL
	}
	return "Complete the payment on your bank's page. We will update this screen when the bank confirms it."
}

// DecodeMethod rebuilds a method from its wire rendering.
func DecodeMethod(p MethodPayload) (PaymentMethod, error) {
	switch p.Type {
	case MethodCard:
		if p.Token == "" {
			return nil, errors.New("card payment requires a token")
		}
		installments := p.Installments
		if installments < 1 {
			installments = 1
		}
		return CardMethod{Token: p.Token, Installments: installments}, nil
	case MethodNequi:
		if p.PhoneNumber == "" {
			return nil, errors.New("nequi payment requires a phone number")
		}
		return NequiMethod{PhoneNumber: p.PhoneNumber}, nil
	case MethodBancolombiaTransfer:
		return AsyncMethod{MethodType: p.Type, UserType: p.UserType, Description: p.PaymentDescription}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, p.Type)
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return "***" + phone[len(phone)-4:]
}
