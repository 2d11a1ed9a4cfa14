package adapters

import (
	"context"
	"errors"
	"fmt"

	"checkout-engine/internal/core/wompi"
	"checkout-engine/internal/features/orders/domain"
)

// WompiCharger implements ports.Charger with the gateway's server-side transaction API.
type WompiCharger struct {
	client *wompi.Client
	// redirectURL is where async methods send the shopper back after paying.
	redirectURL string
}

// NewWompiCharger creates a charger. redirectURL may be empty.
func NewWompiCharger(client *wompi.Client, redirectURL string) *WompiCharger {
	return &WompiCharger{client: client, redirectURL: redirectURL}
}

// Charge creates a signed gateway transaction for the order reference.
// Gateway refusals are reported as domain.ErrChargeRejected.
func (c *WompiCharger) Charge(ctx context.Context, req domain.ChargeRequest) (domain.Charge, error) {
	body := wompi.TransactionRequest{
		AmountInCents:   req.AmountInCents,
		Currency:        req.Currency,
		CustomerEmail:   req.CustomerEmail,
		Reference:       req.Reference,
		AcceptanceToken: req.Payment.AcceptanceToken,
		PaymentMethod: wompi.PaymentMethod{
			Type:               req.Payment.Type,
			Token:              req.Payment.Token,
			Installments:       req.Payment.Installments,
			PhoneNumber:        req.Payment.PhoneNumber,
			UserType:           req.Payment.UserType,
			PaymentDescription: req.Payment.PaymentDescription,
		},
		RedirectURL: c.redirectURL,
	}
	if req.Payment.Type == "CARD" && body.PaymentMethod.Installments < 1 {
		body.PaymentMethod.Installments = 1
	}
	if req.CustomerData != nil {
		body.CustomerData = &wompi.CustomerData{
			PhoneNumber: req.CustomerData.PhoneNumber,
			FullName:    req.CustomerData.FullName,
		}
	}

	tx, err := c.client.CreateTransaction(ctx, body)
	if err != nil {
		var apiErr *wompi.APIError
		if errors.As(err, &apiErr) {
			return domain.Charge{}, fmt.Errorf("%w: %s", domain.ErrChargeRejected, apiErr.Summary())
		}
		return domain.Charge{}, fmt.Errorf("creating gateway transaction: %w", err)
	}

	status := tx.Status
	if status == "" {
		status = wompi.StatusPending
	}
	return domain.Charge{TransactionID: tx.ID, Status: status}, nil
}
