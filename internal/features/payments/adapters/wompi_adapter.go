package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/wompi"
	"checkout-engine/internal/features/payments/domain"
)

// WompiAdapter implements ports.Gateway with the gateway's public-key endpoints.
type WompiAdapter struct {
	client *wompi.Client
}

// NewWompiAdapter creates a new WompiAdapter.
func NewWompiAdapter(client *wompi.Client) *WompiAdapter {
	return &WompiAdapter{
		client: client,
	}
}

// TokenizeCard exchanges the card for a single-use token.
// Gateway rejections become TOKENIZATION_ERROR with the gateway's field messages as details.
func (a *WompiAdapter) TokenizeCard(ctx context.Context, card domain.CardInstrument) (string, error) {
	token, err := a.client.TokenizeCard(ctx, wompi.CardRequest{
		Number:     digitsOnly(card.Number),
		CVC:        card.CVC,
		ExpMonth:   card.ExpMonth,
		ExpYear:    card.ExpYear,
		CardHolder: card.CardHolder,
	})
	if err != nil {
		var apiErr *wompi.APIError
		if errors.As(err, &apiErr) {
			return "", apperror.Wrap(apperror.CodeTokenization, err, "the card was rejected: "+apiErr.Summary()).
				WithDetails(apiErr.FieldMessages())
		}
		return "", apperror.Wrap(apperror.CodeTokenization, err, "the payment gateway could not be reached, please try again")
	}
	return token.ID, nil
}

// AcceptanceTerms returns the merchant's presigned acceptance.
func (a *WompiAdapter) AcceptanceTerms(ctx context.Context) (domain.Acceptance, error) {
	merchant, err := a.client.Merchant(ctx)
	if err != nil {
		return domain.Acceptance{}, fmt.Errorf("failed to fetch acceptance terms: %w", err)
	}
	if merchant.PresignedAcceptance.AcceptanceToken == "" {
		return domain.Acceptance{}, fmt.Errorf("merchant has no acceptance token")
	}
	return domain.Acceptance{
		AcceptanceToken: merchant.PresignedAcceptance.AcceptanceToken,
		Permalink:       merchant.PresignedAcceptance.Permalink,
	}, nil
}

// GetTransaction fetches a transaction and maps it to the domain.
func (a *WompiAdapter) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	tx, err := a.client.Transaction(ctx, id)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to fetch transaction %s: %w", id, err)
	}
	return MapTransaction(*tx), nil
}

// MapTransaction converts the gateway representation into the domain one.
func MapTransaction(tx wompi.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:            tx.ID,
		Status:        domain.TransactionStatus(tx.Status),
		AmountInCents: tx.AmountInCents,
		Currency:      tx.Currency,
		Method:        domain.MethodType(tx.PaymentMethodType),
		Reference:     tx.Reference,
		StatusMessage: tx.StatusMessage,
		RedirectURL:   tx.PaymentMethod.Extra.AsyncPaymentURL,
		CreatedAt:     tx.CreatedAt,
	}
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
