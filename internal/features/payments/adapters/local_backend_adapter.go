package adapters

import (
	"context"

	"checkout-engine/internal/core/apperror"
	checkoutdomain "checkout-engine/internal/features/checkout/domain"
	ordersdomain "checkout-engine/internal/features/orders/domain"
	ordersports "checkout-engine/internal/features/orders/ports"
	ordersservice "checkout-engine/internal/features/orders/service"
	"checkout-engine/internal/features/payments/domain"
)

// LocalBackendAdapter implements ports.Backend with the in-process order service.
type LocalBackendAdapter struct {
	orders ordersports.OrderService
}

// NewLocalBackendAdapter creates a new LocalBackendAdapter.
func NewLocalBackendAdapter(orders ordersports.OrderService) *LocalBackendAdapter {
	return &LocalBackendAdapter{orders: orders}
}

// GetOrCreateCustomer resolves the payer to a customer id.
func (a *LocalBackendAdapter) GetOrCreateCustomer(ctx context.Context, payer checkoutdomain.Payer) (string, error) {
	customer, err := a.orders.GetOrCreateCustomer(ctx, ordersdomain.CustomerInput{
		Email:    payer.Email,
		FullName: payer.FullName,
		UserID:   payer.UserID,
		Phone:    payer.Phone,
	})
	if err != nil {
		return "", recode(apperror.CodeResolution, err, "we could not identify the customer, please try again")
	}
	return customer.ID, nil
}

// CreateAddress stores the shipping address for the customer.
func (a *LocalBackendAdapter) CreateAddress(ctx context.Context, customerID string, address checkoutdomain.Address) (string, error) {
	created, err := a.orders.CreateAddress(ctx, ordersdomain.AddressInput{
		CustomerID:  customerID,
		AddressLine: address.AddressLine,
		City:        address.City,
		State:       address.State,
		Country:     address.Country,
		PostalCode:  address.PostalCode,
		Phone:       address.Phone,
	})
	if err != nil {
		return "", recode(apperror.CodeResolution, err, "we could not save the shipping address, please try again")
	}
	return created.ID, nil
}

// SubmitOrder creates the order and starts its charge.
func (a *LocalBackendAdapter) SubmitOrder(ctx context.Context, submission domain.OrderSubmission) (domain.OrderResult, error) {
	in := ordersdomain.CreateOrderInput{
		CustomerID: submission.CustomerID,
		AddressID:  submission.AddressID,
		Items:      make([]ordersdomain.ItemInput, 0, len(submission.Items)),
		Payment: ordersdomain.PaymentInput{
			Type:               string(submission.Payment.Type),
			Token:              submission.Payment.Token,
			Installments:       submission.Payment.Installments,
			PhoneNumber:        submission.Payment.PhoneNumber,
			UserType:           submission.Payment.UserType,
			PaymentDescription: submission.Payment.PaymentDescription,
			AcceptanceToken:    submission.Payment.AcceptanceToken,
			CustomerEmail:      submission.Payment.CustomerEmail,
		},
	}
	for _, line := range submission.Items {
		in.Items = append(in.Items, ordersdomain.ItemInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	if cd := submission.CustomerData; cd != nil {
		in.CustomerData = &ordersdomain.CustomerData{Email: cd.Email, FullName: cd.FullName, PhoneNumber: cd.PhoneNumber}
	}

	placement, err := a.orders.CreateOrder(ctx, in)
	if err != nil {
		return domain.OrderResult{}, recode(apperror.CodeSubmission, err, "the order could not be placed, please try again")
	}

	order := placement.Order
	result := domain.OrderResult{
		Success: true,
		Order: &domain.OrderSummary{
			ID:        order.ID,
			Reference: order.Reference,
			Status:    string(order.Status),
			Total:     order.Total,
		},
	}
	if placement.TransactionID != "" {
		result.Data = &domain.TransactionRef{
			TransactionID: placement.TransactionID,
			Status:        domain.TransactionStatus(placement.TransactionStatus),
		}
	}
	return result, nil
}

// recode keeps the public message of an order error under the code the payment flow reports.
func recode(code apperror.Code, err error, fallback string) *apperror.Error {
	public := ordersservice.PublicError(err)
	msg := fallback
	if public.Code() != apperror.CodeInternal && public.Message() != "" {
		msg = public.Message()
	}
	return apperror.Wrap(code, err, msg)
}
