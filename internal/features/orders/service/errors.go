package service

import (
	"errors"
	"strings"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/features/orders/domain"
)

// PublicError maps an OrderService error to a coded error safe to show to callers.
func PublicError(err error) *apperror.Error {
	if typed := apperror.As(err); typed != nil {
		return typed
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return apperror.Wrap(apperror.CodeNotFound, err, "Order not found")
	case errors.Is(err, domain.ErrEmailMismatch):
		return apperror.Wrap(apperror.CodeUnauthorized, err, "Email mismatch")
	case errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrAddressMismatch):
		return apperror.Wrap(apperror.CodeResolution, err, capitalize(err.Error()))
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrOutOfStock):
		return apperror.Wrap(apperror.CodeConflict, err, capitalize(err.Error()))
	case errors.Is(err, domain.ErrChargeRejected):
		return apperror.Wrap(apperror.CodeSubmission, err, capitalize(err.Error()))
	}
	return apperror.Wrap(apperror.CodeInternal, err, "")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
