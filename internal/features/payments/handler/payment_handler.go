package handler

import (
	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/session"
	"checkout-engine/internal/features/payments/domain"
	"checkout-engine/internal/features/payments/ports"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles the payment step: acceptance terms, submission and the status screen.
type PaymentHandler struct {
	service ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service: service,
	}
}

// RegisterRoutes mounts the payment routes.
func (h *PaymentHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/checkout/acceptance", h.AcceptanceTerms)
	r.Post("/checkout/payments", h.Submit)
	r.Get("/checkout/status", h.Status)
	r.Post("/checkout/status/close", h.CloseStatus)
}

// AcceptanceTerms handles GET /checkout/acceptance.
// @Summary Get the acceptance terms
// @Description Returns the acceptance token and terms permalink the shopper must accept before paying.
// @Tags Payments
// @Produce json
// @Success 200 {object} domain.Acceptance
// @Failure 503 {object} apperror.ErrorResponse
// @Router /checkout/acceptance [get]
func (h *PaymentHandler) AcceptanceTerms(c *fiber.Ctx) error {
	acceptance, err := h.service.AcceptanceTerms(c.UserContext())
	if err != nil {
		return apperror.Write(c, err)
	}
	return c.JSON(acceptance)
}

// Submit handles POST /checkout/payments.
// @Summary Submit the payment
// @Description Tokenizes the card when needed, resolves the customer and address, and places the order.
// @Description A PENDING result is followed on GET /checkout/status.
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Param request body domain.SubmitRequest true "Payment"
// @Success 200 {object} domain.SubmitResult
// @Success 202 {object} domain.SubmitResult
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 409 {object} apperror.ErrorResponse
// @Failure 422 {object} apperror.ErrorResponse
// @Failure 502 {object} apperror.ErrorResponse
// @Router /checkout/payments [post]
func (h *PaymentHandler) Submit(c *fiber.Ctx) error {
	var req domain.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Write(c, apperror.Wrap(apperror.CodeValidation, err, "invalid request body"))
	}

	result, err := h.service.Submit(c.UserContext(), session.ID(c), req)
	if err != nil {
		return apperror.Write(c, err)
	}

	status := fiber.StatusOK
	if !result.Finished {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(result)
}

// Status handles GET /checkout/status.
// @Summary Get the transaction status
// @Tags Payments
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Success 200 {object} domain.StatusView
// @Failure 404 {object} apperror.ErrorResponse
// @Router /checkout/status [get]
func (h *PaymentHandler) Status(c *fiber.Ctx) error {
	return h.respond(c)(h.service.Status(c.UserContext(), session.ID(c)))
}

// CloseStatus handles POST /checkout/status/close.
// @Summary Dismiss the status screen
// @Description Approved payments finish the checkout; rejected ones return the shopper to the payment step.
// @Tags Payments
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Success 200 {object} domain.StatusView
// @Failure 404 {object} apperror.ErrorResponse
// @Router /checkout/status/close [post]
func (h *PaymentHandler) CloseStatus(c *fiber.Ctx) error {
	return h.respond(c)(h.service.CloseStatus(c.UserContext(), session.ID(c)))
}

func (h *PaymentHandler) respond(c *fiber.Ctx) func(domain.StatusView, error) error {
	return func(view domain.StatusView, err error) error {
		if err != nil {
			return apperror.Write(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(view)
	}
}
