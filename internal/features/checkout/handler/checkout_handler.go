package handler

import (
	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/session"
	"checkout-engine/internal/features/checkout/domain"
	"checkout-engine/internal/features/checkout/ports"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles HTTP requests for the checkout step machine.
type CheckoutHandler struct {
	service ports.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service ports.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
	}
}

// RegisterRoutes mounts the checkout routes.
func (h *CheckoutHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/checkout", h.GetCheckout)
	r.Post("/checkout/continue", h.Continue)
	r.Post("/checkout/back", h.Back)
	r.Post("/checkout/step", h.GoTo)
	r.Put("/checkout/payer", h.SetPayer)
	r.Delete("/checkout/payer", h.ClearPayer)
	r.Put("/checkout/shipping", h.SetShipping)
}

// GoToRequest selects an earlier step.
type GoToRequest struct {
	Step string `json:"step"`
}

// GetCheckout handles GET /checkout.
// @Summary Get the checkout state
// @Description Returns the checkout container after the step guards ran against the current cart.
// @Tags Checkout
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Success 200 {object} domain.Container
// @Failure 500 {object} apperror.ErrorResponse
// @Router /checkout [get]
func (h *CheckoutHandler) GetCheckout(c *fiber.Ctx) error {
	return h.respond(c)(h.service.Get(c.UserContext(), session.ID(c)))
}

// Continue handles POST /checkout/continue.
// @Summary Advance one step
// @Tags Checkout
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Success 200 {object} domain.Container
// @Failure 400 {object} apperror.ErrorResponse
// @Router /checkout/continue [post]
func (h *CheckoutHandler) Continue(c *fiber.Ctx) error {
	return h.respond(c)(h.service.Continue(c.UserContext(), session.ID(c)))
}

// Back handles POST /checkout/back.
// @Summary Return one step
// @Tags Checkout
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Success 200 {object} domain.Container
// @Failure 400 {object} apperror.ErrorResponse
// @Router /checkout/back [post]
func (h *CheckoutHandler) Back(c *fiber.Ctx) error {
	return h.respond(c)(h.service.Back(c.UserContext(), session.ID(c)))
}

// GoTo handles POST /checkout/step.
// @Summary Jump to an earlier step
// @Tags Checkout
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Param step body GoToRequest true "Target step"
// @Success 200 {object} domain.Container
// @Failure 400 {object} apperror.ErrorResponse
// @Router /checkout/step [post]
func (h *CheckoutHandler) GoTo(c *fiber.Ctx) error {
	var req GoToRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Write(c, apperror.Wrap(apperror.CodeValidation, err, "invalid request body"))
	}

	step, err := domain.ParseStep(req.Step)
	if err != nil {
		return apperror.Write(c, apperror.Wrap(apperror.CodeValidation, err, err.Error()))
	}

	return h.respond(c)(h.service.GoTo(c.UserContext(), session.ID(c), step))
}

// SetPayer handles PUT /checkout/payer.
// @Summary Set the payer
// @Description Records who pays. Only allowed on the AUTH step.
// @Tags Checkout
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Param payer body domain.Payer true "Payer"
// @Success 200 {object} domain.Container
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 409 {object} apperror.ErrorResponse
// @Router /checkout/payer [put]
func (h *CheckoutHandler) SetPayer(c *fiber.Ctx) error {
	var payer domain.Payer
	if err := c.BodyParser(&payer); err != nil {
		return apperror.Write(c, apperror.Wrap(apperror.CodeValidation, err, "invalid request body"))
	}
	return h.respond(c)(h.service.SetPayer(c.UserContext(), session.ID(c), payer))
}

// ClearPayer handles DELETE /checkout/payer.
// @Summary Sign the payer out
// @Tags Checkout
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Success 200 {object} domain.Container
// @Router /checkout/payer [delete]
func (h *CheckoutHandler) ClearPayer(c *fiber.Ctx) error {
	return h.respond(c)(h.service.ClearPayer(c.UserContext(), session.ID(c)))
}

// SetShipping handles PUT /checkout/shipping.
// @Summary Set the shipping address
// @Tags Checkout
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Param address body domain.Address true "Shipping address"
// @Success 200 {object} domain.Container
// @Failure 400 {object} apperror.ErrorResponse
// @Router /checkout/shipping [put]
func (h *CheckoutHandler) SetShipping(c *fiber.Ctx) error {
	var address domain.Address
	if err := c.BodyParser(&address); err != nil {
		return apperror.Write(c, apperror.Wrap(apperror.CodeValidation, err, "invalid request body"))
	}
	return h.respond(c)(h.service.SetShipping(c.UserContext(), session.ID(c), address))
}

func (h *CheckoutHandler) respond(c *fiber.Ctx) func(domain.Container, error) error {
	return func(container domain.Container, err error) error {
		if err != nil {
			return apperror.Write(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(container)
	}
}
