package handler

import (
	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/session"
	"checkout-engine/internal/core/validation"
	"checkout-engine/internal/features/cart/domain"
	"checkout-engine/internal/features/cart/ports"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CartHandler handles HTTP requests for the session cart.
type CartHandler struct {
	service ports.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service ports.CartService) *CartHandler {
	return &CartHandler{
		service: service,
	}
}

// RegisterRoutes mounts the cart routes.
func (h *CartHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/cart", h.GetCart)
	r.Post("/cart/items", h.AddItem)
	r.Patch("/cart/items/:productId", h.SetQuantity)
	r.Delete("/cart/items/:productId", h.RemoveItem)
}

// AddItemRequest represents the request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID   string          `json:"product_id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity" validate:"required,min=1,max=999"`
	Image       string          `json:"image"`
	StockStatus string          `json:"stock_status"`
	Tag         string          `json:"tag"`
}

// SetQuantityRequest represents the request body for changing a line quantity.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart handles GET /cart.
// @Summary Get the cart
// @Description Returns the session's cart lines and totals.
// @Tags Cart
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Success 200 {object} domain.LedgerView
// @Failure 500 {object} apperror.ErrorResponse
// @Router /cart [get]
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	ledger, err := h.service.Get(c.UserContext(), session.ID(c))
	if err != nil {
		return apperror.Write(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(ledger.View())
}

// AddItem handles POST /cart/items.
// @Summary Add a product
// @Description Adds a product to the cart; adding a product already present sums the quantities.
// @Tags Cart
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Param item body AddItemRequest true "Cart line"
// @Success 200 {object} domain.LedgerView
// @Failure 400 {object} apperror.ErrorResponse
// @Router /cart/items [post]
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Write(c, apperror.Wrap(apperror.CodeValidation, err, "invalid request body"))
	}
	if err := validation.Struct(req); err != nil {
		return apperror.Write(c, err)
	}

	ledger, err := h.service.AddItem(c.UserContext(), session.ID(c), domain.CartLine{
		ProductID:   req.ProductID,
		Name:        req.Name,
		UnitPrice:   req.UnitPrice,
		Quantity:    req.Quantity,
		Image:       req.Image,
		StockStatus: req.StockStatus,
		Tag:         req.Tag,
	})
	if err != nil {
		return apperror.Write(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(ledger.View())
}

// SetQuantity handles PATCH /cart/items/:productId.
// @Summary Change a quantity
// @Description Replaces the quantity of a cart line. Quantities below 1 are refused; use DELETE to remove a line.
// @Tags Cart
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Param productId path string true "Product ID"
// @Param quantity body SetQuantityRequest true "New quantity"
// @Success 200 {object} domain.LedgerView
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /cart/items/{productId} [patch]
func (h *CartHandler) SetQuantity(c *fiber.Ctx) error {
	var req SetQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Write(c, apperror.Wrap(apperror.CodeValidation, err, "invalid request body"))
	}

	ledger, err := h.service.SetQuantity(c.UserContext(), session.ID(c), c.Params("productId"), req.Quantity)
	if err != nil {
		return apperror.Write(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(ledger.View())
}

// RemoveItem handles DELETE /cart/items/:productId.
// @Summary Remove a product
// @Tags Cart
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Param productId path string true "Product ID"
// @Success 200 {object} domain.LedgerView
// @Failure 404 {object} apperror.ErrorResponse
// @Router /cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	ledger, err := h.service.RemoveItem(c.UserContext(), session.ID(c), c.Params("productId"))
	if err != nil {
		return apperror.Write(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(ledger.View())
}
