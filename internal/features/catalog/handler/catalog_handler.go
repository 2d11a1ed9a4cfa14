package handler

import (
	"errors"

	"checkout-engine/internal/core/apikey"
	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/features/catalog/domain"
	"checkout-engine/internal/features/catalog/ports"
	ordersdomain "checkout-engine/internal/features/orders/domain"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler handles HTTP requests for the product catalog.
type CatalogHandler struct {
	service ports.CatalogService
	apiKey  string
}

// NewCatalogHandler creates a new CatalogHandler. Writes require apiKey when it is set.
func NewCatalogHandler(service ports.CatalogService, apiKey string) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		apiKey:  apiKey,
	}
}

// RegisterRoutes mounts the catalog routes.
func (h *CatalogHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/catalog/products", h.ListProducts)

	admin := apikey.Middleware(h.apiKey)
	r.Put("/catalog/products", admin, h.UpsertProducts)
	r.Delete("/catalog/products/:id", admin, h.DeactivateProduct)
}

// UpsertProductsRequest represents the request body for updating the catalog.
type UpsertProductsRequest struct {
	Products []domain.ProductInput `json:"products"`
}

// ListProducts handles GET /catalog/products.
// @Summary List products
// @Description Returns the active catalog. Prices shown here are the prices orders are charged at.
// @Tags Catalog
// @Produce json
// @Success 200 {object} domain.Listing
// @Failure 500 {object} apperror.ErrorResponse
// @Router /catalog/products [get]
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	listing, err := h.service.List(c.UserContext())
	if err != nil {
		return apperror.Write(c, err)
	}
	return c.JSON(listing)
}

// UpsertProducts handles PUT /catalog/products.
// @Summary Create or replace products
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body UpsertProductsRequest true "Products"
// @Success 200 {object} map[string]int
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /catalog/products [put]
func (h *CatalogHandler) UpsertProducts(c *fiber.Ctx) error {
	var req UpsertProductsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Write(c, apperror.Wrap(apperror.CodeValidation, err, "invalid request body"))
	}

	n, err := h.service.Upsert(c.UserContext(), req.Products)
	if err != nil {
		return apperror.Write(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}

// DeactivateProduct handles DELETE /catalog/products/:id.
// @Summary Deactivate a product
// @Description Hides the product from the storefront and from new orders.
// @Tags Catalog
// @Param id path string true "Product ID"
// @Success 204
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /catalog/products/{id} [delete]
func (h *CatalogHandler) DeactivateProduct(c *fiber.Ctx) error {
	if err := h.service.Deactivate(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, ordersdomain.ErrProductNotFound) {
			return apperror.Write(c, apperror.Wrap(apperror.CodeNotFound, err, "product not found"))
		}
		return apperror.Write(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
