package handler

import (
	"checkout-engine/internal/core/apikey"
	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/logger"
	"checkout-engine/internal/core/wompi"
	"checkout-engine/internal/features/orders/domain"
	"checkout-engine/internal/features/orders/ports"
	"checkout-engine/internal/features/orders/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const transactionUpdatedEvent = "transaction.updated"

// EventVerifier checks webhook checksums.
type EventVerifier interface {
	VerifyEvent(event wompi.Event) bool
}

// OrderHandler serves the backend boundary: customer and address RPCs, the order function,
// order lookup and the gateway webhook.
type OrderHandler struct {
	// service is the OrderService instance.
	service ports.OrderService
	// verifier checks gateway webhook signatures.
	verifier EventVerifier
	// apiKey protects the RPC and function routes when set.
	apiKey string
	// orderFunction is the name the order function is served under.
	orderFunction string
}

// NewOrderHandler creates a new instance of OrderHandler.
func NewOrderHandler(s ports.OrderService, verifier EventVerifier, apiKey, orderFunction string) *OrderHandler {
	return &OrderHandler{
		service:       s,
		verifier:      verifier,
		apiKey:        apiKey,
		orderFunction: orderFunction,
	}
}

// RegisterRoutes mounts the backend routes.
func (h *OrderHandler) RegisterRoutes(r fiber.Router) {
	trusted := apikey.Middleware(h.apiKey)

	rpc := r.Group("/rest/v1/rpc", trusted)
	rpc.Post("/get_or_create_customer", h.GetOrCreateCustomer)
	rpc.Post("/create_checkout_address", h.CreateAddress)

	r.Post("/functions/v1/:name", trusted, h.CreateOrder)

	r.Get("/orders/:id", h.GetOrder)
	r.Post("/webhooks/wompi", h.Webhook)
}

// GetOrCreateCustomer handles the customer RPC.
// @Summary Get or create a customer
// @Description Idempotent by user id when present, else by email. Returns the customer id.
// @Tags Backend
// @Accept json
// @Produce json
// @Param request body domain.CustomerInput true "Customer"
// @Success 200 {string} string
// @Failure 400 {object} apperror.ErrorResponse
// @Router /rest/v1/rpc/get_or_create_customer [post]
func (h *OrderHandler) GetOrCreateCustomer(c *fiber.Ctx) error {
	var in domain.CustomerInput
	if err := c.BodyParser(&in); err != nil {
		return apperror.Write(c, apperror.Wrap(apperror.CodeValidation, err, "Invalid request body"))
	}

	customer, err := h.service.GetOrCreateCustomer(c.UserContext(), in)
	if err != nil {
		return apperror.Write(c, service.PublicError(err))
	}
	return c.JSON(customer.ID)
}

// CreateAddress handles the address RPC.
// @Summary Create a checkout address
// @Description Always inserts a new address for the customer. Returns the address id.
// @Tags Backend
// @Accept json
// @Produce json
// @Param request body domain.AddressInput true "Address"
// @Success 200 {string} string
// @Failure 400 {object} apperror.ErrorResponse
// @Router /rest/v1/rpc/create_checkout_address [post]
func (h *OrderHandler) CreateAddress(c *fiber.Ctx) error {
	var in domain.AddressInput
	if err := c.BodyParser(&in); err != nil {
		return apperror.Write(c, apperror.Wrap(apperror.CodeValidation, err, "Invalid request body"))
	}

	address, err := h.service.CreateAddress(c.UserContext(), in)
	if err != nil {
		return apperror.Write(c, service.PublicError(err))
	}
	return c.JSON(address.ID)
}

// OrderSummary describes the created order.
type OrderSummary struct {
	ID        string          `json:"id"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
}

// TransactionData is the charge started with the order.
type TransactionData struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// OrderFunctionResponse is the envelope of the order function, for successes and failures alike.
type OrderFunctionResponse struct {
	Success bool             `json:"success"`
	Order   *OrderSummary    `json:"order,omitempty"`
	Data    *TransactionData `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// CreateOrder handles the order function.
// @Summary Create an order and start its charge
// @Description Prices the items from the catalog, reserves stock and starts the gateway charge atomically.
// @Tags Backend
// @Accept json
// @Produce json
// @Param name path string true "Function name"
// @Param request body domain.CreateOrderInput true "Order"
// @Success 200 {object} OrderFunctionResponse
// @Failure 400 {object} OrderFunctionResponse
// @Failure 409 {object} OrderFunctionResponse
// @Failure 502 {object} OrderFunctionResponse
// @Router /functions/v1/{name} [post]
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	if c.Params("name") != h.orderFunction {
		return apperror.Write(c, apperror.Newf(apperror.CodeNotFound, "Function %s not found", c.Params("name")))
	}

	var in domain.CreateOrderInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(OrderFunctionResponse{Error: "Invalid request body"})
	}

	placement, err := h.service.CreateOrder(c.UserContext(), in)
	if err != nil {
		status, _, msg, _ := apperror.Public(service.PublicError(err))
		logger.Get().Warn("Order function failed",
			zap.String("ray_id", apperror.RayID(c)),
			zap.Error(err),
		)
		return c.Status(status).JSON(OrderFunctionResponse{Error: msg})
	}

	order := placement.Order
	return c.JSON(OrderFunctionResponse{
		Success: true,
		Order: &OrderSummary{
			ID:        order.ID,
			Reference: order.Reference,
			Status:    string(order.Status),
			Total:     order.Total,
		},
		Data: &TransactionData{
			TransactionID: placement.TransactionID,
			Status:        placement.TransactionStatus,
		},
	})
}

// GetOrder handles the request to retrieve an order.
// @Summary Get Order by ID
// @Description Fetch order details using Order ID and Email.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param email query string true "Customer Email"
// @Success 200 {object} domain.Order
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	email := c.Query("email")

	if email == "" {
		return apperror.Write(c, apperror.New(apperror.CodeValidation, "Email is required"))
	}

	order, err := h.service.GetOrder(c.UserContext(), orderID, email)
	if err != nil {
		return apperror.Write(c, service.PublicError(err))
	}

	return c.JSON(order)
}

// Webhook handles gateway event notifications.
// @Summary Gateway webhook
// @Description Applies checksum-verified transaction.updated events to the matching order.
// @Tags Backend
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} apperror.ErrorResponse
// @Router /webhooks/wompi [post]
func (h *OrderHandler) Webhook(c *fiber.Ctx) error {
	var event wompi.Event
	if err := c.BodyParser(&event); err != nil {
		return apperror.Write(c, apperror.Wrap(apperror.CodeValidation, err, "Invalid event body"))
	}

	if !h.verifier.VerifyEvent(event) {
		return apperror.Write(c, apperror.New(apperror.CodeUnauthorized, "Invalid event signature"))
	}

	if event.Event != transactionUpdatedEvent {
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	tx := event.Data.Transaction
	order, err := h.service.ApplyTransactionUpdate(c.UserContext(), domain.TransactionUpdate{
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		Status:        tx.Status,
	})
	if err != nil {
		// Events for references this store never issued are acknowledged and dropped.
		if apperror.IsCode(service.PublicError(err), apperror.CodeNotFound) {
			return c.JSON(fiber.Map{"status": "ignored"})
		}
		return apperror.Write(c, service.PublicError(err))
	}

	return c.JSON(fiber.Map{"status": "applied", "order_status": string(order.Status)})
}
