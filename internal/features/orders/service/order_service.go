package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"checkout-engine/internal/core/database"
	"checkout-engine/internal/core/logger"
	"checkout-engine/internal/core/validation"
	"checkout-engine/internal/features/orders/domain"
	"checkout-engine/internal/features/orders/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const referencePrefix = "CHK-"

// OrderService handles customers, addresses and the atomic order and charge.
type OrderService struct {
	db       *database.Client
	repo     ports.Repository
	charger  ports.Charger
	currency string
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(db *database.Client, repo ports.Repository, charger ports.Charger, currency string) *OrderService {
	return &OrderService{
		db:       db,
		repo:     repo,
		charger:  charger,
		currency: currency,
	}
}

// GetOrCreateCustomer resolves the customer by UserID when present, else by email.
// A known customer gets its name and phone refreshed.
func (s *OrderService) GetOrCreateCustomer(ctx context.Context, in domain.CustomerInput) (*domain.Customer, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	customer, err := s.findCustomer(ctx, in)
	switch {
	case err == nil:
		return s.refreshCustomer(ctx, customer, in)
	case !errors.Is(err, domain.ErrCustomerNotFound):
		return nil, err
	}

	customer = &domain.Customer{
		ID:       uuid.NewString(),
		Email:    in.Email,
		FullName: in.FullName,
		UserID:   optional(in.UserID),
		Phone:    optional(in.Phone),
	}
	if in.UserID == "" {
		customer.GuestEmail = optional(in.Email)
	}
	err = s.repo.CreateCustomer(ctx, customer)
	switch {
	case errors.Is(err, domain.ErrCustomerExists):
		// lost the insert race; the winner's row is the customer
		return s.findCustomer(ctx, in)
	case err != nil:
		return nil, fmt.Errorf("creating customer: %w", err)
	}

	logger.Get().Info("Customer created", zap.String("customer_id", customer.ID))
	return customer, nil
}

func (s *OrderService) findCustomer(ctx context.Context, in domain.CustomerInput) (*domain.Customer, error) {
	if in.UserID != "" {
		return s.repo.FindCustomerByUserID(ctx, in.UserID)
	}
	return s.repo.FindCustomerByEmail(ctx, in.Email)
}

func (s *OrderService) refreshCustomer(ctx context.Context, c *domain.Customer, in domain.CustomerInput) (*domain.Customer, error) {
	changed := false
	if in.FullName != "" && c.FullName != in.FullName {
		c.FullName = in.FullName
		changed = true
	}
	if in.Phone != "" && (c.Phone == nil || *c.Phone != in.Phone) {
		c.Phone = optional(in.Phone)
		changed = true
	}
	if !changed {
		return c, nil
	}
	if err := s.repo.UpdateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("updating customer: %w", err)
	}
	return c, nil
}

// CreateAddress inserts a new address for an existing customer.
func (s *OrderService) CreateAddress(ctx context.Context, in domain.AddressInput) (*domain.Address, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindCustomer(ctx, in.CustomerID); err != nil {
		return nil, err
	}

	address := &domain.Address{
		ID:          uuid.NewString(),
		CustomerID:  in.CustomerID,
		AddressLine: in.AddressLine,
		City:        in.City,
		State:       in.State,
		PostalCode:  optional(in.PostalCode),
		Country:     strings.ToUpper(in.Country),
		Phone:       in.Phone,
	}
	if err := s.repo.CreateAddress(ctx, address); err != nil {
		return nil, fmt.Errorf("creating address: %w", err)
	}
	return address, nil
}

// CreateOrder prices the items from the catalog, reserves stock and stores the order as PENDING
// in one database transaction, then starts the charge. The charge runs outside the transaction:
// a refused charge fails the order and gives its stock back, and an accepted charge that cannot be
// recorded leaves the order PENDING for the gateway webhook to settle by reference.
func (s *OrderService) CreateOrder(ctx context.Context, in domain.CreateOrderInput) (*domain.Placement, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	items := mergeItems(in.Items)

	var (
		order    *domain.Order
		customer *domain.Customer
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		customer, err = repo.FindCustomer(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		address, err := repo.FindAddress(ctx, in.AddressID)
		if err != nil {
			return err
		}
		if address.CustomerID != customer.ID {
			return domain.ErrAddressMismatch
		}

		order, err = s.priceOrder(ctx, repo, items)
		if err != nil {
			return err
		}
		order.ID = uuid.NewString()
		order.Reference = newReference()
		order.CustomerID = customer.ID
		order.AddressID = address.ID
		order.Status = domain.OrderStatusPending
		order.Email = customer.Email
		order.Currency = s.currency
		order.PaymentMethod = in.Payment.Type

		if err := repo.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Get().Warn("Order was not placed",
			zap.String("customer_id", in.CustomerID),
			zap.Error(err),
		)
		return nil, err
	}

	email := in.Payment.CustomerEmail
	if email == "" {
		email = customer.Email
	}
	charge, err := s.charger.Charge(ctx, domain.ChargeRequest{
		Reference:     order.Reference,
		AmountInCents: order.AmountInCents(),
		Currency:      order.Currency,
		CustomerEmail: email,
		Payment:       in.Payment,
		CustomerData:  in.CustomerData,
	})
	if err != nil {
		if failErr := s.failOrder(ctx, order); failErr != nil {
			logger.Get().Error("Order charge refused and the order could not be failed",
				zap.String("order_id", order.ID),
				zap.Error(failErr),
			)
		}
		logger.Get().Warn("Order charge was not started",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.settle(ctx, s.repo.WithTx(tx), order, charge.TransactionID, charge.Status)
	})
	if err != nil {
		logger.Get().Error("Charge started but not recorded on the order",
			zap.String("order_id", order.ID),
			zap.String("reference", order.Reference),
			zap.String("transaction_id", charge.TransactionID),
			zap.Error(err),
		)
		order.TransactionID = charge.TransactionID
		order.TransactionStatus = charge.Status
	}

	placement := &domain.Placement{Order: order, TransactionID: charge.TransactionID, TransactionStatus: charge.Status}
	logger.Get().Info("Order placed",
		zap.String("order_id", placement.Order.ID),
		zap.String("reference", placement.Order.Reference),
		zap.String("transaction_id", placement.TransactionID),
		zap.String("total", placement.Order.Total.String()),
	)
	return placement, nil
}

// failOrder marks an order whose charge never started as FAILED and releases its stock.
func (s *OrderService) failOrder(ctx context.Context, order *domain.Order) error {
	ctx = context.WithoutCancel(ctx)
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, item := range order.Items {
			if err := repo.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("releasing stock: %w", err)
			}
		}
		order.Status = domain.OrderStatusFailed
		if err := repo.UpdatePayment(ctx, order); err != nil {
			return fmt.Errorf("updating order payment: %w", err)
		}
		return nil
	})
}

// priceOrder builds the order lines from catalog prices and reserves their stock.
func (s *OrderService) priceOrder(ctx context.Context, repo ports.Repository, items []domain.ItemInput) (*domain.Order, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := repo.FindProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	order := &domain.Order{Total: decimal.Zero}
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, item.ProductID)
		}
		if err := repo.ReserveStock(ctx, product.ID, item.Quantity); err != nil {
			if errors.Is(err, domain.ErrOutOfStock) {
				return nil, fmt.Errorf("%w: %s", domain.ErrOutOfStock, product.Name)
			}
			return nil, fmt.Errorf("reserving stock: %w", err)
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		})
		order.Total = order.Total.Add(subtotal)
	}
	return order, nil
}

// GetOrder retrieves an order by ID and validates that the provided email matches the order's email.
func (s *OrderService) GetOrder(ctx context.Context, orderID, email string) (*domain.Order, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(order.Email, strings.TrimSpace(email)) {
		return nil, domain.ErrEmailMismatch
	}

	return order, nil
}

// ApplyTransactionUpdate moves the order matching the update's reference to the new status.
// Failed and voided payments give their reserved stock back once.
func (s *OrderService) ApplyTransactionUpdate(ctx context.Context, update domain.TransactionUpdate) (*domain.Order, error) {
	var order *domain.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		order, err = repo.FindOrderByReference(ctx, update.Reference)
		if err != nil {
			return err
		}
		if order.TransactionID != "" && update.TransactionID != "" && order.TransactionID != update.TransactionID {
			logger.Get().Warn("Transaction update for a different transaction of the order",
				zap.String("order_id", order.ID),
				zap.String("transaction_id", update.TransactionID),
			)
		}
		return s.settle(ctx, repo, order, update.TransactionID, update.Status)
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("Order payment updated",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
	)
	return order, nil
}

// settle records the transaction on order. Only a PENDING order changes status.
func (s *OrderService) settle(ctx context.Context, repo ports.Repository, order *domain.Order, txID, txStatus string) error {
	if txID != "" {
		order.TransactionID = txID
	}
	order.TransactionStatus = txStatus

	next := domain.StatusForTransaction(txStatus)
	if order.Status == domain.OrderStatusPending && next != domain.OrderStatusPending {
		order.Status = next
		if next.ReleasesStock() {
			for _, item := range order.Items {
				if err := repo.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("releasing stock: %w", err)
				}
			}
		}
	}

	if err := repo.UpdatePayment(ctx, order); err != nil {
		return fmt.Errorf("updating order payment: %w", err)
	}
	return nil
}

// mergeItems folds repeated products into one line, keeping the first-seen order.
func mergeItems(items []domain.ItemInput) []domain.ItemInput {
	merged := make([]domain.ItemInput, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

func newReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return referencePrefix + strings.ToUpper(id[:16])
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
