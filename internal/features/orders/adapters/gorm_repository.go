package adapters

import (
	"context"
	"errors"
	"fmt"

	"checkout-engine/internal/features/orders/domain"
	"checkout-engine/internal/features/orders/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository implements ports.Repository on a SQL database.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository builds a repository bound to the provided DB.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// WithTx returns a repository running its statements inside tx.
func (r *GormRepository) WithTx(tx *gorm.DB) ports.Repository {
	if tx == nil {
		return r
	}
	return &GormRepository{db: tx}
}

// Migrate creates or updates the orders tables.
func (r *GormRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("migrating orders schema: %w", err)
	}
	return nil
}

func (r *GormRepository) FindCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return firstCustomer(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *GormRepository) FindCustomerByUserID(ctx context.Context, userID string) (*domain.Customer, error) {
	return firstCustomer(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

// FindCustomerByEmail prefers the oldest customer when several share the email.
func (r *GormRepository) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return firstCustomer(r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).Order("created_at ASC"))
}

func firstCustomer(q *gorm.DB) (*domain.Customer, error) {
	var customer domain.Customer
	if err := q.First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// CreateCustomer inserts the customer, or returns domain.ErrCustomerExists when its
// user id or guest email is already taken.
func (r *GormRepository) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(customer)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCustomerExists
	}
	return nil
}

func (r *GormRepository) UpdateCustomer(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *GormRepository) FindAddress(ctx context.Context, id string) (*domain.Address, error) {
	var address domain.Address
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, err
	}
	return &address, nil
}

func (r *GormRepository) CreateAddress(ctx context.Context, address *domain.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *GormRepository) FindProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Where("active = ?", true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ListProducts returns the active catalog ordered by name.
func (r *GormRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormRepository) UpsertProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "price", "stock", "active", "image", "updated_at"}),
		}).
		Create(&products).Error
}

// DeactivateProduct hides a product from new orders. Past orders keep their snapshot.
func (r *GormRepository) DeactivateProduct(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// ReserveStock decrements stock with a conditional update so concurrent orders cannot oversell.
func (r *GormRepository) ReserveStock(ctx context.Context, productID string, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrOutOfStock
	}
	return nil
}

func (r *GormRepository) ReleaseStock(ctx context.Context, productID string, qty int) error {
	return r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}

func (r *GormRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Omit("Address").Create(order).Error
}

func (r *GormRepository) FindOrder(ctx context.Context, id string) (*domain.Order, error) {
	return firstOrder(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *GormRepository) FindOrderByReference(ctx context.Context, reference string) (*domain.Order, error) {
	return firstOrder(r.db.WithContext(ctx).Where("reference = ?", reference))
}

func firstOrder(q *gorm.DB) (*domain.Order, error) {
	var order domain.Order
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Address").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormRepository) UpdatePayment(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":             order.Status,
			"payment_method":     order.PaymentMethod,
			"transaction_id":     order.TransactionID,
			"transaction_status": order.TransactionStatus,
		}).Error
}
