package repositories

import (
	"errors"
	"fmt"

	"shopfusion/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create inserts a draft order. The order number is assigned afterwards,
// once the row has an ID.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if err := r.db.Omit(clause.Associations).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// SetOrderNumber stores the generated order number.
func (r *GORMOrderRepository) SetOrderNumber(id uint, orderNumber string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("order_number", orderNumber)
	if res.Error != nil {
		return fmt.Errorf("failed to set number of order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %d not found for update: %w", id, ErrNotFound)
	}
	return nil
}

// FindDraft implements OrderRepository.
func (r *GORMOrderRepository) FindDraft(orderNumber, userID string, lock bool) (*models.Order, error) {
	query := r.db
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var order models.Order
	err := query.
		Where("order_number = ? AND user_id = ? AND is_finalized = ?", orderNumber, userID, false).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("draft order %s not found: %w", orderNumber, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get draft order %s: %w", orderNumber, err)
	}
	return &order, nil
}

// GetFinalized retrieves a paid order with its payment and ordered products.
func (r *GORMOrderRepository) GetFinalized(orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.
		Preload("Payment").
		Preload("OrderedProducts", func(db *gorm.DB) *gorm.DB { return db.Order("ordered_products.id") }).
		Preload("OrderedProducts.Product").
		Where("order_number = ? AND is_finalized = ?", orderNumber, true).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s not found: %w", orderNumber, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", orderNumber, err)
	}
	return &order, nil
}

// ListFinalizedByUser returns a user's paid orders, newest first.
func (r *GORMOrderRepository) ListFinalizedByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.
		Preload("Payment").
		Where("user_id = ? AND is_finalized = ?", userID, true).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of user %s: %w", userID, err)
	}
	return orders, nil
}

// Finalize flips the order to finalized and links the payment.
func (r *GORMOrderRepository) Finalize(id, paymentID uint) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND is_finalized = ?", id, false).
		Updates(map[string]interface{}{"is_finalized": true, "payment_id": paymentID})
	if res.Error != nil {
		return fmt.Errorf("failed to finalize order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("draft order with ID %d not found for finalization: %w", id, ErrNotFound)
	}
	return nil
}

// CreatePayment inserts a payment record.
func (r *GORMOrderRepository) CreatePayment(payment *models.Payment) error {
	if err := r.db.Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// CreateOrderedProducts inserts the snapshot rows of an order.
func (r *GORMOrderRepository) CreateOrderedProducts(products []models.OrderedProduct) error {
	if len(products) == 0 {
		return nil
	}
	if err := r.db.Omit("Product").Create(&products).Error; err != nil {
		return fmt.Errorf("failed to create ordered products: %w", err)
	}
	return nil
}

// HasPurchased reports whether the user has a paid order containing the product.
func (r *GORMOrderRepository) HasPurchased(userID, productID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.OrderedProduct{}).
		Where("user_id = ? AND product_id = ? AND ordered = ?", userID, productID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check purchases of user %s: %w", userID, err)
	}
	return count > 0, nil
}
