package repositories

import (
	"errors"
	"fmt"

	"shopfusion/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetOrCreateSessionCart implements CartRepository. Concurrent first adds for
// the same token race on the unique cart_id index; the loser inserts nothing
// and then waits on the row lock. A merge can delete the row while we wait,
// so the insert is retried once.
func (r *GORMCartRepository) GetOrCreateSessionCart(token string) (*models.Cart, error) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		cart := models.Cart{CartID: token}
		err = r.db.
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "cart_id"}}, DoNothing: true}).
			Create(&cart).Error
		if err != nil {
			return nil, fmt.Errorf("failed to create cart for session %s: %w", token, err)
		}

		var found *models.Cart
		found, err = r.FindSessionCart(token, true)
		if !errors.Is(err, ErrNotFound) {
			return found, err
		}
	}
	return nil, err
}

// FindSessionCart retrieves the cart of a session token, optionally locking it.
func (r *GORMCartRepository) FindSessionCart(token string, lock bool) (*models.Cart, error) {
	query := r.db
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var cart models.Cart
	if err := query.First(&cart, "cart_id = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart for session %s not found: %w", token, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart for session %s: %w", token, err)
	}
	return &cart, nil
}

// DeleteCart deletes a session cart row.
func (r *GORMCartRepository) DeleteCart(id uint) error {
	if err := r.db.Delete(&models.Cart{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete cart %d: %w", id, err)
	}
	return nil
}

// CountItems counts the line items of a scope.
func (r *GORMCartRepository) CountItems(owner Owner) (int64, error) {
	var count int64
	if err := owner.apply(r.db.Model(&models.CartItem{})).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return count, nil
}

// ListItems returns the line items of a scope with products and variations.
func (r *GORMCartRepository) ListItems(owner Owner) ([]models.CartItem, error) {
	var items []models.CartItem
	err := owner.apply(r.db).
		Preload("Product").
		Preload("Variations", func(db *gorm.DB) *gorm.DB { return db.Order("variations.id") }).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	return items, nil
}

// FindProductItems returns the line items of a scope for one product.
func (r *GORMCartRepository) FindProductItems(owner Owner, productID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := owner.apply(r.db).
		Where("product_id = ?", productID).
		Preload("Variations").
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items of product %s: %w", productID, err)
	}
	return items, nil
}

// GetItem retrieves a single line item by its ID.
func (r *GORMCartRepository) GetItem(id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item with ID %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart item %d: %w", id, err)
	}
	return &item, nil
}

// CreateItem inserts a line item and links its variations. The variation
// key is derived from the attached variations.
func (r *GORMCartRepository) CreateItem(item *models.CartItem) error {
	item.VariationKey = models.VariationKey(item.VariationIDs())
	if err := r.db.Omit("Product", "Variations.*").Create(item).Error; err != nil {
		return fmt.Errorf("failed to create cart item: %w", err)
	}
	return nil
}

// SetQuantity overwrites the quantity of a line item.
func (r *GORMCartRepository) SetQuantity(id uint, quantity int) error {
	res := r.db.Model(&models.CartItem{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return fmt.Errorf("failed to update quantity of cart item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item with ID %d not found for update: %w", id, ErrNotFound)
	}
	return nil
}

// AssignToUser moves a line item from its session cart to a user.
func (r *GORMCartRepository) AssignToUser(id uint, userID string) error {
	res := r.db.Model(&models.CartItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"user_id": userID,
		"cart_id": nil,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to assign cart item %d to user %s: %w", id, userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item with ID %d not found for assignment: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteItem removes a line item and its variation links.
func (r *GORMCartRepository) DeleteItem(id uint) error {
	if err := r.db.Model(&models.CartItem{ID: id}).Association("Variations").Clear(); err != nil {
		return fmt.Errorf("failed to unlink variations of cart item %d: %w", id, err)
	}
	res := r.db.Delete(&models.CartItem{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item with ID %d not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteItems removes every line item of a scope.
func (r *GORMCartRepository) DeleteItems(owner Owner) error {
	ids := owner.apply(r.db.Model(&models.CartItem{}).Select("id"))
	if err := r.db.Exec("DELETE FROM cart_item_variations WHERE cart_item_id IN (?)", ids).Error; err != nil {
		return fmt.Errorf("failed to unlink cart item variations: %w", err)
	}
	if err := owner.apply(r.db).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}
	return nil
}
