package repositories

import (
	"shopfusion/internal/models"

	"gorm.io/gorm"
)

// Owner selects the line items of one cart scope: a session cart row or a
// user account. Exactly one field is set.
type Owner struct {
	CartID uint
	UserID string
}

// CartOwner is the owner of the items of a session cart.
func CartOwner(cartID uint) Owner { return Owner{CartID: cartID} }

// UserOwner is the owner of a user's items.
func UserOwner(userID string) Owner { return Owner{UserID: userID} }

// Assign makes item belong to the owner.
func (o Owner) Assign(item *models.CartItem) {
	if o.UserID != "" {
		userID := o.UserID
		item.UserID = &userID
		item.CartID = nil
		return
	}
	cartID := o.CartID
	item.CartID = &cartID
	item.UserID = nil
}

// Owns reports whether item belongs to the owner.
func (o Owner) Owns(item models.CartItem) bool {
	if o.UserID != "" {
		return item.UserID != nil && *item.UserID == o.UserID
	}
	return item.CartID != nil && *item.CartID == o.CartID
}

func (o Owner) apply(db *gorm.DB) *gorm.DB {
	if o.UserID != "" {
		return db.Where("user_id = ?", o.UserID)
	}
	return db.Where("cart_id = ?", o.CartID)
}

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// GetOrCreateSessionCart returns the cart of a session token, creating it
	// when missing. The row is locked until the surrounding transaction ends.
	GetOrCreateSessionCart(token string) (*models.Cart, error)
	FindSessionCart(token string, lock bool) (*models.Cart, error)
	DeleteCart(id uint) error
	CountItems(owner Owner) (int64, error)

	ListItems(owner Owner) ([]models.CartItem, error)
	FindProductItems(owner Owner, productID string) ([]models.CartItem, error)
	GetItem(id uint) (*models.CartItem, error)
	CreateItem(item *models.CartItem) error
	SetQuantity(id uint, quantity int) error
	AssignToUser(id uint, userID string) error
	DeleteItem(id uint) error
	DeleteItems(owner Owner) error
}
