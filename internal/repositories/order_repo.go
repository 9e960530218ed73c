package repositories

import (
	"shopfusion/internal/models"
)

// OrderRepository defines the interface for order and payment data access.
type OrderRepository interface {
	Create(order *models.Order) error
	SetOrderNumber(id uint, orderNumber string) error
	// FindDraft returns the unfinalized order of a user, optionally locking it.
	FindDraft(orderNumber, userID string, lock bool) (*models.Order, error)
	GetFinalized(orderNumber string) (*models.Order, error)
	ListFinalizedByUser(userID string) ([]models.Order, error)
	Finalize(id, paymentID uint) error
	CreatePayment(payment *models.Payment) error
	CreateOrderedProducts(products []models.OrderedProduct) error
	HasPurchased(userID, productID string) (bool, error)
}
