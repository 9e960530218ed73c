package repositories

import (
	"shopfusion/internal/models"
)

// ProductRepository defines the interface for catalog data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	ListAvailable(offset, limit int) ([]models.Product, int64, error)
	ListByCategory(categoryID uint, offset, limit int) ([]models.Product, int64, error)
	Search(query string, offset, limit int) ([]models.Product, int64, error)
	GetByID(id string) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	DecrementStock(id string, quantity int) error

	ActiveVariations(productID string) ([]models.Variation, error)
	// FirstOrCreateVariation returns true when a new row was inserted.
	FirstOrCreateVariation(variation *models.Variation) (bool, error)

	ListCategories() ([]models.Category, error)
	GetCategoryBySlug(slug string) (*models.Category, error)
	CreateCategory(category *models.Category) error
}
