package repositories

import (
	"errors"
	"fmt"
	"strings"

	"shopfusion/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database, available or not.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Preload("Categories").Order("name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// ListAvailable returns one page of available products and the total count.
func (r *GORMProductRepository) ListAvailable(offset, limit int) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{}).Where("is_available = ?", true)
	return r.page(query, "name", offset, limit)
}

// ListByCategory returns one page of the available products of a category.
func (r *GORMProductRepository) ListByCategory(categoryID uint, offset, limit int) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{}).
		Joins("JOIN product_categories ON product_categories.product_id = products.id").
		Where("product_categories.category_id = ? AND products.is_available = ?", categoryID, true)
	return r.page(query, "products.name", offset, limit)
}

// Search matches the query against name and descriptions, newest first.
func (r *GORMProductRepository) Search(query string, offset, limit int) ([]models.Product, int64, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	q := r.db.Model(&models.Product{}).
		Where("is_available = ?", true).
		Where("LOWER(name) LIKE ? OR LOWER(short_description) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern, pattern)
	return r.page(q, "created_at DESC", offset, limit)
}

func (r *GORMProductRepository) page(query *gorm.DB, order string, offset, limit int) ([]models.Product, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	if err := query.Session(&gorm.Session{}).Order(order).Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetBySlug retrieves a product with its categories and active variations.
func (r *GORMProductRepository) GetBySlug(slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.
		Preload("Categories").
		Preload("Variations", "is_active = ?", true).
		First(&product, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with slug %s not found: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by slug %s: %w", slug, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product. Categories are replaced when the
// product carries a non-nil category slice.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Model(product).Select("*").Omit(clause.Associations, "CreatedAt").Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for update: %w", product.ID, ErrNotFound)
	}
	if product.Categories != nil {
		if err := r.db.Model(product).Association("Categories").Replace(product.Categories); err != nil {
			return fmt.Errorf("failed to update categories of product %s: %w", product.ID, err)
		}
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id string) error {
	product := models.Product{ID: id}
	if err := r.db.Model(&product).Association("Categories").Clear(); err != nil {
		return fmt.Errorf("failed to detach categories of product %s: %w", id, err)
	}
	if err := r.db.Where("product_id = ?", id).Delete(&models.Variation{}).Error; err != nil {
		return fmt.Errorf("failed to delete variations of product %s: %w", id, err)
	}
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// DecrementStock subtracts quantity from the product's stock. There is no
// floor: stock may become negative.
func (r *GORMProductRepository) DecrementStock(id string, quantity int) error {
	res := r.db.Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock of product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for stock update: %w", id, ErrNotFound)
	}
	return nil
}

// ActiveVariations lists the selectable variations of a product.
func (r *GORMProductRepository) ActiveVariations(productID string) ([]models.Variation, error) {
	var variations []models.Variation
	err := r.db.
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("id").
		Find(&variations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get variations of product %s: %w", productID, err)
	}
	return variations, nil
}

// FirstOrCreateVariation looks a variation up by product, category and value
// and inserts it when missing.
func (r *GORMProductRepository) FirstOrCreateVariation(variation *models.Variation) (bool, error) {
	res := r.db.
		Where(models.Variation{
			ProductID: variation.ProductID,
			Category:  variation.Category,
			Value:     variation.Value,
		}).
		Attrs(models.Variation{IsActive: variation.IsActive}).
		FirstOrCreate(variation)
	if res.Error != nil {
		return false, fmt.Errorf("failed to save variation %s=%s: %w", variation.Category, variation.Value, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListCategories returns all categories in navigation order.
func (r *GORMProductRepository) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Order("sort_order").Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetCategoryBySlug retrieves a category by slug.
func (r *GORMProductRepository) GetCategoryBySlug(slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category with slug %s not found: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category by slug %s: %w", slug, err)
	}
	return &category, nil
}

// CreateCategory creates a new category.
func (r *GORMProductRepository) CreateCategory(category *models.Category) error {
	if err := r.db.Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}
