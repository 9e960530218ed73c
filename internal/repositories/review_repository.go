package repositories

import (
	"errors"
	"fmt"

	"shopfusion/internal/models"

	"gorm.io/gorm"
)

// ReviewStats aggregates the published reviews of a product.
type ReviewStats struct {
	ProductID string  `json:"-"`
	Count     int64   `json:"review_count"`
	Average   float64 `json:"avg_rating"`
}

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	FindByUserAndProduct(userID, productID string) (*models.ReviewRating, error)
	Create(review *models.ReviewRating) error
	Update(review *models.ReviewRating) error
	ListPublished(productID string) ([]models.ReviewRating, error)
	Stats(productIDs []string) (map[string]ReviewStats, error)
}

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{db: db}
}

// FindByUserAndProduct returns the review a user left on a product.
func (r *GORMReviewRepository) FindByUserAndProduct(userID, productID string) (*models.ReviewRating, error) {
	var review models.ReviewRating
	err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("review of product %s by user %s not found: %w", productID, userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

// Create inserts a review.
func (r *GORMReviewRepository) Create(review *models.ReviewRating) error {
	if err := r.db.Omit("User").Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// Update rewrites the text, rating and origin of a review.
func (r *GORMReviewRepository) Update(review *models.ReviewRating) error {
	res := r.db.Model(&models.ReviewRating{}).Where("id = ?", review.ID).Updates(map[string]interface{}{
		"subject": review.Subject,
		"review":  review.Review,
		"rating":  review.Rating,
		"ip":      review.IP,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update review %d: %w", review.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("review with ID %d not found for update: %w", review.ID, ErrNotFound)
	}
	return nil
}

// ListPublished returns the visible reviews of a product, newest first.
func (r *GORMReviewRepository) ListPublished(productID string) ([]models.ReviewRating, error) {
	var reviews []models.ReviewRating
	err := r.db.
		Preload("User").
		Where("product_id = ? AND status = ?", productID, true).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews of product %s: %w", productID, err)
	}
	return reviews, nil
}

// Stats returns review count and average rating per product. Products
// without reviews are absent from the map.
func (r *GORMReviewRepository) Stats(productIDs []string) (map[string]ReviewStats, error) {
	stats := make(map[string]ReviewStats, len(productIDs))
	if len(productIDs) == 0 {
		return stats, nil
	}

	var rows []ReviewStats
	err := r.db.Model(&models.ReviewRating{}).
		Select("product_id, COUNT(*) AS count, AVG(rating) AS average").
		Where("product_id IN ? AND status = ?", productIDs, true).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	for _, row := range rows {
		stats[row.ProductID] = row
	}
	return stats, nil
}
