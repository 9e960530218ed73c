package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"shopfusion/internal/models"
	"shopfusion/internal/repositories"
)

// PageSize is the number of products per catalog page.
const PageSize = 6

// ProductSummary is a product listed with its review statistics.
type ProductSummary struct {
	models.Product
	ReviewCount int64   `json:"review_count"`
	AvgRating   float64 `json:"avg_rating"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []ProductSummary `json:"products"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Total      int64            `json:"product_count"`
	HasPrev    bool             `json:"has_previous"`
	HasNext    bool             `json:"has_next"`
	Category   *models.Category `json:"category,omitempty"`
}

// ProductDetail is the product page: selectable options, reviews and whether
// the viewer bought the product.
type ProductDetail struct {
	Product            *models.Product       `json:"product"`
	Colors             []models.Variation    `json:"colors"`
	Sizes              []models.Variation    `json:"sizes"`
	Reviews            []models.ReviewRating `json:"reviews"`
	ReviewCount        int                   `json:"review_count"`
	AvgRating          float64               `json:"avg_rating"`
	RatingDistribution map[int]int           `json:"rating_distribution"`
	HasPurchased       bool                  `json:"user_has_purchased"`
	UserReview         *models.ReviewRating  `json:"user_review,omitempty"`
}

// ReviewInput is the review form.
type ReviewInput struct {
	Subject string  `json:"subject" validate:"max=100"`
	Review  string  `json:"review" validate:"max=500"`
	Rating  float64 `json:"rating" validate:"required,min=1,max=5"`
}

// VariationInput adds options to a product. Value may hold several
// comma-separated values, each becoming its own variation.
type VariationInput struct {
	Category string `json:"category" validate:"required,oneof=color size"`
	Value    string `json:"value" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

// ProductService handles the catalog: listings, product pages, reviews and
// product administration.
type ProductService struct {
	repo    repositories.ProductRepository
	reviews repositories.ReviewRepository
	orders  repositories.OrderRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, reviews repositories.ReviewRepository, orders repositories.OrderRepository) *ProductService {
	return &ProductService{
		repo:    repo,
		reviews: reviews,
		orders:  orders,
	}
}

func pageOffset(page int) (int, int) {
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * PageSize
}

func (s *ProductService) summarize(products []models.Product, total int64, page int) (*ProductPage, error) {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	stats, err := s.reviews.Stats(ids)
	if err != nil {
		return nil, err
	}

	result := &ProductPage{
		Products:   make([]ProductSummary, 0, len(products)),
		Page:       page,
		Total:      total,
		TotalPages: int((total + PageSize - 1) / PageSize),
	}
	for _, p := range products {
		st := stats[p.ID]
		result.Products = append(result.Products, ProductSummary{
			Product:     p,
			ReviewCount: st.Count,
			AvgRating:   roundRating(st.Average),
		})
	}
	result.HasPrev = page > 1
	result.HasNext = page < result.TotalPages
	return result, nil
}

func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// ListStore returns a page of available products.
func (s *ProductService) ListStore(ctx context.Context, page int) (*ProductPage, error) {
	page, offset := pageOffset(page)
	products, total, err := s.repo.ListAvailable(offset, PageSize)
	if err != nil {
		return nil, err
	}
	return s.summarize(products, total, page)
}

// ListByCategory returns a page of the available products of a category.
func (s *ProductService) ListByCategory(ctx context.Context, slug string, page int) (*ProductPage, error) {
	category, err := s.repo.GetCategoryBySlug(slug)
	if err != nil {
		return nil, notFound(err, "failed to get category %s", slug)
	}
	page, offset := pageOffset(page)
	products, total, err := s.repo.ListByCategory(category.ID, offset, PageSize)
	if err != nil {
		return nil, err
	}
	result, err := s.summarize(products, total, page)
	if err != nil {
		return nil, err
	}
	result.Category = category
	return result, nil
}

// Search returns a page of available products matching the query, newest
// first. An empty query matches nothing.
func (s *ProductService) Search(ctx context.Context, query string, page int) (*ProductPage, error) {
	query = strings.TrimSpace(query)
	page, offset := pageOffset(page)
	if query == "" {
		return &ProductPage{Products: []ProductSummary{}, Page: page}, nil
	}
	products, total, err := s.repo.Search(query, offset, PageSize)
	if err != nil {
		return nil, err
	}
	return s.summarize(products, total, page)
}

// ListCategories returns all categories in navigation order.
func (s *ProductService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories()
}

// ProductDetail returns the product page. userID is empty for anonymous visitors.
func (s *ProductService) ProductDetail(ctx context.Context, slug, userID string) (*ProductDetail, error) {
	product, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, notFound(err, "failed to get product %s", slug)
	}

	detail := &ProductDetail{
		Product:            product,
		Colors:             []models.Variation{},
		Sizes:              []models.Variation{},
		RatingDistribution: map[int]int{5: 0, 4: 0, 3: 0, 2: 0, 1: 0},
	}
	for _, v := range product.Variations {
		switch v.Category {
		case models.VariationColor:
			detail.Colors = append(detail.Colors, v)
		case models.VariationSize:
			detail.Sizes = append(detail.Sizes, v)
		}
	}

	reviews, err := s.reviews.ListPublished(product.ID)
	if err != nil {
		return nil, err
	}
	detail.Reviews = reviews
	detail.ReviewCount = len(reviews)
	var sum float64
	for _, r := range reviews {
		sum += r.Rating
		// Half-star ratings count toward the average only.
		if r.Rating == math.Trunc(r.Rating) {
			if _, ok := detail.RatingDistribution[int(r.Rating)]; ok {
				detail.RatingDistribution[int(r.Rating)]++
			}
		}
	}
	if len(reviews) > 0 {
		detail.AvgRating = roundRating(sum / float64(len(reviews)))
	}

	if userID != "" {
		detail.HasPurchased, err = s.orders.HasPurchased(userID, product.ID)
		if err != nil {
			return nil, err
		}
		if review, err := s.reviews.FindByUserAndProduct(userID, product.ID); err == nil {
			detail.UserReview = review
		}
	}
	return detail, nil
}

// SubmitReview creates the user's review of a product or replaces the one
// they left before. It returns true when a new review was created.
func (s *ProductService) SubmitReview(ctx context.Context, slug, userID, ip string, in ReviewInput) (*models.ReviewRating, bool, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, false, validationError("rating must be between 1 and 5")
	}
	product, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, false, notFound(err, "failed to get product %s", slug)
	}

	existing, err := s.reviews.FindByUserAndProduct(userID, product.ID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}
	if existing != nil {
		existing.Subject = in.Subject
		existing.Review = in.Review
		existing.Rating = in.Rating
		existing.IP = ip
		if err := s.reviews.Update(existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	review := &models.ReviewRating{
		ProductID: product.ID,
		UserID:    userID,
		Subject:   in.Subject,
		Review:    in.Review,
		Rating:    in.Rating,
		IP:        ip,
		Status:    true,
	}
	if err := s.reviews.Create(review); err != nil {
		return nil, false, err
	}
	return review, true, nil
}

// GetAllProducts retrieves all products, available or not.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, notFound(err, "failed to get product %s", id)
	}
	return product, nil
}

// CreateProduct creates a new product. Categories are referenced by slug.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product, categorySlugs []string) error {
	categories, err := s.categories(categorySlugs)
	if err != nil {
		return err
	}
	product.Categories = categories
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product. A nil categorySlugs keeps the
// current categories.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product, categorySlugs []string) error {
	product.Categories = nil
	if categorySlugs != nil {
		categories, err := s.categories(categorySlugs)
		if err != nil {
			return err
		}
		product.Categories = categories
	}
	if err := s.repo.Update(product); err != nil {
		return notFound(err, "failed to update product %s", product.ID)
	}
	return nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(id); err != nil {
		return notFound(err, "failed to delete product %s", id)
	}
	return nil
}

func (s *ProductService) categories(slugs []string) ([]models.Category, error) {
	categories := make([]models.Category, 0, len(slugs))
	for _, slug := range slugs {
		category, err := s.repo.GetCategoryBySlug(slug)
		if err != nil {
			return nil, notFound(err, "failed to get category %s", slug)
		}
		categories = append(categories, *category)
	}
	return categories, nil
}

// CreateCategory creates a new category.
func (s *ProductService) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.Slug == "" {
		category.Slug = Slugify(category.Name)
	}
	return s.repo.CreateCategory(category)
}

// AddVariations splits the comma-separated values of in and stores one
// variation per value, reusing existing ones. It returns the variations in
// input order.
func (s *ProductService) AddVariations(ctx context.Context, productID string, in VariationInput) ([]models.Variation, error) {
	if _, err := s.repo.GetByID(productID); err != nil {
		return nil, notFound(err, "failed to get product %s", productID)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	var variations []models.Variation
	for _, value := range strings.Split(in.Value, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		v := models.Variation{
			ProductID: productID,
			Category:  strings.ToLower(in.Category),
			Value:     value,
			IsActive:  active,
		}
		if _, err := s.repo.FirstOrCreateVariation(&v); err != nil {
			return nil, err
		}
		variations = append(variations, v)
	}
	if len(variations) == 0 {
		return nil, validationError("no variation values given")
	}
	return variations, nil
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
