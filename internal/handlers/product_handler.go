package handlers

import (
	"log"

	"shopfusion/internal/middleware"
	"shopfusion/internal/models"
	"shopfusion/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog and its administration.
type ProductHandler struct {
	service     *services.ProductService
	authService *services.AuthService
	adminKey    string
	validate    *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, authService *services.AuthService, adminKey string) *ProductHandler {
	return &ProductHandler{
		service:     service,
		authService: authService,
		adminKey:    adminKey,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the store, category and admin routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	store := router.Group("/store")
	store.Get("/", h.HandleListStore)
	store.Get("/category/:slug", h.HandleListByCategory)
	store.Get("/search", h.HandleSearch)
	store.Get("/:slug", h.HandleProductDetail)
	store.Post("/:slug/reviews", middleware.AuthRequired(h.authService), h.HandleSubmitReview)

	router.Get("/categories", h.HandleListCategories)

	admin := router.Group("/admin", middleware.APIKeyRequired(h.adminKey))
	admin.Get("/products", h.HandleGetProducts)
	admin.Get("/products/:id", h.HandleGetProductByID)
	admin.Post("/products", h.HandleCreateProduct)
	admin.Put("/products/:id", h.HandleUpdateProduct)
	admin.Delete("/products/:id", h.HandleDeleteProduct)
	admin.Post("/products/:id/variations", h.HandleAddVariations)
	admin.Post("/categories", h.HandleCreateCategory)
}

// HandleListStore lists available products, six per page.
func (h *ProductHandler) HandleListStore(c *fiber.Ctx) error {
	page, err := h.service.ListStore(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return serviceError(c, err, "Could not retrieve products")
	}
	return c.JSON(page)
}

// HandleListByCategory lists the available products of a category.
func (h *ProductHandler) HandleListByCategory(c *fiber.Ctx) error {
	slug := c.Params("slug")
	page, err := h.service.ListByCategory(c.UserContext(), slug, c.QueryInt("page", 1))
	if err != nil {
		return serviceError(c, err, "Could not retrieve products")
	}
	return c.JSON(page)
}

// HandleSearch searches available products by name and description.
func (h *ProductHandler) HandleSearch(c *fiber.Ctx) error {
	page, err := h.service.Search(c.UserContext(), c.Query("q"), c.QueryInt("page", 1))
	if err != nil {
		return serviceError(c, err, "Could not search products")
	}
	return c.JSON(page)
}

// HandleProductDetail returns a product page.
func (h *ProductHandler) HandleProductDetail(c *fiber.Ctx) error {
	detail, err := h.service.ProductDetail(c.UserContext(), c.Params("slug"), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err, "Could not retrieve product")
	}
	return c.JSON(detail)
}

// HandleSubmitReview creates or updates the caller's review of a product.
func (h *ProductHandler) HandleSubmitReview(c *fiber.Ctx) error {
	var req services.ReviewInput
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	review, created, err := h.service.SubmitReview(c.UserContext(), c.Params("slug"), middleware.UserID(c), c.IP(), req)
	if err != nil {
		return serviceError(c, err, "Could not save review")
	}
	if created {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Thank you! Your review has been submitted.",
			"review":  review,
		})
	}
	return c.JSON(fiber.Map{
		"message": "Your review has been updated successfully!",
		"review":  review,
	})
}

// HandleListCategories lists categories in navigation order.
func (h *ProductHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return serviceError(c, err, "Could not retrieve categories")
	}
	return c.JSON(categories)
}

// ProductRequest is the admin payload for creating or updating a product.
type ProductRequest struct {
	Name             string   `json:"name" validate:"required,min=3,max=200"`
	Slug             string   `json:"slug" validate:"omitempty,max=200"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description" validate:"max=500"`
	Price            int64    `json:"price" validate:"gt=0"`
	Stock            int      `json:"stock" validate:"gte=0"`
	IsAvailable      *bool    `json:"is_available"`
	Categories       []string `json:"categories"` // category slugs
}

func (r ProductRequest) product(id string) *models.Product {
	product := &models.Product{
		ID:               id,
		Name:             r.Name,
		Slug:             r.Slug,
		Description:      r.Description,
		ShortDescription: r.ShortDescription,
		Price:            r.Price,
		Stock:            r.Stock,
		IsAvailable:      true,
	}
	if product.Slug == "" {
		product.Slug = services.Slugify(r.Name)
	}
	if r.IsAvailable != nil {
		product.IsAvailable = *r.IsAvailable
	}
	return product
}

// HandleGetProducts retrieves all products, including unavailable ones.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return serviceError(c, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return serviceError(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	product := req.product("")
	if err := h.service.CreateProduct(c.UserContext(), product, req.Categories); err != nil {
		return serviceError(c, err, "Could not create product")
	}
	log.Printf("Created product %s (%s)", product.ID, product.Name)
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	product := req.product(c.Params("id"))
	if err := h.service.UpdateProduct(c.UserContext(), product, req.Categories); err != nil {
		return serviceError(c, err, "Could not update product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return serviceError(c, err, "Could not delete product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAddVariations adds color or size options to a product.
func (h *ProductHandler) HandleAddVariations(c *fiber.Ctx) error {
	var req services.VariationInput
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	variations, err := h.service.AddVariations(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return serviceError(c, err, "Could not add variations")
	}
	return c.Status(fiber.StatusCreated).JSON(variations)
}

// HandleCreateCategory creates a new category.
func (h *ProductHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var category models.Category
	if err := c.BodyParser(&category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if category.Slug == "" {
		category.Slug = services.Slugify(category.Name)
	}
	if err := h.validate.Struct(category); err != nil {
		return validationFailed(c, err)
	}

	if err := h.service.CreateCategory(c.UserContext(), &category); err != nil {
		return serviceError(c, err, "Could not create category")
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}
