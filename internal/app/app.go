package app

import (
	"time"

	"shopfusion/internal/config"
	"shopfusion/internal/handlers"
	"shopfusion/internal/middleware"
	"shopfusion/internal/notify"
	"shopfusion/internal/repositories"
	"shopfusion/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Dependencies are the collaborators NewApp wires together.
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Notifier notify.Notifier
	// Events receives order events; nil when no broker is configured.
	Events services.EventPublisher
}

// NewApp builds the Fiber application with every route registered.
func NewApp(deps Dependencies) *fiber.App {
	cfg := deps.Config
	store := repositories.NewGORMStore(deps.DB)

	// --- Services ---
	authService := services.NewAuthService(store.Users(), deps.Notifier, services.AuthConfig{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		LinkTTL:   cfg.LinkTTL,
		BaseURL:   cfg.PublicBaseURL,
	})
	productService := services.NewProductService(store.Products(), store.Reviews(), store.Orders())
	cartService := services.NewCartService(store)
	orderService := services.NewOrderService(store, deps.Notifier, deps.Events, cfg.OrderQueue)

	// --- Handlers ---
	productHandler := handlers.NewProductHandler(productService, authService, cfg.AdminAPIKey)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService, authService, cfg.StoreURL)
	authHandler := handlers.NewAuthHandler(authService, cartService, cfg.SessionCookie, cfg.LoginURL)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New()) // Request logger

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"broker": deps.Events != nil,
		})
	})

	apiV1 := app.Group("/api/v1", middleware.CartScope(authService, cfg.SessionCookie))
	productHandler.RegisterRoutes(apiV1)
	cartHandler.RegisterRoutes(apiV1)
	orderHandler.RegisterRoutes(apiV1)
	authHandler.RegisterRoutes(apiV1)

	return app
}
