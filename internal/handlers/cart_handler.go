package handlers

import (
	"context"
	"encoding/json"
	"log"

	"shopfusion/internal/middleware"
	"shopfusion/internal/models"
	"shopfusion/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the shopping cart. It relies on the
// CartScope middleware to resolve whose cart a request addresses.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service: service,
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleViewCart)
	cartRoutes.Post("/add/:product_id", h.HandleAddItem)
	cartRoutes.Post("/decrement/:product_id/:item_id", h.HandleDecrementItem)
	cartRoutes.Delete("/:product_id/:item_id", h.HandleDeleteItem)
}

// HandleViewCart returns the cart with its totals.
func (h *CartHandler) HandleViewCart(c *fiber.Ctx) error {
	view, err := h.service.ViewCart(c.UserContext(), middleware.Scope(c))
	if err != nil {
		return serviceError(c, err, "Could not retrieve cart")
	}
	return c.JSON(view)
}

// HandleAddItem adds one unit of a product. The optional JSON body maps
// variation categories to values, e.g. {"color":"red","size":"M"}.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	selections := map[string]string{}
	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &selections); err != nil {
			log.Printf("Error parsing variation selections: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid request body",
				"error":   err.Error(),
			})
		}
	}

	item, err := h.service.AddItem(c.UserContext(), middleware.Scope(c), c.Params("product_id"), selections)
	if err != nil {
		return serviceError(c, err, "Could not add item to cart")
	}
	return c.JSON(fiber.Map{
		"message": "Item added to cart",
		"item":    item,
	})
}

// HandleDecrementItem removes one unit of a line item.
func (h *CartHandler) HandleDecrementItem(c *fiber.Ctx) error {
	return h.mutate(c, h.service.DecrementItem)
}

// HandleDeleteItem removes a line item.
func (h *CartHandler) HandleDeleteItem(c *fiber.Ctx) error {
	return h.mutate(c, h.service.DeleteItem)
}

type itemMutation func(ctx context.Context, scope models.CartScope, productID string, itemID uint) (services.ItemResult, error)

func (h *CartHandler) mutate(c *fiber.Ctx, fn itemMutation) error {
	itemID, err := c.ParamsInt("item_id")
	if err != nil || itemID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid cart item id",
		})
	}

	scope := middleware.Scope(c)
	result, err := fn(c.UserContext(), scope, c.Params("product_id"), uint(itemID))
	if err != nil {
		return serviceError(c, err, "Could not update cart")
	}

	// Missing and foreign line items get the same answer as an unchanged cart.
	message := "Cart unchanged"
	if result.Changed() {
		message = "Cart updated"
	}
	view, err := h.service.ViewCart(c.UserContext(), scope)
	if err != nil {
		return serviceError(c, err, "Could not retrieve cart")
	}
	return c.JSON(fiber.Map{
		"message": message,
		"cart":    view,
	})
}
