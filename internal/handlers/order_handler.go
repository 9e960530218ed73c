package handlers

import (
	"errors"
	"log"
	"net/url"

	"shopfusion/internal/middleware"
	"shopfusion/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for checkout, payments and orders.
type OrderHandler struct {
	service     *services.OrderService
	authService *services.AuthService
	storeURL    string
	validate    *validator.Validate
}

// NewOrderHandler creates a new OrderHandler. Checkout with an empty cart
// redirects to storeURL.
func NewOrderHandler(service *services.OrderService, authService *services.AuthService, storeURL string) *OrderHandler {
	return &OrderHandler{
		service:     service,
		authService: authService,
		storeURL:    storeURL,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/complete", h.HandleOrderComplete)

	authRequired := middleware.AuthRequired(h.authService)
	orderRoutes.Get("/", authRequired, h.HandleGetOrders)
	orderRoutes.Post("/place", authRequired, h.HandlePlaceOrder)
	orderRoutes.Post("/payments", authRequired, h.HandlePayment)
}

// HandleGetOrders lists the caller's finalized orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandlePlaceOrder stores a draft order for the caller's cart.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	var billing services.BillingDetails
	if handled, err := parseAndValidate(c, h.validate, &billing); handled {
		return err
	}

	checkout, err := h.service.PlaceOrder(c.UserContext(), middleware.UserID(c), billing, c.IP())
	if errors.Is(err, services.ErrEmptyCart) {
		return c.Redirect(h.storeURL, fiber.StatusSeeOther)
	}
	if err != nil {
		return serviceError(c, err, "Could not place order")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order":       checkout.Order,
		"items":       checkout.Items,
		"subtotal":    checkout.Order.Subtotal,
		"tax":         checkout.Order.Tax,
		"grand_total": checkout.Order.OrderTotal,
	})
}

// HandlePayment records the payment confirmation of a draft order.
func (h *OrderHandler) HandlePayment(c *fiber.Ctx) error {
	var payment services.PaymentConfirmation
	if handled, err := parseAndValidate(c, h.validate, &payment); handled {
		return err
	}

	order, err := h.service.FinalizeOrder(c.UserContext(), middleware.UserID(c), payment)
	if err != nil {
		log.Printf("Error processing payment %s for order %s: %v", payment.PaymentID, payment.OrderNumber, err)
		return c.Status(paymentStatus(err)).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	query := url.Values{}
	query.Set("order_number", order.OrderNumber)
	query.Set("payment_id", payment.PaymentID)
	return c.JSON(fiber.Map{
		"success":      true,
		"redirect_url": "/api/v1/orders/complete?" + query.Encode(),
	})
}

func paymentStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleOrderComplete shows a finalized order. The payment id must match the
// order's payment.
func (h *OrderHandler) HandleOrderComplete(c *fiber.Ctx) error {
	orderNumber := c.Query("order_number")
	paymentID := c.Query("payment_id")
	if orderNumber == "" || paymentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "order_number and payment_id are required",
		})
	}

	receipt, err := h.service.OrderComplete(c.UserContext(), orderNumber)
	if err != nil {
		return serviceError(c, err, "Could not retrieve order")
	}
	if receipt.Order.Payment == nil || receipt.Order.Payment.PaymentID != paymentID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Order not found",
		})
	}

	return c.JSON(fiber.Map{
		"order":            receipt.Order,
		"ordered_products": receipt.Order.OrderedProducts,
		"order_number":     receipt.Order.OrderNumber,
		"transaction_id":   paymentID,
		"payment":          receipt.Order.Payment,
		"subtotal":         receipt.Subtotal,
	})
}
