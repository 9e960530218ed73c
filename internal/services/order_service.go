package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"shopfusion/internal/models"
	"shopfusion/internal/notify"
	"shopfusion/internal/repositories"

	"github.com/shopspring/decimal"
)

// EventPublisher publishes a message body to a named queue.
type EventPublisher interface {
	Publish(queue string, body []byte) error
}

// BillingDetails are the checkout form fields copied onto an order.
type BillingDetails struct {
	FirstName    string `json:"first_name" validate:"required,max=50"`
	LastName     string `json:"last_name" validate:"required,max=50"`
	PhoneNumber  string `json:"phone_number" validate:"required,max=15"`
	Email        string `json:"email" validate:"required,email,max=50"`
	AddressLine1 string `json:"address_line_1" validate:"required,max=50"`
	AddressLine2 string `json:"address_line_2" validate:"max=50"`
	Country      string `json:"country" validate:"required,max=50"`
	State        string `json:"state" validate:"required,max=50"`
	City         string `json:"city" validate:"required,max=50"`
	OrderNote    string `json:"order_note" validate:"max=100"`
}

// PaymentConfirmation is the payload the payment provider's client posts
// after a successful capture.
type PaymentConfirmation struct {
	OrderNumber   string          `json:"order_number" validate:"required"`
	PaymentID     string          `json:"payment_id" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Status        string          `json:"status" validate:"required"`
}

// Checkout is a placed draft order together with the cart it was computed from.
type Checkout struct {
	Order *models.Order     `json:"order"`
	Items []models.CartItem `json:"items"`
}

// OrderReceipt is a finalized order as shown on the completion page.
type OrderReceipt struct {
	Order    *models.Order `json:"order"`
	Subtotal int64         `json:"subtotal"`
}

// OrderService places orders and captures payments.
type OrderService struct {
	store      repositories.Store
	notifier   notify.Notifier
	events     EventPublisher // optional
	orderQueue string
	now        func() time.Time
}

// NewOrderService creates a new OrderService. events may be nil when no
// message broker is configured.
func NewOrderService(store repositories.Store, notifier notify.Notifier, events EventPublisher, orderQueue string) *OrderService {
	return &OrderService{
		store:      store,
		notifier:   notifier,
		events:     events,
		orderQueue: orderQueue,
		now:        time.Now,
	}
}

// PlaceOrder stores a draft order for the user's cart. The order number needs
// the order id, so it is assigned by a second write after the insert.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, billing BillingDetails, ip string) (*Checkout, error) {
	var checkout Checkout
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Users().LockByID(userID); err != nil {
			return notFound(err, "failed to lock cart of user %s", userID)
		}
		items, err := tx.Carts().ListItems(repositories.UserOwner(userID))
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		var subtotal int64
		for _, item := range items {
			subtotal += item.LineTotal()
		}
		totals := ComputeTotals(subtotal)

		order := &models.Order{
			UserID:       userID,
			FirstName:    billing.FirstName,
			LastName:     billing.LastName,
			PhoneNumber:  billing.PhoneNumber,
			Email:        billing.Email,
			AddressLine1: billing.AddressLine1,
			AddressLine2: billing.AddressLine2,
			Country:      billing.Country,
			State:        billing.State,
			City:         billing.City,
			OrderNote:    billing.OrderNote,
			Subtotal:     totals.Subtotal,
			Tax:          totals.Tax,
			OrderTotal:   totals.GrandTotal,
			IP:           ip,
			CreatedAt:    s.now(),
		}
		if err := tx.Orders().Create(order); err != nil {
			return err
		}
		order.OrderNumber = OrderNumber(order.CreatedAt, order.ID)
		if err := tx.Orders().SetOrderNumber(order.ID, order.OrderNumber); err != nil {
			return err
		}

		checkout = Checkout{Order: order, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Placed order %s for user %s (total %s)", checkout.Order.OrderNumber, userID, checkout.Order.OrderTotal.StringFixed(2))
	return &checkout, nil
}

// FinalizeOrder records the payment of a draft order and materializes the
// user's cart into ordered products. Payment, order flag, snapshots, stock
// decrements and cart clearing commit together or not at all. Notifications
// are sent after commit and never fail the call.
func (s *OrderService) FinalizeOrder(ctx context.Context, userID string, payment PaymentConfirmation) (*models.Order, error) {
	if !payment.AmountPaid.IsPositive() {
		return nil, validationError("amount_paid must be positive")
	}

	var orderID uint
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Users().LockByID(userID); err != nil {
			return notFound(err, "failed to lock cart of user %s", userID)
		}
		order, err := tx.Orders().FindDraft(payment.OrderNumber, userID, true)
		if err != nil {
			return notFound(err, "failed to finalize order %s", payment.OrderNumber)
		}

		record := &models.Payment{
			UserID:        userID,
			PaymentID:     payment.PaymentID,
			PaymentMethod: payment.PaymentMethod,
			AmountPaid:    payment.AmountPaid,
			Status:        payment.Status,
		}
		if err := tx.Orders().CreatePayment(record); err != nil {
			return err
		}
		if err := tx.Orders().Finalize(order.ID, record.ID); err != nil {
			return err
		}

		// The live cart and current prices are read here, not the ones the
		// draft was computed from.
		items, err := tx.Carts().ListItems(repositories.UserOwner(userID))
		if err != nil {
			return err
		}
		snapshots := make([]models.OrderedProduct, 0, len(items))
		for _, item := range items {
			frozen := make([]models.VariationValue, 0, len(item.Variations))
			for _, v := range item.Variations {
				frozen = append(frozen, v.Freeze())
			}
			snapshots = append(snapshots, models.OrderedProduct{
				OrderID:      order.ID,
				PaymentID:    &record.ID,
				UserID:       userID,
				ProductID:    item.ProductID,
				Quantity:     item.Quantity,
				ProductPrice: item.Product.Price,
				Variations:   frozen,
				Ordered:      true,
			})
		}
		if err := tx.Orders().CreateOrderedProducts(snapshots); err != nil {
			return err
		}
		for _, item := range items {
			if err := tx.Products().DecrementStock(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if err := tx.Carts().DeleteItems(repositories.UserOwner(userID)); err != nil {
			return err
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.store.Orders().GetFinalized(payment.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load finalized order %d: %w", orderID, err)
	}
	log.Printf("Finalized order %s with payment %s", order.OrderNumber, payment.PaymentID)

	s.sendOrderReceived(ctx, order)
	s.publishFinalized(order)
	return order, nil
}

func (s *OrderService) sendOrderReceived(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		log.Println("Notifier is not configured. Skipping order confirmation.")
		return
	}
	items := make([]map[string]interface{}, 0, len(order.OrderedProducts))
	for _, p := range order.OrderedProducts {
		variations := make([]string, 0, len(p.Variations))
		for _, v := range p.Variations {
			variations = append(variations, v.Category+": "+v.Value)
		}
		items = append(items, map[string]interface{}{
			"name":       p.Product.Name,
			"quantity":   p.Quantity,
			"price":      p.ProductPrice,
			"variations": variations,
		})
	}
	msg := notify.Message{
		Recipient: order.Email,
		Template:  notify.TemplateOrderReceived,
		Data: map[string]interface{}{
			"name":         order.FullName(),
			"order_number": order.OrderNumber,
			"items":        items,
			"subtotal":     order.Subtotal,
			"tax":          order.Tax.StringFixed(2),
			"order_total":  order.OrderTotal.StringFixed(2),
		},
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		log.Printf("Warning: Failed to send order confirmation for order %s: %v", order.OrderNumber, err)
	}
}

func (s *OrderService) publishFinalized(order *models.Order) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"event":        "order.finalized",
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"order_total":  order.OrderTotal,
		"items":        len(order.OrderedProducts),
	})
	if err != nil {
		log.Printf("Failed to marshal order event to JSON: %v", err)
		return
	}
	if err := s.events.Publish(s.orderQueue, body); err != nil {
		log.Printf("Warning: Failed to publish order finalized event for order %s: %v", order.OrderNumber, err)
	}
}

// OrderComplete returns a finalized order with its ordered products. The
// subtotal is recomputed from the snapshot prices.
func (s *OrderService) OrderComplete(ctx context.Context, orderNumber string) (*OrderReceipt, error) {
	order, err := s.store.Orders().GetFinalized(orderNumber)
	if err != nil {
		return nil, notFound(err, "failed to get order %s", orderNumber)
	}
	receipt := &OrderReceipt{Order: order}
	for _, p := range order.OrderedProducts {
		receipt.Subtotal += p.LineTotal()
	}
	return receipt, nil
}

// ListOrders returns the finalized orders of a user, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.Orders().ListFinalizedByUser(userID)
}
