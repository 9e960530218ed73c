package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the confirmation received from the payment provider.
type Payment struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	UserID        string          `json:"user_id" gorm:"index;type:varchar(36)"`
	PaymentID     string          `json:"payment_id" gorm:"type:varchar(100)"`
	PaymentMethod string          `json:"payment_method" gorm:"type:varchar(100)"`
	AmountPaid    decimal.Decimal `json:"amount_paid" gorm:"type:decimal(14,3)"`
	Status        string          `json:"status" gorm:"type:varchar(100)"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Order is a checkout attempt. It starts as a draft and becomes finalized once
// a payment is attached; nothing else changes after that.
type Order struct {
	ID              uint             `json:"id" gorm:"primaryKey"`
	OrderNumber     string           `json:"order_number" gorm:"index;type:varchar(32)"`
	UserID          string           `json:"user_id" gorm:"index;type:varchar(36)"`
	FirstName       string           `json:"first_name"`
	LastName        string           `json:"last_name"`
	PhoneNumber     string           `json:"phone_number"`
	Email           string           `json:"email"`
	AddressLine1    string           `json:"address_line_1"`
	AddressLine2    string           `json:"address_line_2"`
	Country         string           `json:"country"`
	State           string           `json:"state"`
	City            string           `json:"city"`
	OrderNote       string           `json:"order_note"`
	Subtotal        int64            `json:"subtotal"`
	Tax             decimal.Decimal  `json:"tax" gorm:"type:decimal(14,3)"`
	OrderTotal      decimal.Decimal  `json:"order_total" gorm:"type:decimal(14,3)"`
	IP              string           `json:"ip" gorm:"type:varchar(45)"`
	IsFinalized     bool             `json:"is_finalized" gorm:"index"`
	PaymentID       *uint            `json:"payment_id,omitempty"`
	Payment         *Payment         `json:"payment,omitempty"`
	OrderedProducts []OrderedProduct `json:"ordered_products,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// FullName joins the billing first and last name.
func (o Order) FullName() string {
	if o.LastName == "" {
		return o.FirstName
	}
	return o.FirstName + " " + o.LastName
}

// OrderedProduct is the immutable snapshot of a cart line taken when the order was paid.
type OrderedProduct struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	OrderID      uint             `json:"order_id" gorm:"index"`
	PaymentID    *uint            `json:"payment_id,omitempty"`
	UserID       string           `json:"user_id" gorm:"index;type:varchar(36)"`
	ProductID    string           `json:"product_id" gorm:"index;type:varchar(36)"`
	Product      Product          `json:"product" gorm:"foreignKey:ProductID"`
	Quantity     int              `json:"quantity"`
	ProductPrice int64            `json:"product_price"`
	Variations   []VariationValue `json:"variations" gorm:"serializer:json"`
	Ordered      bool             `json:"ordered"`
	CreatedAt    time.Time        `json:"created_at"`
}

// LineTotal is the snapshot price times quantity.
func (p OrderedProduct) LineTotal() int64 {
	return p.ProductPrice * int64(p.Quantity)
}
