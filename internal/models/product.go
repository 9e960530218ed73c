package models

import "time"

// Variation categories a product can be configured by.
const (
	VariationColor = "color"
	VariationSize  = "size"
)

// Category groups products in the storefront navigation.
type Category struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"uniqueIndex;type:varchar(100)" validate:"required,max=100"`
	Slug        string `json:"slug" gorm:"uniqueIndex;type:varchar(100)" validate:"required,max=100"`
	SortOrder   int    `json:"sort_order"`
	Description string `json:"description"`
}

// Product represents a product in the store.
type Product struct {
	ID               string      `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name             string      `json:"name" gorm:"type:varchar(200)" validate:"required,min=3,max=200"`
	Slug             string      `json:"slug" gorm:"uniqueIndex;type:varchar(200)" validate:"required,max=200"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"short_description" validate:"omitempty,max=500"`
	Price            int64       `json:"price" validate:"gt=0"` // whole currency units
	Stock            int         `json:"stock"`
	IsAvailable      bool        `json:"is_available"`
	Categories       []Category  `json:"categories,omitempty" gorm:"many2many:product_categories;"`
	Variations       []Variation `json:"variations,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Variation is one selectable option of a product, e.g. color=red.
type Variation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID string    `json:"product_id" gorm:"index;type:varchar(36)"`
	Category  string    `json:"category" gorm:"type:varchar(100)" validate:"required,oneof=color size"`
	Value     string    `json:"value" gorm:"type:varchar(100)" validate:"required,max=100"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// VariationValue is the frozen form of a variation kept on ordered products.
type VariationValue struct {
	ID       uint   `json:"id"`
	Category string `json:"category"`
	Value    string `json:"value"`
}

// Freeze copies the identifying fields of v.
func (v Variation) Freeze() VariationValue {
	return VariationValue{ID: v.ID, Category: v.Category, Value: v.Value}
}
