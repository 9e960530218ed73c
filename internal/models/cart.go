package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cart is the anonymous cart of one browser session.
type Cart struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	CartID    string     `json:"cart_id" gorm:"uniqueIndex;type:varchar(64)"` // session token
	Items     []CartItem `json:"items,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"created_at"`
}

// CartItem is one line of a cart. It belongs either to a session Cart or to a user, never both.
type CartItem struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	CartID       *uint       `json:"cart_id,omitempty" gorm:"index"`
	UserID       *string     `json:"user_id,omitempty" gorm:"index;type:varchar(36)"`
	ProductID    string      `json:"product_id" gorm:"index;type:varchar(36)"`
	Product      Product     `json:"product" gorm:"foreignKey:ProductID"`
	Quantity     int         `json:"quantity"`
	Variations   []Variation `json:"variations" gorm:"many2many:cart_item_variations;"`
	VariationKey string      `json:"-" gorm:"index;type:varchar(255)"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// LineTotal is price times quantity at the product's current price.
func (i CartItem) LineTotal() int64 {
	return i.Product.Price * int64(i.Quantity)
}

// VariationIDs returns the sorted ids of the item's variations.
func (i CartItem) VariationIDs() []uint {
	ids := make([]uint, 0, len(i.Variations))
	for _, v := range i.Variations {
		ids = append(ids, v.ID)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

// VariationKey renders a variation-id-set as a canonical string: the ids
// deduplicated, sorted ascending and comma separated. The empty set is "".
func VariationKey(ids []uint) string {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })

	parts := make([]string, 0, len(sorted))
	for i, id := range sorted {
		if i > 0 && sorted[i-1] == id {
			continue
		}
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}
