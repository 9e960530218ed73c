package services

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// TaxRate is applied to the subtotal of every cart and order (1.5%).
var TaxRate = decimal.New(15, -3)

// Totals are the amounts shown for a cart and stored on an order.
type Totals struct {
	Subtotal   int64           `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// ComputeTotals derives tax and grand total from a subtotal.
func ComputeTotals(subtotal int64) Totals {
	sub := decimal.NewFromInt(subtotal)
	tax := sub.Mul(TaxRate)
	return Totals{
		Subtotal:   subtotal,
		Tax:        tax,
		GrandTotal: sub.Add(tax),
	}
}

// OrderNumber builds the human readable number of an order: the creation
// date as YYYYMMDD followed by the order's database id.
func OrderNumber(created time.Time, id uint) string {
	return created.Format("20060102") + strconv.FormatUint(uint64(id), 10)
}
