// Package estimate computes per-item price suggestions and the realized
// spend of a shopping list.
package estimate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-lista/internal/pricing"
)

// FallbackProductName is shown when the item's product row is missing.
const FallbackProductName = "Produto"

// EstimatedItem is one list line with its suggested price.
type EstimatedItem struct {
	ItemID           string
	ProductID        string
	ProductName      string
	Quantity         decimal.Decimal
	Unit             string
	UnitPrice        decimal.Decimal
	Origin           pricing.Origin
	ItemTotal        decimal.Decimal
	IsPriceAvailable bool
	PaidPrice        *decimal.Decimal
	PurchasedAt      *time.Time
}

// Purchased reports whether the item carries both a paid price and a
// purchase time.
func (i EstimatedItem) Purchased() bool {
	return i.PaidPrice != nil && i.PurchasedAt != nil
}

// ListEstimate is the estimate for a whole list. EstimatedTotal is the sum of
// prices actually paid, not of the suggested item totals.
type ListEstimate struct {
	ListID         string
	Currency       string
	Items          []EstimatedItem
	EstimatedTotal decimal.Decimal
}

func emptyEstimate(listID string) ListEstimate {
	return ListEstimate{
		ListID:         listID,
		Currency:       pricing.Currency,
		Items:          []EstimatedItem{},
		EstimatedTotal: decimal.Zero,
	}
}
