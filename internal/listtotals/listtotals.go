// Package listtotals sums what was actually paid per category.
package listtotals

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-lista/internal/pricing"
)

// Uncategorized is the bucket for items without a usable category name.
const Uncategorized = "Sem categoria"

// DefaultDisplayOrder is the category order shown to users.
var DefaultDisplayOrder = []string{"Alimentos", "Bebidas", "Higiene", "Limpeza", "Utilidades", Uncategorized}

// PurchasedItem is the minimal view of a list item needed for totals.
type PurchasedItem struct {
	Purchased    bool
	PaidPrice    *decimal.Decimal
	CategoryName string
}

// CategoryTotal is the paid amount for one category.
type CategoryTotal struct {
	CategoryName string
	Total        decimal.Decimal
}

// NormalizeCategoryName maps blank names and "Outros" to Uncategorized.
func NormalizeCategoryName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "Outros" {
		return Uncategorized
	}
	return name
}

// BuildOrderedCategoryTotals sums paid prices of purchased items by category
// and returns only the categories in displayOrder, in that order. Categories
// with no purchases are omitted.
func BuildOrderedCategoryTotals(items []PurchasedItem, displayOrder []string) []CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	for _, item := range items {
		if !item.Purchased || item.PaidPrice == nil {
			continue
		}
		name := NormalizeCategoryName(item.CategoryName)
		sums[name] = pricing.Round2(sums[name].Add(*item.PaidPrice))
	}

	out := make([]CategoryTotal, 0, len(sums))
	for _, name := range displayOrder {
		total, ok := sums[name]
		if !ok {
			continue
		}
		out = append(out, CategoryTotal{CategoryName: name, Total: total})
	}
	return out
}
