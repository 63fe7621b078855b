package listtotals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func paid(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestBuildOrderedCategoryTotalsSumsPerCategory(t *testing.T) {
	items := []PurchasedItem{
		{Purchased: true, PaidPrice: paid("10"), CategoryName: "Bebidas"},
		{Purchased: true, PaidPrice: paid("5.5"), CategoryName: "Bebidas"},
		{Purchased: true, PaidPrice: paid("3.25"), CategoryName: "Alimentos"},
	}

	got := BuildOrderedCategoryTotals(items, DefaultDisplayOrder)
	require.Len(t, got, 2)
	require.Equal(t, "Alimentos", got[0].CategoryName)
	require.Equal(t, "3.25", got[0].Total.StringFixed(2))
	require.Equal(t, "Bebidas", got[1].CategoryName)
	require.Equal(t, "15.50", got[1].Total.StringFixed(2))
}

func TestBuildOrderedCategoryTotalsNormalizesUncategorized(t *testing.T) {
	items := []PurchasedItem{
		{Purchased: true, PaidPrice: paid("2"), CategoryName: "Outros"},
		{Purchased: true, PaidPrice: paid("1.10"), CategoryName: "  "},
		{Purchased: true, PaidPrice: paid("4"), CategoryName: "Limpeza"},
	}

	got := BuildOrderedCategoryTotals(items, DefaultDisplayOrder)
	require.Equal(t, []string{"Limpeza", Uncategorized}, names(got))
	require.Equal(t, "3.10", got[1].Total.StringFixed(2))
}

func TestBuildOrderedCategoryTotalsSkipsUnpurchased(t *testing.T) {
	items := []PurchasedItem{
		{Purchased: false, PaidPrice: paid("9"), CategoryName: "Higiene"},
		{Purchased: true, PaidPrice: nil, CategoryName: "Higiene"},
	}

	require.Empty(t, BuildOrderedCategoryTotals(items, DefaultDisplayOrder))
}

func TestBuildOrderedCategoryTotalsDropsUnlistedNames(t *testing.T) {
	items := []PurchasedItem{
		{Purchased: true, PaidPrice: paid("7"), CategoryName: "Pet"},
		{Purchased: true, PaidPrice: paid("1"), CategoryName: "Utilidades"},
	}

	got := BuildOrderedCategoryTotals(items, DefaultDisplayOrder)
	require.Equal(t, []string{"Utilidades"}, names(got))
}

func names(totals []CategoryTotal) []string {
	out := make([]string, 0, len(totals))
	for _, total := range totals {
		out = append(out, total.CategoryName)
	}
	return out
}
