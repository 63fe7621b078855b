// Package pricing decides which historical price to suggest for a product
// and holds the money helpers shared by estimates and totals.
package pricing

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-lista/internal/region"
)

// Origin tags where a suggested price came from.
type Origin string

const (
	OriginUserLastPrice   Origin = "user_last_price"
	OriginUserAvgPrice    Origin = "user_avg_price"
	OriginSeedState       Origin = "seed_state"
	OriginSeedMacroRegion Origin = "seed_macro_region"
	OriginSeedNational    Origin = "seed_national"
	OriginUnavailable     Origin = "unavailable"
)

// RegionType classifies seed price rows.
type RegionType string

const (
	RegionState       RegionType = "state"
	RegionMacroRegion RegionType = "macro_region"
	RegionNational    RegionType = "national"
)

// UserPrice is one price the user paid for a product.
type UserPrice struct {
	PaidPrice   decimal.Decimal
	PurchasedAt time.Time
}

// SeedPrice is a regional average reference price.
type SeedPrice struct {
	RegionType    RegionType
	RegionCode    string
	AvgPrice      decimal.Decimal
	EffectiveDate time.Time
}

// Suggestion is the resolved unit price for a product.
type Suggestion struct {
	UnitPrice        decimal.Decimal
	Origin           Origin
	IsPriceAvailable bool
}

// Resolve picks a unit price using, in order: the user's latest price, the
// mean of the user's valid prices, then seed prices for the state, the
// macro-region and the whole country. When nothing applies the suggestion is
// zero and unavailable.
func Resolve(userPrices []UserPrice, seedPrices []SeedPrice, rc region.Context) Suggestion {
	if price, ok := latestUserPrice(userPrices); ok {
		return available(price, OriginUserLastPrice)
	}
	if price, ok := averageUserPrice(userPrices); ok {
		return available(price, OriginUserAvgPrice)
	}

	sorted := byRecency(seedPrices)
	if rc.UF != "" {
		if price, ok := firstSeed(sorted, RegionState, rc.UF); ok {
			return available(price, OriginSeedState)
		}
	}
	if rc.MacroRegion != "" {
		if price, ok := firstSeed(sorted, RegionMacroRegion, rc.MacroRegion); ok {
			return available(price, OriginSeedMacroRegion)
		}
	}
	if price, ok := firstSeed(sorted, RegionNational, region.NationalCode); ok {
		return available(price, OriginSeedNational)
	}

	return Suggestion{UnitPrice: decimal.Zero, Origin: OriginUnavailable}
}

func available(price decimal.Decimal, origin Origin) Suggestion {
	return Suggestion{UnitPrice: price, Origin: origin, IsPriceAvailable: true}
}

// latestUserPrice returns the most recent price; on equal timestamps the
// earliest row in input order wins. A non-positive latest price is invalid.
func latestUserPrice(rows []UserPrice) (decimal.Decimal, bool) {
	if len(rows) == 0 {
		return decimal.Zero, false
	}
	latest := rows[0]
	for _, row := range rows[1:] {
		if row.PurchasedAt.After(latest.PurchasedAt) {
			latest = row
		}
	}
	if !latest.PaidPrice.IsPositive() {
		return decimal.Zero, false
	}
	return latest.PaidPrice, true
}

func averageUserPrice(rows []UserPrice) (decimal.Decimal, bool) {
	total := decimal.Zero
	count := 0
	for _, row := range rows {
		if !row.PaidPrice.IsPositive() {
			continue
		}
		total = total.Add(row.PaidPrice)
		count++
	}
	if count == 0 {
		return decimal.Zero, false
	}
	return Round2(total.Div(decimal.NewFromInt(int64(count)))), true
}

func byRecency(rows []SeedPrice) []SeedPrice {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b SeedPrice) int {
		return b.EffectiveDate.Compare(a.EffectiveDate)
	})
	return sorted
}

// firstSeed returns the first usable row of the given type and code. Rows
// with a non-positive average are skipped so the chain falls through.
func firstSeed(sorted []SeedPrice, kind RegionType, code string) (decimal.Decimal, bool) {
	for _, row := range sorted {
		if row.RegionType != kind || !strings.EqualFold(row.RegionCode, code) {
			continue
		}
		if !row.AvgPrice.IsPositive() {
			continue
		}
		return row.AvgPrice, true
	}
	return decimal.Zero, false
}
