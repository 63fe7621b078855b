package pricing

import "github.com/shopspring/decimal"

// Currency is the single ISO 4217 currency handled by the service.
const Currency = "BRL"

// Round2 rounds a monetary value to two fractional digits.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// ItemTotal is unitPrice × quantity rounded to cents.
func ItemTotal(unitPrice, quantity decimal.Decimal) decimal.Decimal {
	return Round2(unitPrice.Mul(quantity))
}
