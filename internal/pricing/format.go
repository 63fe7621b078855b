package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders v as "R$ 1.234,56".
func FormatBRL(v decimal.Decimal) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}
	fixed := v.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "R$ " + b.String() + "," + frac
}

// ExtractDigits drops every non-digit rune.
func ExtractDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseBRL reads a masked currency input where the digits are cents.
func ParseBRL(masked string) (decimal.Decimal, bool) {
	digits := ExtractDigits(masked)
	if digits == "" {
		return decimal.Zero, false
	}
	cents, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, false
	}
	return Round2(cents.Shift(-2)), true
}

// NormalizeQuantity keeps digits and a single decimal separator, turning
// commas into dots and capping the fraction at three digits.
func NormalizeQuantity(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
			b.WriteByte('.')
		}
	}
	sanitized := b.String()
	intPart, frac, found := strings.Cut(sanitized, ".")
	if !found {
		return sanitized
	}
	frac = strings.ReplaceAll(frac, ".", "")
	if len(frac) > 3 {
		frac = frac[:3]
	}
	return intPart + "." + frac
}
