package domain

import "github.com/shopspring/decimal"

// Round2 rounds half away from zero to two decimal places, the precision of
// every monetary amount, distance and duration the service reports.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// Null wraps d as a valid NullDecimal.
func Null(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
