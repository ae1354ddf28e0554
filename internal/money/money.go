package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units.
type Money = int64

var hundred = decimal.NewFromInt(100)

// FromDecimal converts a decimal amount in major units into minor units,
// rounding half away from zero to the nearest cent.
func FromDecimal(d decimal.Decimal) Money {
	return d.Mul(hundred).Round(0).IntPart()
}

// ToDecimal converts minor units into a decimal amount in major units.
func ToDecimal(m Money) decimal.Decimal {
	return decimal.New(m, -2)
}

// PercentOf returns pct percent of the amount, rounded to the nearest cent.
func PercentOf(m Money, pct float64) Money {
	if m == 0 || pct == 0 {
		return 0
	}
	return FromDecimal(ToDecimal(m).Mul(decimal.NewFromFloat(pct)).Div(hundred))
}

// Format renders the amount as a plain major-unit string, e.g. 599 -> "5.99".
func Format(m Money) string {
	return ToDecimal(m).StringFixed(2)
}

// FormatUSD renders the amount with a dollar sign for human-facing messages.
func FormatUSD(m Money) string {
	if m < 0 {
		return fmt.Sprintf("-$%s", ToDecimal(-m).StringFixed(2))
	}
	return "$" + ToDecimal(m).StringFixed(2)
}
