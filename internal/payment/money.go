package payment

import (
	"github.com/shopspring/decimal"
)

// NairaPerCoin is the fixed exchange rate for coin purchases.
var NairaPerCoin = decimal.NewFromInt(10)

var (
	hundred   = decimal.NewFromInt(100)
	tolerance = decimal.NewFromInt(1)
)

// KoboToNaira converts a minor-unit amount reported by Paystack.
func KoboToNaira(kobo int64) float64 {
	f, _ := decimal.NewFromInt(kobo).Div(hundred).Float64()
	return f
}

// NairaToKobo converts naira to kobo, rounding to the nearest kobo.
func NairaToKobo(naira float64) int64 {
	return decimal.NewFromFloat(naira).Mul(hundred).Round(0).IntPart()
}

// NairaToCoins returns how many whole coins an amount buys.
func NairaToCoins(naira float64) int64 {
	if naira <= 0 {
		return 0
	}
	return decimal.NewFromFloat(naira).Div(NairaPerCoin).Floor().IntPart()
}

// WithinTolerance reports whether a paid amount matches the expected one to within ₦1.
func WithinTolerance(expected, paid float64) bool {
	diff := decimal.NewFromFloat(expected).Sub(decimal.NewFromFloat(paid)).Abs()
	return diff.LessThanOrEqual(tolerance)
}

// ParseAmount parses a decimal string such as "10.00". Empty or malformed
// input yields zero.
func ParseAmount(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
