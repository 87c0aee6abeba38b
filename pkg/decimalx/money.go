// Package decimalx provides half-up money rounding over shopspring/decimal.
// Every monetary value in the conversation core (item prices, modifier costs,
// order totals) flows through these helpers; float64 is never used for money.
package decimalx

import "github.com/shopspring/decimal"

// TwoDP is the scale every monetary amount in the system is stored and
// displayed at.
const TwoDP int32 = 2

// RoundHalfUp rounds d to 2 decimal places using half-up (not banker's)
// rounding, matching how a drive-thru POS quotes a price to a customer.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return roundHalfUp(d, TwoDP)
}

// roundHalfUp rounds d to places decimal digits, rounding .5 away from zero.
// decimal.Round uses half-away-from-zero already for positive values, but we
// spell it out explicitly so the half-up contract can't silently drift if the
// underlying library's default rounding mode ever changes.
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	shift := decimal.New(1, places)
	shifted := d.Mul(shift)

	half := decimal.NewFromFloat(0.5)
	var adjusted decimal.Decimal
	if shifted.Sign() >= 0 {
		adjusted = shifted.Add(half)
	} else {
		adjusted = shifted.Sub(half)
	}

	return adjusted.Truncate(0).Div(shift).Truncate(places)
}

// Sum adds a list of monetary amounts and rounds the result to 2dp.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return RoundHalfUp(total)
}

// FromCents converts an integer cent amount (as used by some upstream
// sources) into a 2dp decimal.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// MustParse parses a decimal string, returning zero on error. Intended for
// config defaults and literals known to be well-formed at compile time, not
// for user input.
func MustParse(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
