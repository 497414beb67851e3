// Package money holds amounts as integer cents.
package money

import (
	"fmt"
	"math"
)

// Cents is an amount in hundredths of the currency unit.
type Cents int64

// FromFloat rounds v to the nearest cent, halves away from zero.
func FromFloat(v float64) Cents {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return Cents(math.Round(v * 100))
}

// Times multiplies by a quantity.
func (c Cents) Times(qty int) Cents {
	return c * Cents(qty)
}

// Percent returns pct percent of c, rounded to the nearest cent.
func (c Cents) Percent(pct float64) Cents {
	return FromFloat(float64(c) * pct / 100 / 100)
}

func (c Cents) Float() float64 {
	return float64(c) / 100
}

// String formats as a plain two-decimal number, e.g. "19.98".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Dollars formats with a leading dollar sign, e.g. "$19.98".
func (c Cents) Dollars() string {
	if c < 0 {
		return "-$" + (-c).String()
	}
	return "$" + c.String()
}
