// Package format renders trade values and ranks for panel text.
package format

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// NoData is rendered for values that are not numbers.
const NoData = "No data"

type scale struct {
	min    float64
	shift  int32 // decimal exponent of one tenth of the unit
	suffix string
}

var scales = []scale{
	{min: 1e9, shift: 8, suffix: " bn"},
	{min: 1e6, shift: 5, suffix: " m"},
	{min: 1e3, shift: 2, suffix: " th"},
}

// Money renders a US dollar value compactly: "$1.5 bn", "$230 m", "$12 th", "$431".
// Zero renders as "0".
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NoData
	}
	if v == 0 {
		return "0"
	}
	d := decimal.NewFromFloat(v)
	for _, s := range scales {
		if math.Abs(v) >= s.min {
			tenths := d.Shift(-s.shift).Round(0).Shift(-1)
			return dollars(tenths, 1) + s.suffix
		}
	}
	return dollars(d.Round(0), 0)
}

// MoneyFull renders a US dollar value at full precision with separators.
func MoneyFull(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NoData
	}
	return dollars(decimal.NewFromFloat(v), -1)
}

// Percent renders a share with one decimal, e.g. "30.0".
func Percent(pc float64) string {
	return decimal.NewFromFloat(pc).StringFixed(1)
}

// Ordinal renders a rank as "1st", "2nd", "3rd", "4th", "11th", "22nd".
func Ordinal(n int) string {
	m := n % 100
	if m < 0 {
		m = -m
	}
	suffix := "th"
	if m < 11 || m > 13 {
		switch m % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// dollars prefixes "$" after the sign. digits < 0 keeps every decimal.
func dollars(d decimal.Decimal, digits int) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	f := d.InexactFloat64()
	var body string
	if digits < 0 {
		body = humanize.Commaf(f)
	} else {
		body = humanize.CommafWithDigits(f, digits)
	}
	return sign + "$" + body
}
