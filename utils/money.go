package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnitExponent is the number of minor units per major unit, as a power of ten.
const minorUnitExponent int32 = -2

// FormatMinorUnits renders an amount in minor units as a grouped major-unit string,
// e.g. 1850000000 -> "18,500,000.00".
func FormatMinorUnits(amount int64) string {
	fixed := decimal.New(amount, minorUnitExponent).StringFixed(-minorUnitExponent)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}

	whole, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}
