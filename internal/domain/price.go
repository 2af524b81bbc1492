package domain

import (
	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1000)
	hundred  = decimal.NewFromInt(100)
	one      = decimal.NewFromInt(1)
)

// PricePrecision returns the number of decimals used for a USD price.
func PricePrecision(p decimal.Decimal) int32 {
	switch {
	case p.GreaterThanOrEqual(thousand):
		return 0
	case p.GreaterThanOrEqual(hundred):
		return 1
	case p.GreaterThanOrEqual(one):
		return 2
	default:
		return 6
	}
}

// FormatPrice renders p with magnitude-tiered precision:
// >=1000 no decimals, >=100 one, >=1 two, otherwise six.
func FormatPrice(p float64) string {
	return FormatDecimal(decimal.NewFromFloat(p))
}

// FormatDecimal applies the tiered precision. A value that rounds up into the
// next tier (999.96 -> 1000) is printed with that tier's precision so that
// reformatting a formatted price is a no-op.
func FormatDecimal(d decimal.Decimal) string {
	prec := PricePrecision(d)
	r := d.Round(prec)
	if p := PricePrecision(r); p != prec {
		return r.StringFixed(p)
	}
	return r.StringFixed(prec)
}

// ParsePrice parses a formatted price back into a decimal.
func ParsePrice(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
