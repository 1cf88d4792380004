package output

import (
	"github.com/rpgo/lifesim/pkg/decimal"
	stddec "github.com/shopspring/decimal"
)

var hundred = stddec.NewFromInt(100)

// FormatCurrency formats a decimal as USD with thousands separators.
func FormatCurrency(amount stddec.Decimal) string { return decimal.FormatDecimal(amount) }

// FormatPercentage formats a fraction as a percentage with 2 decimals.
func FormatPercentage(fraction stddec.Decimal) string {
	return fraction.Mul(hundred).StringFixed(2) + "%"
}
