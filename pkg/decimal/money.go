package decimal

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a US dollar amount with proper financial precision
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal creates a new Money instance from a decimal.Decimal
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

// Cents returns the amount in whole cents, rounding half away from zero.
func (m Money) Cents() int64 {
	return m.Decimal.Round(2).Shift(2).IntPart()
}

// Format renders the amount as US currency with thousands separators, e.g. "$1,234.56".
func (m Money) Format() string {
	return money.New(m.Cents(), money.USD).Display()
}

// FormatDecimal is a shortcut for NewMoneyFromDecimal(d).Format().
func FormatDecimal(d decimal.Decimal) string {
	return NewMoneyFromDecimal(d).Format()
}
