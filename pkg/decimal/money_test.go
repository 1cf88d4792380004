package decimal

import (
	"testing"

	stddec "github.com/shopspring/decimal"
)

func TestNewMoneyFromDecimal(t *testing.T) {
	d := stddec.NewFromFloat(10.125)
	m := NewMoneyFromDecimal(d)
	if !m.Decimal.Equal(d) {
		t.Fatalf("NewMoneyFromDecimal mismatch: got %s want %s", m.Decimal, d)
	}
}

func TestCentsAndFormat(t *testing.T) {
	m := NewMoneyFromDecimal(stddec.RequireFromString("1234567.891"))
	if got := m.Cents(); got != 123456789 {
		t.Fatalf("Cents got %d", got)
	}
	if got := m.Format(); got != "$1,234,567.89" {
		t.Fatalf("Format got %s", got)
	}
	if got := NewMoneyFromDecimal(stddec.RequireFromString("0.125")).Cents(); got != 13 {
		t.Fatalf("half cent rounding got %d", got)
	}
	if got := FormatDecimal(stddec.NewFromInt(50)); got != "$50.00" {
		t.Fatalf("FormatDecimal got %s", got)
	}
	if got := FormatDecimal(stddec.NewFromInt(-2500)); got != "-$2,500.00" {
		t.Fatalf("negative FormatDecimal got %s", got)
	}
}
