package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTaxLedgerYearTotals(t *testing.T) {
	tax := NewTaxLedger(d(50000)).
		AddOrdinaryIncome(month(2025, 1), d(10000)).
		AddOrdinaryIncome(month(2025, 6), d(5000)).
		AddOrdinaryIncome(month(2026, 1), d(7000)).
		AddCapitalGain(month(2025, 3), d(2500)).
		AddSocialSecurity(month(2025, 4), d(1800)).
		AddWithheld(month(2025, 4), d(900))

	assert.True(t, tax.OrdinaryIncome(2025).Equal(d(15000)))
	assert.True(t, tax.OrdinaryIncome(2026).Equal(d(7000)))
	assert.True(t, tax.CapitalGains(2025).Equal(d(2500)))
	assert.True(t, tax.SocialSecurityIncome(2025).Equal(d(1800)))
	assert.True(t, tax.Withheld(2025).Equal(d(900)))
	assert.True(t, tax.IncomeRoom(2025).Equal(d(32500)))
}

func TestIncomeRoomNeverNegative(t *testing.T) {
	tax := NewTaxLedger(d(1000)).AddOrdinaryIncome(month(2025, 2), d(5000))
	assert.True(t, tax.IncomeRoom(2025).IsZero())
}

func TestTaxLedgerBranchesDoNotShareEvents(t *testing.T) {
	base := NewTaxLedger(decimal.Zero).AddOrdinaryIncome(month(2025, 1), d(100))
	a := base.AddOrdinaryIncome(month(2025, 2), d(1))
	b := base.AddOrdinaryIncome(month(2025, 2), d(2))

	assert.True(t, base.OrdinaryIncome(2025).Equal(d(100)))
	assert.True(t, a.OrdinaryIncome(2025).Equal(d(101)))
	assert.True(t, b.OrdinaryIncome(2025).Equal(d(102)))
}

func TestRMDDistributionsAreCopied(t *testing.T) {
	base := NewTaxLedger(decimal.Zero).AddRMDDistribution(2030, d(1000))
	next := base.AddRMDDistribution(2030, d(500)).AddTaxPaid(d(42)).WithIncomeTarget(d(7))

	assert.True(t, base.RMDDistributed(2030).Equal(d(1000)))
	assert.True(t, next.RMDDistributed(2030).Equal(d(1500)))
	assert.True(t, next.RMDDistributed(2031).IsZero())
	assert.True(t, next.LifetimeTaxPaid().Equal(d(42)))
	assert.True(t, next.IncomeTarget().Equal(d(7)))
	assert.True(t, base.IncomeTarget().IsZero())
}
