package ledger

import (
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// IncomeEvent is a dated amount in the tax log
type IncomeEvent struct {
	Month  time.Time       `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// TaxLedger is the append-only tax log of one life
type TaxLedger struct {
	ordinary       []IncomeEvent
	capitalGains   []IncomeEvent
	socialSecurity []IncomeEvent
	withheld       []IncomeEvent
	rmd            map[int]decimal.Decimal
	incomeTarget   decimal.Decimal
	taxPaid        decimal.Decimal
}

// NewTaxLedger starts an empty log with the given income target
func NewTaxLedger(incomeTarget decimal.Decimal) TaxLedger {
	return TaxLedger{incomeTarget: incomeTarget}
}

// appendEvent never writes into a backing array another ledger value can see
func appendEvent(events []IncomeEvent, month time.Time, amount decimal.Decimal) []IncomeEvent {
	return append(slices.Clip(events), IncomeEvent{Month: month, Amount: amount})
}

func (t TaxLedger) AddOrdinaryIncome(month time.Time, amount decimal.Decimal) TaxLedger {
	t.ordinary = appendEvent(t.ordinary, month, amount)
	return t
}

func (t TaxLedger) AddCapitalGain(month time.Time, amount decimal.Decimal) TaxLedger {
	t.capitalGains = appendEvent(t.capitalGains, month, amount)
	return t
}

func (t TaxLedger) AddSocialSecurity(month time.Time, amount decimal.Decimal) TaxLedger {
	t.socialSecurity = appendEvent(t.socialSecurity, month, amount)
	return t
}

func (t TaxLedger) AddWithheld(month time.Time, amount decimal.Decimal) TaxLedger {
	t.withheld = appendEvent(t.withheld, month, amount)
	return t
}

// AddRMDDistribution records a tax-deferred distribution against the year's requirement
func (t TaxLedger) AddRMDDistribution(year int, amount decimal.Decimal) TaxLedger {
	rmd := maps.Clone(t.rmd)
	if rmd == nil {
		rmd = make(map[int]decimal.Decimal)
	}
	rmd[year] = rmd[year].Add(amount)
	t.rmd = rmd
	return t
}

func (t TaxLedger) WithIncomeTarget(target decimal.Decimal) TaxLedger {
	t.incomeTarget = target
	return t
}

func (t TaxLedger) AddTaxPaid(amount decimal.Decimal) TaxLedger {
	t.taxPaid = t.taxPaid.Add(amount)
	return t
}

func sumYear(events []IncomeEvent, year int) decimal.Decimal {
	total := decimal.Zero
	for _, e := range events {
		if e.Month.Year() == year {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func (t TaxLedger) OrdinaryIncome(year int) decimal.Decimal { return sumYear(t.ordinary, year) }
func (t TaxLedger) CapitalGains(year int) decimal.Decimal   { return sumYear(t.capitalGains, year) }
func (t TaxLedger) SocialSecurityIncome(year int) decimal.Decimal {
	return sumYear(t.socialSecurity, year)
}
func (t TaxLedger) Withheld(year int) decimal.Decimal { return sumYear(t.withheld, year) }

// RMDDistributed is the tax-deferred amount already distributed in a year
func (t TaxLedger) RMDDistributed(year int) decimal.Decimal { return t.rmd[year] }

func (t TaxLedger) IncomeTarget() decimal.Decimal    { return t.incomeTarget }
func (t TaxLedger) LifetimeTaxPaid() decimal.Decimal { return t.taxPaid }

// IncomeRoom is the ordinary-income headroom left in a year
func (t TaxLedger) IncomeRoom(year int) decimal.Decimal {
	room := t.incomeTarget.Sub(t.OrdinaryIncome(year)).Sub(t.CapitalGains(year))
	return decimal.Max(room, decimal.Zero)
}

// Events returns the ordinary, capital gains and Social Security logs
func (t TaxLedger) Events() (ordinary, gains, socialSecurity []IncomeEvent) {
	return slices.Clone(t.ordinary), slices.Clone(t.capitalGains), slices.Clone(t.socialSecurity)
}
