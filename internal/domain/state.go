package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecessionState is the output of the recession tracker for one month
type RecessionState struct {
	InRecession           bool
	InExtremeAusterity    bool
	RecoveryPoint         decimal.Decimal
	Duration              int
	ExtremeAusterityEnded time.Time
	MonthsAboveTrigger    int
}

// LifetimeAccumulators are running totals for one life
type LifetimeAccumulators struct {
	Spend                  decimal.Decimal `json:"spend"`
	InvestmentGrowth       decimal.Decimal `json:"investment_growth"`
	DebtGrowth             decimal.Decimal `json:"debt_growth"`
	DebtPaid               decimal.Decimal `json:"debt_paid"`
	SocialSecurityReceived decimal.Decimal `json:"social_security_received"`
	FunPoints              decimal.Decimal `json:"fun_points"`
	HealthcareSpend        decimal.Decimal `json:"healthcare_spend"`
}

func (a LifetimeAccumulators) AddSpend(d decimal.Decimal) LifetimeAccumulators {
	a.Spend = a.Spend.Add(d)
	return a
}

func (a LifetimeAccumulators) AddInvestmentGrowth(d decimal.Decimal) LifetimeAccumulators {
	a.InvestmentGrowth = a.InvestmentGrowth.Add(d)
	return a
}

func (a LifetimeAccumulators) AddDebtGrowth(d decimal.Decimal) LifetimeAccumulators {
	a.DebtGrowth = a.DebtGrowth.Add(d)
	return a
}

func (a LifetimeAccumulators) AddDebtPaid(d decimal.Decimal) LifetimeAccumulators {
	a.DebtPaid = a.DebtPaid.Add(d)
	return a
}

func (a LifetimeAccumulators) AddSocialSecurity(d decimal.Decimal) LifetimeAccumulators {
	a.SocialSecurityReceived = a.SocialSecurityReceived.Add(d)
	return a
}

func (a LifetimeAccumulators) AddFunPoints(d decimal.Decimal) LifetimeAccumulators {
	a.FunPoints = a.FunPoints.Add(d)
	return a
}

func (a LifetimeAccumulators) AddHealthcare(d decimal.Decimal) LifetimeAccumulators {
	a.HealthcareSpend = a.HealthcareSpend.Add(d)
	return a
}

// Snapshot is the month-end record of one life
type Snapshot struct {
	Month    time.Time       `json:"month"`
	NetWorth decimal.Decimal `json:"net_worth"`
	Spend    decimal.Decimal `json:"spend"`
	Tax      decimal.Decimal `json:"tax"`
}
