package calculation

import (
	"fmt"
	"time"

	"github.com/rpgo/lifesim/internal/domain"
	"github.com/shopspring/decimal"
)

const funPointsHalfWeightAge = 75

var (
	twelve       = decimal.NewFromInt(12)
	halfFunPoint = decimal.NewFromFloat(0.5)
)

// PaydaySpend runs the monthly income and spending step of a life
type PaydaySpend struct {
	model          domain.Model
	taxes          *TaxEngine
	socialSecurity *SocialSecurityCalculator
	medicare       *MedicareCalculator
	mfj            bool
	waterfall      *InvestmentWaterfall
	diagnostics    Diagnostics
}

// NewPaydaySpend wires the payroll, benefit and spending calculators for one model
func NewPaydaySpend(model domain.Model, person domain.Person, taxes *TaxEngine, medicare *MedicareCalculator, mfj bool, waterfall *InvestmentWaterfall, diagnostics Diagnostics) *PaydaySpend {
	if diagnostics == nil {
		diagnostics = NopDiagnostics{}
	}
	return &PaydaySpend{
		model:          model,
		taxes:          taxes,
		socialSecurity: NewSocialSecurityCalculator(person.BirthDate, person.FullSocialSecurityBenefit),
		medicare:       medicare,
		mfj:            mfj,
		waterfall:      waterfall,
		diagnostics:    diagnostics,
	}
}

// SocialSecurity returns the benefit calculator for the household earner
func (ps *PaydaySpend) SocialSecurity() *SocialSecurityCalculator { return ps.socialSecurity }

// Payday deposits wages while working and Social Security once it starts.
// It returns the payroll tax (withholding plus FICA) taken this month.
func (ps *PaydaySpend) Payday(h Household, month time.Time) (Household, decimal.Decimal, error) {
	payrollTax := decimal.Zero
	if !h.Person.Retired {
		var err error
		if h, payrollTax, err = ps.payroll(h, month); err != nil {
			return h, decimal.Zero, err
		}
	}

	if h.Person.FullSocialSecurityBenefit.IsPositive() &&
		!month.Before(ps.socialSecurity.FirstPaymentMonth(ps.model.SocialSecurityElectionDate)) {
		benefit := ps.socialSecurity.MonthlyBenefit(ps.model.SocialSecurityElectionDate)
		accounts, err := h.Accounts.Deposit(benefit)
		if err != nil {
			return h, decimal.Zero, err
		}
		h.Accounts = accounts
		h.Tax = h.Tax.AddSocialSecurity(month, benefit)
		h.Totals = h.Totals.AddSocialSecurity(benefit)
		ps.diagnostics.Reconcile(month, benefit, "social security benefit")
	}
	return h, payrollTax, nil
}

func (ps *PaydaySpend) payroll(h Household, month time.Time) (Household, decimal.Decimal, error) {
	p := h.Person
	gross := p.AnnualSalary.Div(twelve)
	annualWages := p.AnnualSalary
	if p.BonusMonth != 0 && month.Month() == p.BonusMonth {
		gross = gross.Add(p.AnnualBonus)
	}
	if p.BonusMonth != 0 {
		annualWages = annualWages.Add(p.AnnualBonus)
	}
	if !gross.IsPositive() {
		return h, decimal.Zero, nil
	}

	contribution := decimal.Min(ps.model.Monthly401kContribution, gross)
	match := decimal.Min(contribution, gross.Mul(p.Match401kPercent))
	hsa := decimal.Min(ps.model.MonthlyHSAContribution, gross.Sub(contribution))
	pretax := contribution.Add(hsa)

	fica := ps.taxes.FICA.CalculateFICA(annualWages).Div(twelve)
	withholding := ps.taxes.MonthlyWithholding(annualWages.Sub(pretax.Mul(twelve)))
	net := decimal.Max(gross.Sub(pretax).Sub(fica).Sub(withholding), decimal.Zero)

	h.Tax = h.Tax.AddOrdinaryIncome(month, gross.Sub(pretax)).AddWithheld(month, withholding)

	accounts, err := h.Accounts.Deposit(net)
	if err != nil {
		return h, decimal.Zero, err
	}
	price := h.Track.Current.Long
	if accounts, err = accounts.Invest(domain.Traditional401k, domain.Long, contribution.Add(match), price, month); err != nil {
		return h, decimal.Zero, fmt.Errorf("401k contribution: %w", err)
	}
	if accounts, err = accounts.Invest(domain.HSA, domain.Long, hsa, price, month); err != nil {
		return h, decimal.Zero, fmt.Errorf("hsa contribution: %w", err)
	}

	if brokerage := ps.model.MonthlyBrokerageContribution; brokerage.IsPositive() {
		if next, ok := accounts.Withdraw(brokerage); ok {
			if accounts, err = next.Invest(domain.TaxableBrokerage, domain.Long, brokerage, price, month); err != nil {
				return h, decimal.Zero, fmt.Errorf("brokerage contribution: %w", err)
			}
		}
	}
	h.Accounts = accounts
	ps.diagnostics.Reconcile(month, net, "net pay")
	return h, withholding.Add(fica), nil
}

// Healthcare is the monthly healthcare spend at month
func (ps *PaydaySpend) Healthcare(h Household, month time.Time) decimal.Decimal {
	switch {
	case h.Person.MedicareEligible(month):
		magi := EstimateMAGI(h.Tax, month.Year()-2, ps.taxes.SocialSecurityTaxable)
		return ps.model.MonthlyHealthcareMedicare.Add(ps.medicare.CalculatePartBPremium(magi, ps.mfj))
	case h.Person.Retired:
		return ps.model.MonthlyHealthcarePreMedicare
	default:
		return decimal.Zero
	}
}

// DiscretionaryMultiplier scales discretionary spend under austerity. The
// smaller ratio wins when both austerity modes apply.
func (ps *PaydaySpend) DiscretionaryMultiplier(state domain.RecessionState) decimal.Decimal {
	multiplier := decimal.NewFromInt(1)
	if state.InRecession {
		multiplier = ps.model.AusterityRatio
	}
	if state.InExtremeAusterity {
		multiplier = decimal.Min(multiplier, ps.model.ExtremeAusterityRatio)
	}
	return multiplier
}

// MonthlySpend is the required plus unscaled discretionary spend used for
// cash and mid bucket targets
func (ps *PaydaySpend) MonthlySpend(retired bool) decimal.Decimal {
	required, discretionary := ps.model.MonthlySpend(retired)
	return required.Add(discretionary)
}

// Spend pays required, discretionary and healthcare spend through the
// waterfall. ok is false when the household cannot raise the cash.
func (ps *PaydaySpend) Spend(h Household, month time.Time) (Household, decimal.Decimal, bool, error) {
	required, discretionary := ps.model.MonthlySpend(h.Person.Retired)
	discretionary = discretionary.Mul(ps.DiscretionaryMultiplier(h.Recession))
	healthcare := ps.Healthcare(h, month)
	total := required.Add(discretionary).Add(healthcare)

	accounts, tax, ok, err := ps.waterfall.WithdrawCash(h.Accounts, h.Tax, total, month)
	if err != nil || !ok {
		return h, decimal.Zero, false, err
	}
	h.Accounts, h.Tax = accounts, tax

	weight := decimal.NewFromInt(1)
	if h.Person.Age(month) >= funPointsHalfWeightAge {
		weight = halfFunPoint
	}
	h.Totals = h.Totals.
		AddSpend(total).
		AddHealthcare(healthcare).
		AddFunPoints(discretionary.Mul(weight))
	return h, total, true, nil
}
