package calculation

import (
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/ledger"
	"github.com/shopspring/decimal"
)

// MedicareCalculator handles Medicare Part B premium calculations including IRMAA
type MedicareCalculator struct {
	BasePremium     decimal.Decimal
	IRMAAThresholds []IRMAAThreshold
}

// IRMAAThreshold represents an IRMAA income threshold and corresponding surcharge
type IRMAAThreshold struct {
	IncomeThresholdSingle decimal.Decimal // For single filers
	IncomeThresholdJoint  decimal.Decimal // For married filing jointly
	MonthlySurcharge      decimal.Decimal // Additional monthly premium per person
}

// NewMedicareCalculator creates a new Medicare calculator with 2025 rates
func NewMedicareCalculator() *MedicareCalculator {
	return &MedicareCalculator{
		BasePremium: decimal.NewFromFloat(185.00), // 2025 base Part B premium
		IRMAAThresholds: []IRMAAThreshold{
			// 2025 IRMAA thresholds (based on 2023 MAGI); surcharges are increments over the previous tier
			{
				IncomeThresholdSingle: decimal.NewFromInt(103000),
				IncomeThresholdJoint:  decimal.NewFromInt(206000),
				MonthlySurcharge:      decimal.NewFromFloat(69.90),
			},
			{
				IncomeThresholdSingle: decimal.NewFromInt(129000),
				IncomeThresholdJoint:  decimal.NewFromInt(258000),
				MonthlySurcharge:      decimal.NewFromFloat(104.80),
			},
			{
				IncomeThresholdSingle: decimal.NewFromInt(161000),
				IncomeThresholdJoint:  decimal.NewFromInt(322000),
				MonthlySurcharge:      decimal.NewFromFloat(104.80),
			},
			{
				IncomeThresholdSingle: decimal.NewFromInt(193000),
				IncomeThresholdJoint:  decimal.NewFromInt(386000),
				MonthlySurcharge:      decimal.NewFromFloat(104.80),
			},
			{
				IncomeThresholdSingle: decimal.NewFromInt(500000),
				IncomeThresholdJoint:  decimal.NewFromInt(750000),
				MonthlySurcharge:      decimal.NewFromFloat(104.80),
			},
		},
	}
}

// NewMedicareCalculatorWithConfig creates a Medicare calculator from configuration,
// keeping the 2025 rates when none are supplied
func NewMedicareCalculatorWithConfig(config domain.MedicareConfig) *MedicareCalculator {
	mc := NewMedicareCalculator()
	if !config.BasePremium.IsZero() {
		mc.BasePremium = config.BasePremium
	}
	if len(config.IRMAAThresholds) > 0 {
		mc.IRMAAThresholds = mc.IRMAAThresholds[:0:0]
		for _, threshold := range config.IRMAAThresholds {
			mc.IRMAAThresholds = append(mc.IRMAAThresholds, IRMAAThreshold{
				IncomeThresholdSingle: threshold.IncomeThresholdSingle,
				IncomeThresholdJoint:  threshold.IncomeThresholdJoint,
				MonthlySurcharge:      threshold.MonthlySurcharge,
			})
		}
	}
	return mc
}

// CalculatePartBPremium calculates the monthly Part B premium including IRMAA
// surcharges, based on MAGI from 2 years prior. Surcharges are cumulative per tier.
func (mc *MedicareCalculator) CalculatePartBPremium(magi decimal.Decimal, isMarriedFilingJointly bool) decimal.Decimal {
	premium := mc.BasePremium

	for _, threshold := range mc.IRMAAThresholds {
		applicableThreshold := threshold.IncomeThresholdSingle
		if isMarriedFilingJointly {
			applicableThreshold = threshold.IncomeThresholdJoint
		}

		if magi.GreaterThan(applicableThreshold) {
			premium = premium.Add(threshold.MonthlySurcharge)
		} else {
			break // Stop at first threshold not exceeded
		}
	}

	return premium
}

// EstimateMAGI estimates Modified Adjusted Gross Income for a year of the tax
// log. This is a simplified calculation: ordinary income, capital gains and
// the taxable share of Social Security.
func EstimateMAGI(tax ledger.TaxLedger, year int, socialSecurityTaxable decimal.Decimal) decimal.Decimal {
	return tax.OrdinaryIncome(year).
		Add(tax.CapitalGains(year)).
		Add(tax.SocialSecurityIncome(year).Mul(socialSecurityTaxable))
}
