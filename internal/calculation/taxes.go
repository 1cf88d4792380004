package calculation

import (
	"fmt"

	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/ledger"
	"github.com/shopspring/decimal"
)

// TAX CALCULATION ASSUMPTIONS:
//
// 1. Federal brackets default to 2025 married-filing-jointly tables for every
//    projection year; no inflation indexing.
// 2. Standard deduction: $30,000 (2025 MFJ).
// 3. 85% of Social Security income is treated as taxable.
// 4. Long-term capital gains are stacked on top of taxable ordinary income.
// 5. State tax is a flat rate on ordinary income plus positive capital gains.

// TaxBracket represents a marginal tax bracket. Brackets are contiguous: each
// Min equals the previous Max. The last bracket is open-ended.
type TaxBracket struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Rate decimal.Decimal
}

// DefaultOrdinaryBrackets2025 returns the 2025 MFJ ordinary income brackets
func DefaultOrdinaryBrackets2025() []TaxBracket {
	return []TaxBracket{
		{decimal.Zero, decimal.NewFromInt(23200), decimal.NewFromFloat(0.10)},
		{decimal.NewFromInt(23200), decimal.NewFromInt(94300), decimal.NewFromFloat(0.12)},
		{decimal.NewFromInt(94300), decimal.NewFromInt(201050), decimal.NewFromFloat(0.22)},
		{decimal.NewFromInt(201050), decimal.NewFromInt(383900), decimal.NewFromFloat(0.24)},
		{decimal.NewFromInt(383900), decimal.NewFromInt(487450), decimal.NewFromFloat(0.32)},
		{decimal.NewFromInt(487450), decimal.NewFromInt(731200), decimal.NewFromFloat(0.35)},
		{decimal.NewFromInt(731200), decimal.NewFromInt(999999999), decimal.NewFromFloat(0.37)},
	}
}

// DefaultCapitalGainsBrackets2025 returns the 2025 MFJ long-term capital gains brackets
func DefaultCapitalGainsBrackets2025() []TaxBracket {
	return []TaxBracket{
		{decimal.Zero, decimal.NewFromInt(96700), decimal.Zero},
		{decimal.NewFromInt(96700), decimal.NewFromInt(600050), decimal.NewFromFloat(0.15)},
		{decimal.NewFromInt(600050), decimal.NewFromInt(999999999), decimal.NewFromFloat(0.20)},
	}
}

// TaxBreakdown is the liability for one year
type TaxBreakdown struct {
	TaxableOrdinary decimal.Decimal
	Ordinary        decimal.Decimal
	CapitalGains    decimal.Decimal
	State           decimal.Decimal
	Total           decimal.Decimal
}

// TaxEngine computes annual liability from the tax log
type TaxEngine struct {
	OrdinaryBrackets      []TaxBracket
	CapitalGainsBrackets  []TaxBracket
	StandardDeduction     decimal.Decimal
	StateRate             decimal.Decimal
	IncomeTargetCeiling   decimal.Decimal
	SocialSecurityTaxable decimal.Decimal
	FICA                  *FICACalculator
}

// NewTaxEngine2025 creates a tax engine with 2025 MFJ defaults and no state tax
func NewTaxEngine2025() *TaxEngine {
	return &TaxEngine{
		OrdinaryBrackets:      DefaultOrdinaryBrackets2025(),
		CapitalGainsBrackets:  DefaultCapitalGainsBrackets2025(),
		StandardDeduction:     decimal.NewFromInt(30000),
		StateRate:             decimal.Zero,
		IncomeTargetCeiling:   decimal.NewFromInt(94300), // top of the 12% bracket
		SocialSecurityTaxable: decimal.NewFromFloat(0.85),
		FICA:                  NewFICACalculator2025(),
	}
}

// NewTaxEngine creates a tax engine from configuration, falling back to the
// 2025 defaults for anything not supplied
func NewTaxEngine(config domain.TaxConfig) (*TaxEngine, error) {
	te := NewTaxEngine2025()
	if len(config.OrdinaryBrackets) > 0 {
		te.OrdinaryBrackets = bracketsFromConfig(config.OrdinaryBrackets)
	}
	if len(config.CapitalGainsBrackets) > 0 {
		te.CapitalGainsBrackets = bracketsFromConfig(config.CapitalGainsBrackets)
	}
	if !config.StandardDeduction.IsZero() {
		te.StandardDeduction = config.StandardDeduction
	}
	te.StateRate = config.StateRate
	if !config.IncomeTargetCeiling.IsZero() {
		te.IncomeTargetCeiling = config.IncomeTargetCeiling
	}
	if !config.FICA.SocialSecurityWageBase.IsZero() {
		te.FICA = NewFICACalculator(config.FICA)
	}

	if err := validateBrackets("ordinary", te.OrdinaryBrackets); err != nil {
		return nil, err
	}
	if err := validateBrackets("capital gains", te.CapitalGainsBrackets); err != nil {
		return nil, err
	}
	return te, nil
}

func bracketsFromConfig(rows []domain.TaxBracketConfig) []TaxBracket {
	brackets := make([]TaxBracket, 0, len(rows))
	for _, b := range rows {
		brackets = append(brackets, TaxBracket{Min: b.Min, Max: b.Max, Rate: b.Rate})
	}
	return brackets
}

func validateBrackets(name string, brackets []TaxBracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("%w: %s brackets are empty", domain.ErrConfiguration, name)
	}
	if !brackets[0].Min.IsZero() {
		return fmt.Errorf("%w: %s brackets must start at zero", domain.ErrConfiguration, name)
	}
	for i, b := range brackets {
		if b.Rate.IsNegative() {
			return fmt.Errorf("%w: %s bracket %d rate must not be negative", domain.ErrConfiguration, name, i)
		}
		if i < len(brackets)-1 && !b.Max.GreaterThan(b.Min) {
			return fmt.Errorf("%w: %s bracket %d max must exceed min", domain.ErrConfiguration, name, i)
		}
		if i > 0 && !b.Min.Equal(brackets[i-1].Max) {
			return fmt.Errorf("%w: %s bracket %d min %s does not continue from %s", domain.ErrConfiguration, name, i, b.Min, brackets[i-1].Max)
		}
	}
	return nil
}

// taxBetween taxes the slice of income from lo to hi against brackets
func taxBetween(brackets []TaxBracket, lo, hi decimal.Decimal) decimal.Decimal {
	tax := decimal.Zero
	if !hi.GreaterThan(lo) {
		return tax
	}
	for i, b := range brackets {
		upper := b.Max
		if i == len(brackets)-1 {
			upper = decimal.Max(upper, hi)
		}
		from := decimal.Max(lo, b.Min)
		to := decimal.Min(hi, upper)
		if to.GreaterThan(from) {
			tax = tax.Add(to.Sub(from).Mul(b.Rate))
		}
		if !hi.GreaterThan(upper) {
			break
		}
	}
	return tax
}

// OrdinaryTax applies the ordinary brackets to taxable income
func (te *TaxEngine) OrdinaryTax(taxable decimal.Decimal) decimal.Decimal {
	return taxBetween(te.OrdinaryBrackets, decimal.Zero, taxable)
}

// CapitalGainsTax taxes gains stacked above taxable ordinary income, so the
// zero-rate room is consumed by ordinary income first
func (te *TaxEngine) CapitalGainsTax(taxableOrdinary, gains decimal.Decimal) decimal.Decimal {
	if !gains.IsPositive() {
		return decimal.Zero
	}
	return taxBetween(te.CapitalGainsBrackets, taxableOrdinary, taxableOrdinary.Add(gains))
}

// Compute returns the liability for a year's ordinary income, capital gains
// and Social Security income
func (te *TaxEngine) Compute(ordinary, gains, socialSecurity decimal.Decimal) TaxBreakdown {
	taxable := ordinary.Add(socialSecurity.Mul(te.SocialSecurityTaxable)).Sub(te.StandardDeduction)
	taxable = decimal.Max(taxable, decimal.Zero)
	positiveGains := decimal.Max(gains, decimal.Zero)

	b := TaxBreakdown{
		TaxableOrdinary: taxable,
		Ordinary:        te.OrdinaryTax(taxable),
		CapitalGains:    te.CapitalGainsTax(taxable, positiveGains),
		State:           ordinary.Add(positiveGains).Mul(te.StateRate),
	}
	b.State = decimal.Max(b.State, decimal.Zero)
	b.Total = b.Ordinary.Add(b.CapitalGains).Add(b.State)
	return b
}

// Liability computes the liability for a calendar year of the tax log
func (te *TaxEngine) Liability(tax ledger.TaxLedger, year int) TaxBreakdown {
	return te.Compute(tax.OrdinaryIncome(year), tax.CapitalGains(year), tax.SocialSecurityIncome(year))
}

// IncomeTarget is the ordinary-income ceiling for a year given the Social
// Security income expected in it
func (te *TaxEngine) IncomeTarget(expectedSocialSecurity decimal.Decimal) decimal.Decimal {
	target := te.IncomeTargetCeiling.
		Sub(expectedSocialSecurity.Mul(te.SocialSecurityTaxable)).
		Sub(te.StandardDeduction)
	return decimal.Max(target, decimal.Zero)
}

// MonthlyWithholding estimates the federal and state tax owed on a year of
// wages and spreads it over twelve paychecks
func (te *TaxEngine) MonthlyWithholding(annualTaxableWages decimal.Decimal) decimal.Decimal {
	return te.Compute(annualTaxableWages, decimal.Zero, decimal.Zero).Total.Div(decimal.NewFromInt(12))
}

// FICACalculator handles FICA tax calculations
type FICACalculator struct {
	SSWageBase          decimal.Decimal
	SSRate              decimal.Decimal
	MedicareRate        decimal.Decimal
	AdditionalRate      decimal.Decimal
	HighIncomeThreshold decimal.Decimal
}

// NewFICACalculator2025 creates a new FICA calculator for 2025
func NewFICACalculator2025() *FICACalculator {
	return &FICACalculator{
		SSWageBase:          decimal.NewFromInt(176100), // 2025 official
		SSRate:              decimal.NewFromFloat(0.062),
		MedicareRate:        decimal.NewFromFloat(0.0145),
		AdditionalRate:      decimal.NewFromFloat(0.009),
		HighIncomeThreshold: decimal.NewFromInt(250000), // MFJ
	}
}

// NewFICACalculator creates a new FICA calculator with configurable values
func NewFICACalculator(config domain.FICATaxConfig) *FICACalculator {
	return &FICACalculator{
		SSWageBase:          config.SocialSecurityWageBase,
		SSRate:              config.SocialSecurityRate,
		MedicareRate:        config.MedicareRate,
		AdditionalRate:      config.AdditionalMedicareRate,
		HighIncomeThreshold: config.HighIncomeThreshold,
	}
}

// CalculateFICA calculates annual FICA taxes (Social Security and Medicare) on wages
func (fc *FICACalculator) CalculateFICA(wages decimal.Decimal) decimal.Decimal {
	// Social Security tax (capped)
	ssTax := decimal.Min(wages, fc.SSWageBase).Mul(fc.SSRate)

	// Medicare tax (no cap)
	medicareTax := wages.Mul(fc.MedicareRate)

	// Additional Medicare tax for high earners
	var additionalMedicare decimal.Decimal
	if wages.GreaterThan(fc.HighIncomeThreshold) {
		additionalMedicare = wages.Sub(fc.HighIncomeThreshold).Mul(fc.AdditionalRate)
	}

	return ssTax.Add(medicareTax).Add(additionalMedicare)
}
