package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Configuration represents the complete input for a simulation run
type Configuration struct {
	Simulation         SimulationConfig    `yaml:"simulation" json:"simulation"`
	Tax                TaxConfig           `yaml:"tax" json:"tax"`
	Breeding           BreedingConfig      `yaml:"breeding" json:"breeding"`
	Person             Person              `yaml:"person" json:"person"`
	CashBalance        decimal.Decimal     `yaml:"cash_balance" json:"cash_balance"`
	InvestmentAccounts []InvestmentAccount `yaml:"investment_accounts" json:"investment_accounts"`
	DebtAccounts       []DebtAccount       `yaml:"debt_accounts" json:"debt_accounts"`
	// GrowthHistory is used when no growth_history_file is configured
	GrowthHistory []decimal.Decimal `yaml:"growth_history,omitempty" json:"growth_history,omitempty"`
	Models        []Model           `yaml:"models" json:"models"`
}

// SimulationConfig controls the batch of lives
type SimulationConfig struct {
	Lives             int              `yaml:"lives" json:"lives"`
	Parallel          bool             `yaml:"parallel" json:"parallel"`
	MaxWorkers        int              `yaml:"max_workers" json:"max_workers"`
	Debug             bool             `yaml:"debug" json:"debug"`
	StartMonth        time.Time        `yaml:"start_month" json:"start_month"`
	EndMonth          time.Time        `yaml:"end_month" json:"end_month"`
	Seed              int64            `yaml:"seed" json:"seed"`
	GrowthHistoryFile string           `yaml:"growth_history_file,omitempty" json:"growth_history_file,omitempty"`
	PriceTrack        PriceTrackConfig `yaml:"price_track" json:"price_track"`
}

// PriceTrackConfig controls how synthetic bucket prices are derived from history
type PriceTrackConfig struct {
	BlockMonths      int             `yaml:"block_months" json:"block_months"`
	MidBeta          decimal.Decimal `yaml:"mid_beta" json:"mid_beta"`
	MidDrift         decimal.Decimal `yaml:"mid_drift" json:"mid_drift"`
	ShortMonthlyRate decimal.Decimal `yaml:"short_monthly_rate" json:"short_monthly_rate"`
}

// TaxBracketConfig is one row of a bracket table
type TaxBracketConfig struct {
	Min  decimal.Decimal `yaml:"min" json:"min"`
	Max  decimal.Decimal `yaml:"max" json:"max"`
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}

// TaxConfig holds the federal, state and payroll tax tables
type TaxConfig struct {
	FilingStatus         string             `yaml:"filing_status" json:"filing_status"` // "mfj" or "single"
	OrdinaryBrackets     []TaxBracketConfig `yaml:"ordinary_brackets" json:"ordinary_brackets"`
	CapitalGainsBrackets []TaxBracketConfig `yaml:"capital_gains_brackets" json:"capital_gains_brackets"`
	StandardDeduction    decimal.Decimal    `yaml:"standard_deduction" json:"standard_deduction"`
	StateRate            decimal.Decimal    `yaml:"state_rate" json:"state_rate"`
	IncomeTargetCeiling  decimal.Decimal    `yaml:"income_target_ceiling" json:"income_target_ceiling"`
	FICA                 FICATaxConfig      `yaml:"fica" json:"fica"`
	Medicare             MedicareConfig     `yaml:"medicare" json:"medicare"`
	// RMDTable maps calendar year to IRS divisor; derived from the birth year when empty
	RMDTable map[int]decimal.Decimal `yaml:"rmd_table,omitempty" json:"rmd_table,omitempty"`
}

// FICATaxConfig contains FICA tax configuration
type FICATaxConfig struct {
	SocialSecurityWageBase decimal.Decimal `yaml:"social_security_wage_base" json:"social_security_wage_base"`
	SocialSecurityRate     decimal.Decimal `yaml:"social_security_rate" json:"social_security_rate"`
	MedicareRate           decimal.Decimal `yaml:"medicare_rate" json:"medicare_rate"`
	AdditionalMedicareRate decimal.Decimal `yaml:"additional_medicare_rate" json:"additional_medicare_rate"`
	HighIncomeThreshold    decimal.Decimal `yaml:"high_income_threshold" json:"high_income_threshold"`
}

// MedicareConfig contains Medicare Part B premium configuration
type MedicareConfig struct {
	BasePremium     decimal.Decimal          `yaml:"base_premium" json:"base_premium"`
	IRMAAThresholds []MedicareIRMAAThreshold `yaml:"irmaa_thresholds" json:"irmaa_thresholds"`
}

// MedicareIRMAAThreshold represents an IRMAA income threshold and surcharge
type MedicareIRMAAThreshold struct {
	IncomeThresholdSingle decimal.Decimal `yaml:"income_threshold_single" json:"income_threshold_single"`
	IncomeThresholdJoint  decimal.Decimal `yaml:"income_threshold_joint" json:"income_threshold_joint"`
	MonthlySurcharge      decimal.Decimal `yaml:"monthly_surcharge" json:"monthly_surcharge"`
}

// BreedingConfig controls model mating
type BreedingConfig struct {
	MutationRate decimal.Decimal `yaml:"mutation_rate" json:"mutation_rate"`
}

// IsMarriedFilingJointly reports whether the tax tables are the joint ones
func (t TaxConfig) IsMarriedFilingJointly() bool {
	return t.FilingStatus == "" || t.FilingStatus == "mfj"
}
