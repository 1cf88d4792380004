package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Model is a named, versioned set of simulation policy parameters
type Model struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Version    int    `yaml:"version" json:"version"`
	ParentA    string `yaml:"parent_a,omitempty" json:"parent_a,omitempty"`
	ParentB    string `yaml:"parent_b,omitempty" json:"parent_b,omitempty"`
	Generation int    `yaml:"generation" json:"generation"`

	RetirementDate             time.Time `yaml:"retirement_date" json:"retirement_date"`
	SocialSecurityElectionDate time.Time `yaml:"social_security_election_date" json:"social_security_election_date"`

	MonthlyRequiredSpendPreRetirement       decimal.Decimal `yaml:"monthly_required_spend_pre_retirement" json:"monthly_required_spend_pre_retirement"`
	MonthlyRequiredSpendPostRetirement      decimal.Decimal `yaml:"monthly_required_spend_post_retirement" json:"monthly_required_spend_post_retirement"`
	MonthlyDiscretionarySpendPreRetirement  decimal.Decimal `yaml:"monthly_discretionary_spend_pre_retirement" json:"monthly_discretionary_spend_pre_retirement"`
	MonthlyDiscretionarySpendPostRetirement decimal.Decimal `yaml:"monthly_discretionary_spend_post_retirement" json:"monthly_discretionary_spend_post_retirement"`
	MonthlyHealthcarePreMedicare            decimal.Decimal `yaml:"monthly_healthcare_pre_medicare" json:"monthly_healthcare_pre_medicare"`
	MonthlyHealthcareMedicare               decimal.Decimal `yaml:"monthly_healthcare_medicare" json:"monthly_healthcare_medicare"`

	AusterityRatio                  decimal.Decimal `yaml:"austerity_ratio" json:"austerity_ratio"`
	ExtremeAusterityRatio           decimal.Decimal `yaml:"extreme_austerity_ratio" json:"extreme_austerity_ratio"`
	ExtremeAusterityNetWorthTrigger decimal.Decimal `yaml:"extreme_austerity_net_worth_trigger" json:"extreme_austerity_net_worth_trigger"`
	RecessionLookbackMonths         int             `yaml:"recession_lookback_months" json:"recession_lookback_months"`
	RecessionRecoveryModifier       decimal.Decimal `yaml:"recession_recovery_modifier" json:"recession_recovery_modifier"`

	// RebalanceFrequency is monthly, quarterly, yearly or a five-field cron expression
	RebalanceFrequency              string `yaml:"rebalance_frequency" json:"rebalance_frequency"`
	RebalanceMonthsBeforeRetirement int    `yaml:"rebalance_months_before_retirement" json:"rebalance_months_before_retirement"`
	MonthsOfCash                    int    `yaml:"months_of_cash" json:"months_of_cash"`
	MonthsOfMid                     int    `yaml:"months_of_mid" json:"months_of_mid"`

	Monthly401kContribution      decimal.Decimal `yaml:"monthly_401k_contribution" json:"monthly_401k_contribution"`
	MonthlyHSAContribution       decimal.Decimal `yaml:"monthly_hsa_contribution" json:"monthly_hsa_contribution"`
	MonthlyBrokerageContribution decimal.Decimal `yaml:"monthly_brokerage_contribution" json:"monthly_brokerage_contribution"`
}

// MonthlySpend returns the required and discretionary spend for the retirement phase
func (m Model) MonthlySpend(retired bool) (required, discretionary decimal.Decimal) {
	if retired {
		return m.MonthlyRequiredSpendPostRetirement, m.MonthlyDiscretionarySpendPostRetirement
	}
	return m.MonthlyRequiredSpendPreRetirement, m.MonthlyDiscretionarySpendPreRetirement
}
