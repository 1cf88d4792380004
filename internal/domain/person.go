package domain

import (
	"time"

	"github.com/rpgo/lifesim/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// Person holds the static facts about the household earner plus per-life flags.
// A fresh copy is handed to every simulated life.
type Person struct {
	ID                        string          `yaml:"id" json:"id"`
	Name                      string          `yaml:"name" json:"name"`
	BirthDate                 time.Time       `yaml:"birth_date" json:"birth_date"`
	AnnualSalary              decimal.Decimal `yaml:"annual_salary" json:"annual_salary"`
	AnnualBonus               decimal.Decimal `yaml:"annual_bonus" json:"annual_bonus"`
	BonusMonth                time.Month      `yaml:"bonus_month" json:"bonus_month"`
	Match401kPercent          decimal.Decimal `yaml:"match_401k_percent" json:"match_401k_percent"`
	FullSocialSecurityBenefit decimal.Decimal `yaml:"full_social_security_benefit" json:"full_social_security_benefit"` // Monthly at FRA

	Retired  bool `yaml:"-" json:"-"`
	Bankrupt bool `yaml:"-" json:"-"`
}

// Age calculates the person's age at a given date
func (p Person) Age(at time.Time) int {
	return dateutil.Age(p.BirthDate, at)
}

// MedicareEligible reports whether the person is 65 or older at month
func (p Person) MedicareEligible(at time.Time) bool {
	return dateutil.IsMedicareEligible(p.BirthDate, at)
}
