package calculation

import (
	"time"

	"github.com/rpgo/lifesim/pkg/dateutil"
	"github.com/shopspring/decimal"
)

const (
	earliestClaimMonths = 62 * 12
	latestClaimMonths   = 70 * 12
)

// SocialSecurityCalculator handles Social Security benefit calculations
type SocialSecurityCalculator struct {
	BirthDate               time.Time
	FullRetirementAgeMonths int
	BenefitAtFRA            decimal.Decimal
}

// NewSocialSecurityCalculator creates a new Social Security calculator
func NewSocialSecurityCalculator(birthDate time.Time, benefitAtFRA decimal.Decimal) *SocialSecurityCalculator {
	return &SocialSecurityCalculator{
		BirthDate:               birthDate,
		FullRetirementAgeMonths: dateutil.FullRetirementAgeMonths(birthDate),
		BenefitAtFRA:            benefitAtFRA,
	}
}

// ClaimAgeMonths returns the age in months at the claim date, clamped to 62..70
func (ssc *SocialSecurityCalculator) ClaimAgeMonths(claim time.Time) int {
	age := dateutil.AgeInMonths(ssc.BirthDate, claim)
	if age < earliestClaimMonths {
		return earliestClaimMonths
	}
	if age > latestClaimMonths {
		return latestClaimMonths
	}
	return age
}

// MonthlyBenefit calculates the monthly benefit for a claim at the given date
func (ssc *SocialSecurityCalculator) MonthlyBenefit(claim time.Time) decimal.Decimal {
	return ssc.BenefitAtClaimAgeMonths(ssc.ClaimAgeMonths(claim))
}

// BenefitAtClaimAgeMonths applies the early-claim reduction or the delayed
// retirement credit for a claim age in months
func (ssc *SocialSecurityCalculator) BenefitAtClaimAgeMonths(claimAge int) decimal.Decimal {
	one := decimal.NewFromInt(1)

	if claimAge < ssc.FullRetirementAgeMonths {
		// Early retirement reduction
		monthsEarly := ssc.FullRetirementAgeMonths - claimAge
		var reductionRate decimal.Decimal

		if monthsEarly <= 36 {
			// 5/9 of 1% per month for first 36 months
			reductionRate = decimal.NewFromInt(int64(monthsEarly * 5)).Div(decimal.NewFromInt(900))
		} else {
			// 5/9 of 1% for first 36 months, 5/12 of 1% for additional months
			firstReduction := decimal.NewFromInt(36 * 5).Div(decimal.NewFromInt(900))
			additionalReduction := decimal.NewFromInt(int64((monthsEarly - 36) * 5)).Div(decimal.NewFromInt(1200))
			reductionRate = firstReduction.Add(additionalReduction)
		}

		return ssc.BenefitAtFRA.Mul(one.Sub(reductionRate))
	}

	if claimAge > ssc.FullRetirementAgeMonths {
		// Delayed retirement credits: 8% per year (2/3% per month), capped at age 70
		monthsDelayed := min(claimAge, latestClaimMonths) - ssc.FullRetirementAgeMonths
		delayCredit := decimal.NewFromInt(int64(monthsDelayed * 2)).Div(decimal.NewFromInt(300))
		return ssc.BenefitAtFRA.Mul(one.Add(delayCredit))
	}

	return ssc.BenefitAtFRA // At Full Retirement Age
}

// FirstPaymentMonth is the first month a benefit is paid; claims before 62 start at 62
func (ssc *SocialSecurityCalculator) FirstPaymentMonth(claim time.Time) time.Time {
	if dateutil.AgeInMonths(ssc.BirthDate, claim) < earliestClaimMonths {
		return dateutil.AddMonths(ssc.BirthDate, earliestClaimMonths)
	}
	return dateutil.MonthStart(claim)
}

// ExpectedAnnualBenefit is the benefit received during a calendar year for a claim date
func (ssc *SocialSecurityCalculator) ExpectedAnnualBenefit(claim time.Time, year int) decimal.Decimal {
	first := ssc.FirstPaymentMonth(claim)
	if first.Year() > year {
		return decimal.Zero
	}
	months := 12
	if first.Year() == year {
		months = dateutil.MonthsRemainingInYear(first)
	}
	return ssc.MonthlyBenefit(claim).Mul(decimal.NewFromInt(int64(months)))
}
