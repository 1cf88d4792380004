// Package breeding derives new models from two parent models by uniform
// crossover and random mutation.
package breeding

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/pkg/dateutil"
	"github.com/shopspring/decimal"
)

const (
	// DefaultMutationRate is the chance that any one field of a child mutates
	DefaultMutationRate = 0.1

	mutationSpread      = 0.10
	dateMutationMonths  = 6
	earliestElectionAge = 62
	latestElectionAge   = 70
)

// Breeder mates models with a fixed mutation rate. It owns its random
// source and is not safe for concurrent use.
type Breeder struct {
	MutationRate float64
	rng          *rand.Rand
}

// NewBreeder creates a breeder. A zero rate in cfg uses DefaultMutationRate.
func NewBreeder(cfg domain.BreedingConfig, rng *rand.Rand) *Breeder {
	rate := cfg.MutationRate.InexactFloat64()
	if cfg.MutationRate.IsZero() {
		rate = DefaultMutationRate
	}
	return &Breeder{MutationRate: rate, rng: rng}
}

// Mate breeds a child of a and b for a person born on birthDate
func (b *Breeder) Mate(a, c domain.Model, birthDate time.Time) (domain.Model, error) {
	return Mate(a, c, birthDate, b.rng, b.MutationRate)
}

// Mate builds a child model: every field is taken from either parent with
// equal chance, then mutated with probability mutationRate. Numbers move by
// up to ±10%, dates by up to ±6 months. The Social Security election is kept
// between ages 62 and 70. The same rng state always yields the same child.
func Mate(a, b domain.Model, birthDate time.Time, rng *rand.Rand, mutationRate float64) (domain.Model, error) {
	if rng == nil {
		return domain.Model{}, fmt.Errorf("%w: breeding needs a random source", domain.ErrConfiguration)
	}
	if birthDate.IsZero() {
		return domain.Model{}, fmt.Errorf("%w: breeding needs a birth date", domain.ErrConfiguration)
	}
	if mutationRate < 0 || mutationRate > 1 {
		return domain.Model{}, fmt.Errorf("%w: mutation rate %.3f must be between 0 and 1", domain.ErrConfiguration, mutationRate)
	}

	m := &mutator{rng: rng, rate: mutationRate}
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return domain.Model{}, fmt.Errorf("child id: %w", err)
	}

	child := domain.Model{
		ID:         id.String(),
		Version:    1,
		ParentA:    a.ID,
		ParentB:    b.ID,
		Generation: max(a.Generation, b.Generation) + 1,

		RetirementDate:             m.date(pick(rng, a.RetirementDate, b.RetirementDate)),
		SocialSecurityElectionDate: m.date(pick(rng, a.SocialSecurityElectionDate, b.SocialSecurityElectionDate)),

		MonthlyRequiredSpendPreRetirement:       m.amount(pick(rng, a.MonthlyRequiredSpendPreRetirement, b.MonthlyRequiredSpendPreRetirement)),
		MonthlyRequiredSpendPostRetirement:      m.amount(pick(rng, a.MonthlyRequiredSpendPostRetirement, b.MonthlyRequiredSpendPostRetirement)),
		MonthlyDiscretionarySpendPreRetirement:  m.amount(pick(rng, a.MonthlyDiscretionarySpendPreRetirement, b.MonthlyDiscretionarySpendPreRetirement)),
		MonthlyDiscretionarySpendPostRetirement: m.amount(pick(rng, a.MonthlyDiscretionarySpendPostRetirement, b.MonthlyDiscretionarySpendPostRetirement)),
		MonthlyHealthcarePreMedicare:            m.amount(pick(rng, a.MonthlyHealthcarePreMedicare, b.MonthlyHealthcarePreMedicare)),
		MonthlyHealthcareMedicare:               m.amount(pick(rng, a.MonthlyHealthcareMedicare, b.MonthlyHealthcareMedicare)),

		AusterityRatio:                  m.ratio(pick(rng, a.AusterityRatio, b.AusterityRatio)),
		ExtremeAusterityRatio:           m.ratio(pick(rng, a.ExtremeAusterityRatio, b.ExtremeAusterityRatio)),
		ExtremeAusterityNetWorthTrigger: m.amount(pick(rng, a.ExtremeAusterityNetWorthTrigger, b.ExtremeAusterityNetWorthTrigger)),
		RecessionLookbackMonths:         m.count(pick(rng, a.RecessionLookbackMonths, b.RecessionLookbackMonths)),
		RecessionRecoveryModifier:       m.fraction(pick(rng, a.RecessionRecoveryModifier, b.RecessionRecoveryModifier)),

		RebalanceFrequency:              pick(rng, a.RebalanceFrequency, b.RebalanceFrequency),
		RebalanceMonthsBeforeRetirement: m.count(pick(rng, a.RebalanceMonthsBeforeRetirement, b.RebalanceMonthsBeforeRetirement)),
		MonthsOfCash:                    m.count(pick(rng, a.MonthsOfCash, b.MonthsOfCash)),
		MonthsOfMid:                     m.count(pick(rng, a.MonthsOfMid, b.MonthsOfMid)),

		Monthly401kContribution:      m.amount(pick(rng, a.Monthly401kContribution, b.Monthly401kContribution)),
		MonthlyHSAContribution:       m.amount(pick(rng, a.MonthlyHSAContribution, b.MonthlyHSAContribution)),
		MonthlyBrokerageContribution: m.amount(pick(rng, a.MonthlyBrokerageContribution, b.MonthlyBrokerageContribution)),
	}
	child.SocialSecurityElectionDate = clampElection(child.SocialSecurityElectionDate, birthDate)
	child.Name = fmt.Sprintf("%s+%s gen %d", nameOf(a), nameOf(b), child.Generation)
	return child, nil
}

func pick[T any](rng *rand.Rand, a, b T) T {
	if rng.Intn(2) == 0 {
		return a
	}
	return b
}

func nameOf(m domain.Model) string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// clampElection keeps the election month between the 62nd and 70th birthdays
func clampElection(election, birthDate time.Time) time.Time {
	birth := dateutil.MonthStart(birthDate)
	earliest := dateutil.AddMonths(birth, earliestElectionAge*12)
	latest := dateutil.AddMonths(birth, latestElectionAge*12)
	switch {
	case election.Before(earliest):
		return earliest
	case election.After(latest):
		return latest
	default:
		return election
	}
}

type mutator struct {
	rng  *rand.Rand
	rate float64
}

func (m *mutator) mutates() bool {
	return m.rng.Float64() < m.rate
}

// factor is a uniform draw from [0.9, 1.1]
func (m *mutator) factor() decimal.Decimal {
	return decimal.NewFromFloat(1 + (m.rng.Float64()*2-1)*mutationSpread)
}

func (m *mutator) amount(v decimal.Decimal) decimal.Decimal {
	if !m.mutates() {
		return v
	}
	return v.Mul(m.factor()).Round(2)
}

func (m *mutator) fraction(v decimal.Decimal) decimal.Decimal {
	if !m.mutates() {
		return v
	}
	return v.Mul(m.factor()).Round(4)
}

// ratio mutates a value that must stay within [0, 1]
func (m *mutator) ratio(v decimal.Decimal) decimal.Decimal {
	v = m.fraction(v)
	return decimal.Min(decimal.Max(v, decimal.Zero), decimal.NewFromInt(1))
}

func (m *mutator) count(v int) int {
	if !m.mutates() {
		return v
	}
	f, _ := m.factor().Float64()
	mutated := int(float64(v)*f + 0.5)
	if mutated == v {
		mutated += m.rng.Intn(3) - 1
	}
	return max(mutated, 0)
}

func (m *mutator) date(t time.Time) time.Time {
	if !m.mutates() || t.IsZero() {
		return t
	}
	return dateutil.AddMonths(dateutil.MonthStart(t), m.rng.Intn(2*dateMutationMonths+1)-dateMutationMonths)
}
