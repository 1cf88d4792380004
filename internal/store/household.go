// Package store provides the repositories the planner reads households,
// price history and models from: an in-memory store built from a YAML
// configuration and a SQLite store.
package store

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a person or model does not exist
var ErrNotFound = errors.New("not found")

// Household is the start data of one person
type Household struct {
	Person      domain.Person
	Investments []domain.InvestmentAccount
	Debts       []domain.DebtAccount
}

// HouseholdFromConfiguration collects the person and accounts of a
// configuration. A positive cash_balance becomes a cash account.
func HouseholdFromConfiguration(cfg *domain.Configuration) Household {
	h := Household{Person: cfg.Person}
	for _, acct := range cfg.InvestmentAccounts {
		h.Investments = append(h.Investments, acct.Clone())
	}
	for _, acct := range cfg.DebtAccounts {
		h.Debts = append(h.Debts, acct.Clone())
	}
	if cfg.CashBalance.IsPositive() {
		h.Investments = append(h.Investments, domain.InvestmentAccount{
			ID:   uuid.NewString(),
			Name: "Cash",
			Type: domain.Cash,
			Positions: []domain.InvestmentPosition{{
				ID:          uuid.NewString(),
				Open:        true,
				EntryDate:   cfg.Simulation.StartMonth,
				Quantity:    cfg.CashBalance,
				Price:       decimal.NewFromInt(1),
				InitialCost: cfg.CashBalance,
				Bucket:      domain.Short,
			}},
		})
	}
	return h
}

// GrowthHistoryFromConfiguration loads growth_history_file when set and the
// inline growth_history otherwise
func GrowthHistoryFromConfiguration(cfg *domain.Configuration) (*calculation.GrowthHistory, error) {
	if path := cfg.Simulation.GrowthHistoryFile; path != "" {
		return calculation.LoadGrowthHistoryCSV(path)
	}
	if len(cfg.GrowthHistory) == 0 {
		return nil, fmt.Errorf("%w: no growth history configured", domain.ErrConfiguration)
	}
	return calculation.NewGrowthHistory("inline", cfg.GrowthHistory)
}

func cloneInvestments(in []domain.InvestmentAccount) []domain.InvestmentAccount {
	out := make([]domain.InvestmentAccount, 0, len(in))
	for _, a := range in {
		out = append(out, a.Clone())
	}
	return out
}

func cloneDebts(in []domain.DebtAccount) []domain.DebtAccount {
	out := make([]domain.DebtAccount, 0, len(in))
	for _, a := range in {
		out = append(out, a.Clone())
	}
	return out
}

// openInvestments copies accounts keeping only their open positions
func openInvestments(in []domain.InvestmentAccount) []domain.InvestmentAccount {
	out := cloneInvestments(in)
	for i := range out {
		out[i].Positions = slices.DeleteFunc(out[i].Positions, func(p domain.InvestmentPosition) bool { return !p.Open })
	}
	return out
}

// openDebts copies accounts keeping only their open positions
func openDebts(in []domain.DebtAccount) []domain.DebtAccount {
	out := cloneDebts(in)
	for i := range out {
		out[i].Positions = slices.DeleteFunc(out[i].Positions, func(p domain.DebtPosition) bool { return !p.Open })
	}
	return out
}
