package calculation

import (
	"context"
	"time"

	"github.com/rpgo/lifesim/internal/domain"
	"github.com/shopspring/decimal"
)

// PersonRepository loads the household earner
type PersonRepository interface {
	GetPerson(ctx context.Context, id string) (domain.Person, error)
}

// AccountRepository loads the starting accounts of a person
type AccountRepository interface {
	FetchInvestmentAccounts(ctx context.Context, personID string) ([]domain.InvestmentAccount, error)
	FetchDebtAccounts(ctx context.Context, personID string) ([]domain.DebtAccount, error)
}

// PriceHistoryRepository loads the historical monthly growth table, oldest first
type PriceHistoryRepository interface {
	FetchHistoricalMonthlyGrowth(ctx context.Context) ([]decimal.Decimal, error)
}

// ModelRepository stores models and their run results
type ModelRepository interface {
	FetchModel(ctx context.Context, id string) (domain.Model, error)
	SaveModel(ctx context.Context, model domain.Model) error
	SaveRunResult(ctx context.Context, result RunResult) error
}

// ModelBreeder derives a child model from two parents for a person born on birthDate
type ModelBreeder interface {
	Mate(a, b domain.Model, birthDate time.Time) (domain.Model, error)
}
