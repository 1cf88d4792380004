package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/config"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func exampleConfig(t *testing.T) *domain.Configuration {
	t.Helper()
	cfg := config.NewInputParser().CreateExampleConfiguration()
	require.NoError(t, config.NewInputParser().ValidateConfiguration(cfg))
	return cfg
}

func openSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "lifesim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHouseholdFromConfigurationAddsCash(t *testing.T) {
	cfg := exampleConfig(t)
	h := HouseholdFromConfiguration(cfg)

	require.Len(t, h.Investments, len(cfg.InvestmentAccounts)+1)
	cash := h.Investments[len(h.Investments)-1]
	assert.Equal(t, domain.Cash, cash.Type)
	assert.True(t, cash.Value().Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, domain.Short, cash.Positions[0].Bucket)

	cfg.CashBalance = decimal.Zero
	assert.Len(t, HouseholdFromConfiguration(cfg).Investments, len(cfg.InvestmentAccounts))
}

func TestGrowthHistoryFromFile(t *testing.T) {
	cfg := exampleConfig(t)
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte("month,rate\n2020-02,0.01\n2020-01,-0.02\n"), 0o644))
	cfg.Simulation.GrowthHistoryFile = path

	history, err := GrowthHistoryFromConfiguration(cfg)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]decimal.Decimal{decimal.NewFromFloat(-0.02), decimal.NewFromFloat(0.01)}, history.Rates(), decimalEqual))

	cfg.Simulation.GrowthHistoryFile = ""
	cfg.GrowthHistory = nil
	_, err = GrowthHistoryFromConfiguration(cfg)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := exampleConfig(t)
	m, err := NewMemoryFromConfiguration(cfg)
	require.NoError(t, err)

	person, err := m.GetPerson(ctx, "household")
	require.NoError(t, err)
	assert.Equal(t, cfg.Person.BirthDate, person.BirthDate)

	accounts, err := m.FetchInvestmentAccounts(ctx, "household")
	require.NoError(t, err)
	require.Len(t, accounts, 4)
	accounts[0].Positions[0].Quantity = decimal.Zero
	again, err := m.FetchInvestmentAccounts(ctx, "household")
	require.NoError(t, err)
	assert.False(t, again[0].Positions[0].Quantity.IsZero(), "callers get copies")

	history, err := m.FetchHistoricalMonthlyGrowth(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 12)

	models, err := m.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "retire-2035", models[0].ID)

	_, err = m.GetPerson(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = m.FetchModel(ctx, "nothing")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, m.SaveRunResult(ctx, calculation.RunResult{ID: uuid.New(), ModelID: "retire-2035"}))
	runs, err := m.RunResults(ctx, "retire-2035")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSQLiteImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := exampleConfig(t)
	s := openSQLite(t)
	require.NoError(t, s.ImportConfiguration(ctx, cfg))
	want := HouseholdFromConfiguration(cfg)

	person, err := s.GetPerson(ctx, "household")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want.Person, person, decimalEqual))

	investments, err := s.FetchInvestmentAccounts(ctx, "household")
	require.NoError(t, err)
	require.Len(t, investments, len(want.Investments))
	// generated cash ids differ between the two conversions
	for i := range investments[:len(investments)-1] {
		assert.Empty(t, cmp.Diff(want.Investments[i], investments[i], decimalEqual))
	}
	cash := investments[len(investments)-1]
	assert.Equal(t, domain.Cash, cash.Type)
	assert.True(t, cash.Value().Equal(cfg.CashBalance))

	debts, err := s.FetchDebtAccounts(ctx, "household")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want.Debts, debts, decimalEqual))

	history, err := s.FetchHistoricalMonthlyGrowth(ctx)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(cfg.GrowthHistory, history, decimalEqual))

	model, err := s.FetchModel(ctx, "retire-2038")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(cfg.Models[1], model, decimalEqual))

	// importing again replaces the household rather than duplicating it
	require.NoError(t, s.ImportConfiguration(ctx, cfg))
	investments, err = s.FetchInvestmentAccounts(ctx, "household")
	require.NoError(t, err)
	assert.Len(t, investments, len(want.Investments))
	models, err := s.ListModels(ctx)
	require.NoError(t, err)
	assert.Len(t, models, 2)
}

func TestSQLiteNotFound(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	_, err := s.GetPerson(ctx, "ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.FetchModel(ctx, "ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.FetchHistoricalMonthlyGrowth(ctx)
	assert.True(t, errors.Is(err, domain.ErrDataIntegrity))

	accounts, err := s.FetchInvestmentAccounts(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestSQLiteRunResults(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	run := calculation.RunResult{
		ID:                  uuid.New(),
		ModelID:             "m1",
		ModelName:           "Model one",
		Lives:               3,
		FinalBankruptcyRate: decimal.NewFromFloat(0.25),
		MedianFunPoints:     decimal.NewFromInt(120000),
		CreatedAt:           time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Months: []calculation.MonthStatistics{{
			Month:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			NetWorth: calculation.PercentileRange{P50: decimal.NewFromInt(500000)},
		}},
		FailedLives: []calculation.LifeFailure{{LifeIndex: 2, Error: "no price"}},
	}
	require.NoError(t, s.SaveRunResult(ctx, run))
	require.Error(t, s.SaveRunResult(ctx, run), "run ids are unique")

	runs, err := s.RunResults(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Empty(t, cmp.Diff(run, runs[0], decimalEqual))

	none, err := s.RunResults(ctx, "m2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteBackedPlanner(t *testing.T) {
	ctx := context.Background()
	cfg := exampleConfig(t)
	cfg.Simulation.Lives = 4
	cfg.Simulation.EndMonth = time.Date(2028, 12, 1, 0, 0, 0, 0, time.UTC)
	s := openSQLite(t)
	require.NoError(t, s.ImportConfiguration(ctx, cfg))

	runner, err := calculation.NewBatchRunner(calculation.BatchConfigFromSimulation(cfg.Simulation), nil, nil, nil)
	require.NoError(t, err)
	planner := calculation.NewPlanner(s, s, s, s, cfg.Tax, runner)
	core, logs := observer.New(zap.InfoLevel)
	planner.SetLogger(calculation.NewZapLogger(zap.New(core)))

	runs, err := planner.RunModels(ctx, "household", []string{"retire-2035", "retire-2038"})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Len(t, r.Months, 36)
		stored, err := s.RunResults(ctx, r.ModelID)
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	}
	assert.Equal(t, 1, logs.FilterMessageSnippet("growth history: 12 months").Len())
}

func TestFetchAccountsSkipsClosedPositions(t *testing.T) {
	ctx := context.Background()
	entry := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	one := decimal.NewFromInt(1)
	h := Household{
		Person: domain.Person{ID: "p", BirthDate: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)},
		Investments: []domain.InvestmentAccount{{
			ID: "brokerage", Name: "Brokerage", Type: domain.TaxableBrokerage,
			Positions: []domain.InvestmentPosition{
				{ID: "sold", Open: false, EntryDate: entry, Quantity: decimal.Zero, Price: one, InitialCost: decimal.Zero, Bucket: domain.Long},
				{ID: "held", Open: true, EntryDate: entry, Quantity: decimal.NewFromInt(500), Price: one, InitialCost: decimal.NewFromInt(400), Bucket: domain.Long},
			},
		}},
		Debts: []domain.DebtAccount{{
			ID: "car", Name: "Car loan",
			Positions: []domain.DebtPosition{
				{ID: "paid", Open: false, EntryDate: entry, Balance: decimal.Zero, APR: decimal.Zero, MonthlyPayment: decimal.NewFromInt(300)},
			},
		}},
	}

	memory := NewMemory()
	memory.PutHousehold(h)
	sqlite := openSQLite(t)
	require.NoError(t, sqlite.SaveHousehold(ctx, h))

	for name, repo := range map[string]calculation.AccountRepository{"memory": memory, "sqlite": sqlite} {
		t.Run(name, func(t *testing.T) {
			investments, err := repo.FetchInvestmentAccounts(ctx, "p")
			require.NoError(t, err)
			require.Len(t, investments, 1)
			require.Len(t, investments[0].Positions, 1)
			assert.Equal(t, "held", investments[0].Positions[0].ID)

			debts, err := repo.FetchDebtAccounts(ctx, "p")
			require.NoError(t, err)
			require.Len(t, debts, 1)
			assert.Empty(t, debts[0].Positions)
		})
	}

	// the stored household keeps its closed positions
	h2, err := memory.household("p")
	require.NoError(t, err)
	assert.Len(t, h2.Investments[0].Positions, 2)
}
