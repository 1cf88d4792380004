package integration

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/config"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleConfig = "../testdata/example_config.yaml"

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func loadExample(t *testing.T) *domain.Configuration {
	t.Helper()
	cfg, err := config.NewInputParser().LoadFromFile(exampleConfig)
	require.NoError(t, err)
	return cfg
}

func runAll(t *testing.T, cfg *domain.Configuration, repo interface {
	calculation.PersonRepository
	calculation.AccountRepository
	calculation.PriceHistoryRepository
	calculation.ModelRepository
}) []calculation.RunResult {
	t.Helper()
	runner, err := calculation.NewBatchRunner(calculation.BatchConfigFromSimulation(cfg.Simulation), nil, nil, nil)
	require.NoError(t, err)
	planner := calculation.NewPlanner(repo, repo, repo, repo, cfg.Tax, runner)
	runs, err := planner.RunModels(context.Background(), cfg.Person.ID, []string{"retire-2028", "retire-2031"})
	require.NoError(t, err)
	return runs
}

func TestEndToEndCalculation(t *testing.T) {
	cfg := loadExample(t)
	assert.Len(t, cfg.Models, 2)

	repo, err := store.NewMemoryFromConfiguration(cfg)
	require.NoError(t, err)
	runs := runAll(t, cfg, repo)
	require.Len(t, runs, 2)

	for _, run := range runs {
		assert.Equal(t, 12, run.Lives)
		assert.Empty(t, run.FailedLives)
		require.Len(t, run.Months, 84)
		assert.Equal(t, cfg.Simulation.StartMonth, run.Months[0].Month)
		assert.Equal(t, cfg.Simulation.EndMonth, run.Months[83].Month)

		prevRate := decimal.Zero
		for _, m := range run.Months {
			assert.True(t, m.NetWorth.P10.LessThanOrEqual(m.NetWorth.P50), m.Month)
			assert.True(t, m.NetWorth.P50.LessThanOrEqual(m.NetWorth.P90), m.Month)
			assert.True(t, m.BankruptcyRate.GreaterThanOrEqual(prevRate), "bankruptcy rate never falls")
			prevRate = m.BankruptcyRate
		}
		assert.True(t, run.Months[0].NetWorth.P50.IsPositive())
		assert.True(t, run.MedianFunPoints.IsPositive())
		assert.True(t, run.MedianLifetimeTax.IsPositive())
	}

	ranked := calculation.RankRuns(runs)
	assert.Equal(t, ranked[0].ModelID, runs[0].ModelID, "planner returns runs ranked")
}

func TestRunsAreReproducible(t *testing.T) {
	cfg := loadExample(t)
	first, err := store.NewMemoryFromConfiguration(cfg)
	require.NoError(t, err)
	second, err := store.NewMemoryFromConfiguration(cfg)
	require.NoError(t, err)

	a := runAll(t, cfg, first)
	b := runAll(t, cfg, second)
	for i := range a {
		assert.Equal(t, a[i].ModelID, b[i].ModelID)
		assert.Empty(t, cmp.Diff(a[i].Months, b[i].Months, decimalEqual))
	}
}

func TestSQLiteMatchesMemory(t *testing.T) {
	cfg := loadExample(t)
	memory, err := store.NewMemoryFromConfiguration(cfg)
	require.NoError(t, err)

	db, err := store.OpenSQLite(t.TempDir() + "/lifesim.db")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.ImportConfiguration(context.Background(), cfg))

	fromMemory := runAll(t, cfg, memory)
	fromDB := runAll(t, cfg, db)
	for i := range fromMemory {
		assert.Equal(t, fromMemory[i].ModelID, fromDB[i].ModelID)
		assert.Empty(t, cmp.Diff(fromMemory[i].Months, fromDB[i].Months, decimalEqual))
	}

	stored, err := db.RunResults(context.Background(), "retire-2028")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestConfigurationValidation(t *testing.T) {
	parser := config.NewInputParser()
	cfg := loadExample(t)
	assert.NoError(t, parser.ValidateConfiguration(cfg))

	cfg.Models[1].SocialSecurityElectionDate = cfg.Person.BirthDate.AddDate(75, 0, 0)
	assert.Error(t, parser.ValidateConfiguration(cfg))
}
