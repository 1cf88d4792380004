package calculation

import (
	"context"
	"fmt"

	"github.com/rpgo/lifesim/internal/domain"
)

// Planner orchestrates a comparison: it loads the household from the
// repositories, runs every model over the same price paths and stores the results
type Planner struct {
	People    PersonRepository
	Accounts  AccountRepository
	History   PriceHistoryRepository
	Models    ModelRepository
	TaxConfig domain.TaxConfig
	Runner    *BatchRunner
	Logger    Logger
}

// NewPlanner creates a planner with a no-op logger
func NewPlanner(people PersonRepository, accounts AccountRepository, history PriceHistoryRepository, models ModelRepository, taxConfig domain.TaxConfig, runner *BatchRunner) *Planner {
	return &Planner{
		People:    people,
		Accounts:  accounts,
		History:   history,
		Models:    models,
		TaxConfig: taxConfig,
		Runner:    runner,
		Logger:    NopLogger{},
	}
}

// SetLogger sets the logger for the planner. If nil is provided, a no-op logger is used.
func (p *Planner) SetLogger(l Logger) {
	if l == nil {
		p.Logger = NopLogger{}
		return
	}
	p.Logger = l
}

// Prepare loads the household start data and derives the shared price paths
func (p *Planner) Prepare(ctx context.Context, personID string) (BatchInput, []PricePath, error) {
	person, err := p.People.GetPerson(ctx, personID)
	if err != nil {
		return BatchInput{}, nil, fmt.Errorf("load person %s: %w", personID, err)
	}
	investments, err := p.Accounts.FetchInvestmentAccounts(ctx, personID)
	if err != nil {
		return BatchInput{}, nil, fmt.Errorf("load investment accounts: %w", err)
	}
	debts, err := p.Accounts.FetchDebtAccounts(ctx, personID)
	if err != nil {
		return BatchInput{}, nil, fmt.Errorf("load debt accounts: %w", err)
	}
	history, err := p.History.FetchHistoricalMonthlyGrowth(ctx)
	if err != nil {
		return BatchInput{}, nil, fmt.Errorf("load growth history: %w", err)
	}
	paths, err := p.Runner.PricePaths(history)
	if err != nil {
		return BatchInput{}, nil, err
	}
	growth := SummarizeGrowth(history)
	p.Logger.Infof("growth history: %d months, mean %s, std dev %s, range %s to %s",
		growth.Count, growth.Mean.StringFixed(4), growth.StdDev.StringFixed(4), growth.Min.StringFixed(4), growth.Max.StringFixed(4))
	p.Logger.Debugf("prepared %d price paths from %d months of history", len(paths), len(history))
	return BatchInput{Person: person, Investments: investments, Debts: debts}, paths, nil
}

// RunModels runs every model for the person over the same price paths, saves
// each result and returns them ranked best first
func (p *Planner) RunModels(ctx context.Context, personID string, modelIDs []string) ([]RunResult, error) {
	if len(modelIDs) == 0 {
		return nil, fmt.Errorf("%w: no models to run", domain.ErrConfiguration)
	}
	in, paths, err := p.Prepare(ctx, personID)
	if err != nil {
		return nil, err
	}

	runs := make([]RunResult, 0, len(modelIDs))
	for _, id := range modelIDs {
		model, err := p.Models.FetchModel(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load model %s: %w", id, err)
		}
		sim, err := NewLifeSimulator(model, p.TaxConfig, p.Logger)
		if err != nil {
			return nil, err
		}
		run, err := p.Runner.Run(ctx, sim, in, paths)
		if err != nil {
			return nil, err
		}
		if err := p.Models.SaveRunResult(ctx, run); err != nil {
			return nil, fmt.Errorf("save run for model %s: %w", id, err)
		}
		runs = append(runs, run)
	}
	return RankRuns(runs), nil
}

// Breed mates two stored models for a person and saves the child
func (p *Planner) Breed(ctx context.Context, breeder ModelBreeder, personID, parentA, parentB string) (domain.Model, error) {
	person, err := p.People.GetPerson(ctx, personID)
	if err != nil {
		return domain.Model{}, fmt.Errorf("load person %s: %w", personID, err)
	}
	a, err := p.Models.FetchModel(ctx, parentA)
	if err != nil {
		return domain.Model{}, fmt.Errorf("load model %s: %w", parentA, err)
	}
	b, err := p.Models.FetchModel(ctx, parentB)
	if err != nil {
		return domain.Model{}, fmt.Errorf("load model %s: %w", parentB, err)
	}
	child, err := breeder.Mate(a, b, person.BirthDate)
	if err != nil {
		return domain.Model{}, err
	}
	if _, err := NewLifeSimulator(child, p.TaxConfig, p.Logger); err != nil {
		return domain.Model{}, fmt.Errorf("child of %s and %s: %w", parentA, parentB, err)
	}
	if err := p.Models.SaveModel(ctx, child); err != nil {
		return domain.Model{}, fmt.Errorf("save model %s: %w", child.ID, err)
	}
	p.Logger.Infof("bred model %s (generation %d) from %s and %s", child.ID, child.Generation, parentA, parentB)
	return child, nil
}
