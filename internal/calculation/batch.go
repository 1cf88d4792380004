package calculation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/pkg/dateutil"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Life outcomes reported to a Recorder
const (
	OutcomeSolvent  = "solvent"
	OutcomeBankrupt = "bankrupt"
	OutcomeFailed   = "failed"
)

// BatchConfig controls a batch of lives
type BatchConfig struct {
	Lives      int
	Parallel   bool
	MaxWorkers int
	Start      time.Time
	End        time.Time
	Seed       int64
	PriceTrack domain.PriceTrackConfig
	Debug      bool
}

// BatchConfigFromSimulation copies the simulation section of a configuration
func BatchConfigFromSimulation(sim domain.SimulationConfig) BatchConfig {
	return BatchConfig{
		Lives:      sim.Lives,
		Parallel:   sim.Parallel,
		MaxWorkers: sim.MaxWorkers,
		Start:      sim.StartMonth,
		End:        sim.EndMonth,
		Seed:       sim.Seed,
		PriceTrack: sim.PriceTrack,
		Debug:      sim.Debug,
	}
}

// Validate checks the batch settings
func (c BatchConfig) Validate() error {
	if c.Lives <= 0 {
		return fmt.Errorf("%w: lives must be positive", domain.ErrConfiguration)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("%w: max workers cannot be negative", domain.ErrConfiguration)
	}
	if c.Start.IsZero() || c.End.IsZero() {
		return fmt.Errorf("%w: start and end months are required", domain.ErrConfiguration)
	}
	if dateutil.MonthStart(c.End).Before(dateutil.MonthStart(c.Start)) {
		return fmt.Errorf("%w: end month before start month", domain.ErrConfiguration)
	}
	return nil
}

// Recorder observes batch progress, e.g. for metrics
type Recorder interface {
	ObserveLife(modelID, outcome string, duration time.Duration)
	SetBankruptcyRate(modelID string, rate float64)
}

// NopRecorder discards observations
type NopRecorder struct{}

func (NopRecorder) ObserveLife(string, string, time.Duration) {}
func (NopRecorder) SetBankruptcyRate(string, float64)         {}

// Household start data shared by every life of a batch
type BatchInput struct {
	Person      domain.Person
	Investments []domain.InvestmentAccount
	Debts       []domain.DebtAccount
}

// LifeFailure records a life that ended with an error
type LifeFailure struct {
	LifeIndex int    `json:"life_index"`
	Error     string `json:"error"`
}

// RunResult is the aggregated outcome of one model over a batch
type RunResult struct {
	ID                  uuid.UUID         `json:"id"`
	ModelID             string            `json:"model_id"`
	ModelName           string            `json:"model_name"`
	Lives               int               `json:"lives"`
	Months              []MonthStatistics `json:"months"`
	FinalBankruptcyRate decimal.Decimal   `json:"final_bankruptcy_rate"`
	MedianFunPoints     decimal.Decimal   `json:"median_fun_points"`
	MedianLifetimeTax   decimal.Decimal   `json:"median_lifetime_tax"`
	FailedLives         []LifeFailure     `json:"failed_lives,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	Results             []LifeResult      `json:"-"`
}

// BatchRunner runs many lives of a model and aggregates them
type BatchRunner struct {
	config      BatchConfig
	logger      Logger
	diagnostics Diagnostics
	recorder    Recorder
}

// NewBatchRunner validates the configuration; nil collaborators become no-ops.
// Diagnostics are only used in debug mode.
func NewBatchRunner(config BatchConfig, logger Logger, diagnostics Diagnostics, recorder Recorder) (*BatchRunner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NopLogger{}
	}
	if diagnostics == nil || !config.Debug {
		diagnostics = NopDiagnostics{}
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &BatchRunner{config: config, logger: logger, diagnostics: diagnostics, recorder: recorder}, nil
}

// Config returns the batch settings
func (br *BatchRunner) Config() BatchConfig { return br.config }

// PricePaths derives one path per life from the growth history. The same
// paths should be reused for every model being compared.
func (br *BatchRunner) PricePaths(history []decimal.Decimal) ([]PricePath, error) {
	return BuildPricePaths(history, br.config.Start, br.config.End, br.config.PriceTrack, br.config.Seed, br.config.Lives)
}

// Run simulates every life and aggregates the survivors. A failed life is
// recorded and excluded; Run returns an error only when every life fails.
func (br *BatchRunner) Run(ctx context.Context, sim *LifeSimulator, in BatchInput, paths []PricePath) (RunResult, error) {
	n := br.config.Lives
	if len(paths) < n {
		return RunResult{}, fmt.Errorf("%w: %d price paths for %d lives", domain.ErrConfiguration, len(paths), n)
	}
	model := sim.Model()
	br.logger.Infof("running %d lives of model %s (parallel=%t)", n, model.ID, br.config.Parallel)

	results := make([]LifeResult, n)
	errs := make([]error, n)
	if br.config.Parallel {
		var g errgroup.Group
		if br.config.MaxWorkers > 0 {
			g.SetLimit(br.config.MaxWorkers)
		}
		for i := range n {
			g.Go(func() error {
				results[i], errs[i] = br.runLife(ctx, sim, in, paths[i], i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range n {
			results[i], errs[i] = br.runLife(ctx, sim, in, paths[i], i)
		}
	}

	run := RunResult{
		ID:        uuid.New(),
		ModelID:   model.ID,
		ModelName: model.Name,
		CreatedAt: time.Now().UTC(),
	}
	var funPoints, lifetimeTax []decimal.Decimal
	for i, err := range errs {
		if err != nil {
			run.FailedLives = append(run.FailedLives, LifeFailure{LifeIndex: i, Error: err.Error()})
			br.logger.Warnf("life %d of model %s failed: %v", i, model.ID, err)
			continue
		}
		run.Results = append(run.Results, results[i])
		funPoints = append(funPoints, results[i].Totals.FunPoints)
		lifetimeTax = append(lifetimeTax, results[i].LifetimeTaxPaid)
	}
	if len(run.Results) == 0 {
		return run, fmt.Errorf("all %d lives of model %s failed: %w", n, model.ID, errors.Join(errs...))
	}

	run.Lives = len(run.Results)
	run.Months = Aggregate(run.Results)
	if len(run.Months) > 0 {
		run.FinalBankruptcyRate = run.Months[len(run.Months)-1].BankruptcyRate
	}
	run.MedianFunPoints = Median(funPoints)
	run.MedianLifetimeTax = Median(lifetimeTax)
	br.recorder.SetBankruptcyRate(model.ID, run.FinalBankruptcyRate.InexactFloat64())
	br.logger.Infof("model %s: %d lives, %d failed, final bankruptcy rate %s",
		model.ID, run.Lives, len(run.FailedLives), run.FinalBankruptcyRate.StringFixed(3))
	return run, nil
}

func (br *BatchRunner) runLife(ctx context.Context, sim *LifeSimulator, in BatchInput, path PricePath, i int) (LifeResult, error) {
	started := time.Now()
	result, err := sim.Run(ctx, LifeInput{
		Index:       i,
		Person:      in.Person,
		Investments: in.Investments,
		Debts:       in.Debts,
		Path:        path,
		Start:       br.config.Start,
		End:         br.config.End,
	}, diagnosticsForLife(br.diagnostics, i))

	outcome := OutcomeSolvent
	switch {
	case err != nil:
		outcome = OutcomeFailed
	case result.Bankrupt:
		outcome = OutcomeBankrupt
	}
	br.recorder.ObserveLife(sim.Model().ID, outcome, time.Since(started))
	return result, err
}
