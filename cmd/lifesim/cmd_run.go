package main

import (
	"fmt"
	"os"

	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runFormat    string
	runOutput    string
	runReportDir string
	personID     string
	modelIDs     []string
	metricsAddr  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run models over a batch of lives and rank them",
	Long: `Run simulates every selected model over the same synthetic price paths
and prints the ranked comparison.

The household comes from --config, or from --db when a SQLite database
is given. Without --model every stored model is run.`,
	Example: `  lifesim run --config household.yaml
  lifesim run --config household.yaml --format json --output report.json
  lifesim run --db lifesim.db --person household --model retire-2035 --model retire-2038`,
	Args: cobra.NoArgs,
	RunE: runSimulation,
}

func runSimulation(cmd *cobra.Command, args []string) error {
	if output.GetFormatterByName(runFormat) == nil {
		return fmt.Errorf("%w: %q", output.ErrUnsupportedFormat, runFormat)
	}
	ctx, cancel := commandContext()
	defer cancel()

	cfg, err := loadConfiguration()
	if err != nil {
		return err
	}
	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	person := personID
	if person == "" {
		person = cfg.Person.ID
	}
	ids := modelIDs
	if len(ids) == 0 {
		models, err := repo.ListModels(ctx)
		if err != nil {
			return err
		}
		for _, m := range models {
			ids = append(ids, m.ID)
		}
	}

	recorder, stopMetrics, err := startMetrics(metricsAddr)
	if err != nil {
		return err
	}
	defer stopMetrics()

	var diagnostics calculation.Diagnostics
	if cfg.Simulation.Debug {
		diagnostics = calculation.NewZapDiagnostics(logger)
	}
	engineLogger := calculation.NewZapLogger(logger)
	runner, err := calculation.NewBatchRunner(calculation.BatchConfigFromSimulation(cfg.Simulation), engineLogger, diagnostics, recorder)
	if err != nil {
		return err
	}
	planner := calculation.NewPlanner(repo, repo, repo, repo, cfg.Tax, runner)
	planner.SetLogger(engineLogger)

	logger.Info("Running models",
		zap.String("person", person),
		zap.Strings("models", ids),
		zap.Int("lives", cfg.Simulation.Lives))
	runs, err := planner.RunModels(ctx, person, ids)
	if err != nil {
		return err
	}

	history, err := repo.FetchHistoricalMonthlyGrowth(ctx)
	if err != nil {
		return err
	}
	report := output.NewRunReport(person, runner.Config(), runs)
	report.Growth = calculation.SummarizeGrowth(history)
	data, err := output.Render(report, runFormat)
	if err != nil {
		return err
	}
	if runOutput != "" {
		if err := os.WriteFile(runOutput, data, 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("Report written", zap.String("path", runOutput))
	} else if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return err
	}

	if runReportDir != "" {
		files, err := output.GenerateReport(report, runFormat, runReportDir)
		if err != nil {
			return err
		}
		logger.Info("Report files written", zap.Strings("files", files))
	}
	return nil
}
