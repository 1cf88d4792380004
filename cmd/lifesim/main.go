package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lifesim",
	Short: "lifesim - household life simulator",
	Long: `lifesim simulates a household month by month over many synthetic
market histories and compares spending and retirement models.

Each model is run over the same set of price paths. Models are ranked by
bankruptcy rate, then fun points, then median final net worth.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "Operation timeout")

	runCmd.Flags().StringVarP(&runFormat, "format", "f", "console", "Output format (console, csv, monthly-csv, json)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Write the report to this file instead of stdout")
	runCmd.Flags().StringVar(&runReportDir, "report-dir", "", "Also write timestamped report files to this directory")
	runCmd.Flags().StringVar(&personID, "person", "", "Person ID (default: the configured person)")
	runCmd.Flags().StringSliceVar(&modelIDs, "model", nil, "Model IDs to run (default: every stored model)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	breedCmd.Flags().StringVar(&breedPerson, "person", "household", "Person the child model is bred for")
	breedCmd.Flags().StringVar(&parentA, "parent-a", "", "First parent model ID (required)")
	breedCmd.Flags().StringVar(&parentB, "parent-b", "", "Second parent model ID (required)")
	breedCmd.Flags().Int64Var(&breedSeed, "seed", 0, "Random seed (default: current time)")
	breedCmd.Flags().StringVar(&breedExport, "export", "", "Also write the child model as YAML to this file")
	breedCmd.MarkFlagRequired("parent-a")
	breedCmd.MarkFlagRequired("parent-b")

	exampleCmd.Flags().StringVarP(&exampleOutput, "output", "o", "example_config.yaml", "File to write")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(breedCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(exampleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext applies the timeout and cancels on SIGINT/SIGTERM
func commandContext() (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
