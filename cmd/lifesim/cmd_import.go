package main

import (
	"fmt"

	"github.com/rpgo/lifesim/internal/config"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:     "import",
	Short:   "Copy a YAML configuration into a SQLite database",
	Example: `  lifesim import --config household.yaml --db lifesim.db`,
	Args:    cobra.NoArgs,
	RunE:    runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	if configPath == "" || dbPath == "" {
		return fmt.Errorf("%w: import needs --config and --db", domain.ErrConfiguration)
	}
	ctx, cancel := commandContext()
	defer cancel()

	cfg, err := config.NewInputParser().LoadFromFile(configPath)
	if err != nil {
		return err
	}
	s, err := store.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.ImportConfiguration(ctx, cfg); err != nil {
		return fmt.Errorf("import %s: %w", configPath, err)
	}
	logger.Info("Configuration imported",
		zap.String("config", configPath),
		zap.String("db", dbPath),
		zap.String("person", cfg.Person.ID),
		zap.Int("models", len(cfg.Models)))
	fmt.Fprintf(cmd.OutOrStdout(), "Imported person %s and %d models into %s\n", cfg.Person.ID, len(cfg.Models), dbPath)
	return nil
}
