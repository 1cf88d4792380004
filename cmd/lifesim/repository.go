package main

import (
	"context"
	"fmt"

	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/config"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/store"
)

// repository is everything the commands need from a store
type repository interface {
	calculation.PersonRepository
	calculation.AccountRepository
	calculation.PriceHistoryRepository
	calculation.ModelRepository
	ListModels(ctx context.Context) ([]domain.Model, error)
}

// loadConfiguration parses --config. Without one, a database run takes its
// simulation and tax settings from the example configuration.
func loadConfiguration() (*domain.Configuration, error) {
	parser := config.NewInputParser()
	if configPath != "" {
		return parser.LoadFromFile(configPath)
	}
	if dbPath == "" {
		return nil, fmt.Errorf("%w: --config or --db is required", domain.ErrConfiguration)
	}
	logger.Debug("no --config given, using example simulation and tax settings")
	return parser.CreateExampleConfiguration(), nil
}

// openRepository opens the SQLite store when --db is set and otherwise serves
// the configuration from memory. The returned close func is never nil.
func openRepository(cfg *domain.Configuration) (repository, func() error, error) {
	if dbPath != "" {
		s, err := store.OpenSQLite(dbPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	m, err := store.NewMemoryFromConfiguration(cfg)
	if err != nil {
		return nil, nil, err
	}
	return m, func() error { return nil }, nil
}
