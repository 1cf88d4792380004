package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rpgo/lifesim/internal/breeding"
	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	breedPerson string
	parentA     string
	parentB     string
	breedSeed   int64
	breedExport string
)

var breedCmd = &cobra.Command{
	Use:   "breed",
	Short: "Breed a child model from two stored models",
	Long: `Breed mixes two parent models field by field, mutates a share of the
fields and stores the child next to its parents.

With --db the child is saved in the database. With only --config it is
printed, and written with --export.`,
	Example: `  lifesim breed --db lifesim.db --parent-a retire-2035 --parent-b retire-2038 --seed 7`,
	Args:    cobra.NoArgs,
	RunE:    runBreed,
}

func runBreed(cmd *cobra.Command, args []string) error {
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

	seed := breedSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	breeder := breeding.NewBreeder(cfg.Breeding, rand.New(rand.NewSource(seed)))

	planner := calculation.NewPlanner(repo, repo, repo, repo, cfg.Tax, nil)
	planner.SetLogger(calculation.NewZapLogger(logger))
	child, err := planner.Breed(ctx, breeder, breedPerson, parentA, parentB)
	if err != nil {
		return err
	}
	logger.Info("Model bred",
		zap.String("id", child.ID),
		zap.Int("generation", child.Generation),
		zap.Int64("seed", seed))

	fmt.Fprintf(cmd.OutOrStdout(), "Bred %s (%s) generation %d from %s and %s\n", child.ID, child.Name, child.Generation, parentA, parentB)
	if breedExport != "" {
		if err := output.SaveModel(child, breedExport); err != nil {
			return fmt.Errorf("export model: %w", err)
		}
	}
	return nil
}
