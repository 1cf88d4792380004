package main

import (
	"fmt"

	"github.com/rpgo/lifesim/internal/config"
	"github.com/rpgo/lifesim/internal/output"
	"github.com/spf13/cobra"
)

var exampleOutput string

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Write an example configuration with two models",
	Args:  cobra.NoArgs,
	RunE:  runExample,
}

func runExample(cmd *cobra.Command, args []string) error {
	cfg := config.NewInputParser().CreateExampleConfiguration()
	if err := output.SaveConfiguration(cfg, exampleOutput); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Example configuration written to %s\n", exampleOutput)
	return nil
}
