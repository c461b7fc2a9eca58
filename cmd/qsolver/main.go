package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/solver"
)

var seed uint64

var rootCmd = &cobra.Command{
	Use:           "qsolver",
	Short:         "Optimization backend invoked by the browser bridge",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func variantCmd(v solver.Variant, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(v) + " <problem-json>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, args[0])
		},
	}
}

func run(cmd *cobra.Command, v solver.Variant, payload string) error {
	in, err := problem.Unmarshal([]byte(payload))
	if err != nil {
		return err
	}

	out, err := solver.New(seed).Solve(v, in)
	if err != nil {
		return err
	}

	data, err := problem.MarshalOutput(out)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func main() {
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "Sampler seed (0 = time based)")
	rootCmd.AddCommand(
		variantCmd(solver.Primary, "Sample the problem with full shot statistics"),
		variantCmd(solver.Fallback, "Draw a single outcome with the degraded sampler"),
	)

	if err := rootCmd.Execute(); err != nil {
		// stdout stays empty on failure so the bridge never parses partial output
		fmt.Fprintf(os.Stderr, "qsolver: %v\n", err)
		os.Exit(1)
	}
}
