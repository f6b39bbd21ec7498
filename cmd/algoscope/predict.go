package main

import (
	"github.com/spf13/cobra"

	"github.com/rendis/algoscope/internal/engine"
)

var (
	setPairs   []string
	sweepField string
	sweepSteps int
)

var predictCmd = &cobra.Command{
	Use:   "predict <model-id>",
	Short: "Simulate one model on the given inputs",
	Long: `Runs the model's rule. Inputs not given with --set take the card's defaults.

Example:
  algoscope predict snap-eligibility --set household_income=25000 --set household_size=3`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep <model-id>",
	Short: "Vary one number input across its range",
	Long: `Evaluates the model at evenly spaced values of --field, from the field's min to
its max, holding the other inputs fixed.

Example:
  algoscope sweep snap-eligibility --field household_income --steps 11`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	predictCmd.Flags().StringArrayVar(&setPairs, "set", nil, "input value as name=value (repeatable)")

	sweepCmd.Flags().StringArrayVar(&setPairs, "set", nil, "fixed input value as name=value (repeatable)")
	sweepCmd.Flags().StringVar(&sweepField, "field", "", "number input to vary")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", engine.DefaultSweepSteps, "number of points")
	_ = sweepCmd.MarkFlagRequired("field")
}

func runPredict(cmd *cobra.Command, args []string) error {
	inputs, err := parseSet(setPairs)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, err := newService(ctx)
	if err != nil {
		return err
	}

	out, err := svc.Predict(ctx, args[0], inputs)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func runSweep(cmd *cobra.Command, args []string) error {
	inputs, err := parseSet(setPairs)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, err := newService(ctx)
	if err != nil {
		return err
	}

	points, err := svc.Sweep(ctx, args[0], inputs, sweepField, sweepSteps)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), points)
}
