package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/firefight"
	"firefight-trader/internal/models"
	"firefight-trader/internal/stats"
)

// addFirefightCommands adds breach evaluation and adjustment commands.
func addFirefightCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "fire",
		Short: "Firefighting: evaluate breaches and execute adjustments",
		Long: `Evaluate the selected group against its safety band and execute
adjustment techniques: shift base, averaging, reference hedge, and
range extension.`,
	}

	cmd.AddCommand(newFirePlanCmd(app))
	cmd.AddCommand(newFireShiftCmd(app))
	cmd.AddCommand(newFireAverageCmd(app))
	cmd.AddCommand(newFireReferenceCmd(app))
	cmd.AddCommand(newFireExtendCmd(app))

	rootCmd.AddCommand(cmd)
}

// fireContext is the refreshed state every firefighting command starts from.
type fireContext struct {
	group *models.StrategyGroup
	spec  models.IndexSpec
	sig   firefight.Signal
	chain *models.OptionChain
}

// prepareFire refreshes quotes, evaluates the signal, and materializes
// the option chain the adjustments will trade on.
func prepareFire(cmd *cobra.Command, app *App, output *Output, args []string) (*fireContext, error) {
	group, err := targetGroup(app, args)
	if err != nil {
		output.Error("%v", err)
		return nil, err
	}
	spec, ok := models.IndexFor(group.Instrument)
	if !ok {
		err := apperrors.NewValidationError("instrument", group.Instrument, "unsupported index")
		output.Error("%v", err)
		return nil, err
	}
	if err := requireAuth(cmd.Context(), app, output); err != nil {
		return nil, err
	}

	result, err := app.Refresher.RefreshGroup(cmd.Context(), group.ID)
	if err != nil {
		output.Error("Refresh failed: %v", err)
		return nil, err
	}

	agg := stats.Compute(group)
	sig := firefight.Evaluate(agg.AvgShortStrike, group.Buffer, spec.Step, result.Spot, agg.TotalPnL)

	fc := &fireContext{group: group, spec: spec, sig: sig}
	if app.Instruments != nil {
		if err := app.Instruments.EnsureFresh(cmd.Context()); err == nil {
			if chain, err := app.Instruments.Chain(cmd.Context(), group.Instrument, time.Time{}); err == nil {
				fc.chain = chain
			}
		}
	}
	return fc, nil
}

func newFirePlanCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [group]",
		Short: "Evaluate the safety band and show the adjustment plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			fc, err := prepareFire(cmd, app, output, args)
			if err != nil {
				return err
			}

			plan := firefight.BuildPlan(fc.sig, fc.spec.Step)
			if output.IsJSON() {
				return output.JSON(plan)
			}

			printSignal(output, fc.sig, planOrNil(plan))
			return nil
		},
	}
}

func newFireShiftCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shift [group]",
		Short: "Shift base: close all legs, sell a fresh ATM straddle",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			fc, err := prepareFire(cmd, app, output, args)
			if err != nil {
				return err
			}
			if err := requireBreach(fc, output); err != nil {
				return err
			}
			if err := requireChain(fc, output); err != nil {
				return err
			}

			executor := firefight.NewExecutor(app.Registry, app.Logger)
			if err := executor.ShiftBase(fc.group.ID, fc.chain, fc.sig.ATMStrike); err != nil {
				output.Error("Shift base failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"technique": "SHIFT_BASE", "strike": fc.sig.ATMStrike})
			}
			output.Success("✓ Base shifted: straddle sold at %s", FormatStrike(fc.sig.ATMStrike))
			return nil
		},
	}
}

func newFireAverageCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "average [group]",
		Short: "Averaging: sell a second straddle at S2",
		Long: `Sell a second straddle at S2 = 2*ATM - S1 so the blended average short
strike moves to the current ATM. Used when a breach is running at a
loss and realizing it is unattractive.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			fc, err := prepareFire(cmd, app, output, args)
			if err != nil {
				return err
			}
			if err := requireBreach(fc, output); err != nil {
				return err
			}
			if err := requireChain(fc, output); err != nil {
				return err
			}

			strike := firefight.S2(fc.sig.AvgShortStrike, fc.sig.Spot, fc.spec.Step)
			executor := firefight.NewExecutor(app.Registry, app.Logger)
			if err := executor.Average(fc.group.ID, fc.chain, strike); err != nil {
				output.Error("Averaging failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"technique": "AVERAGING", "strike": strike})
			}
			output.Success("✓ Averaging straddle sold at %s", FormatStrike(strike))
			return nil
		},
	}
}

func newFireReferenceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reference [group]",
		Short: "Reference hedge: sell one option opposite the breach",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			fc, err := prepareFire(cmd, app, output, args)
			if err != nil {
				return err
			}
			if err := requireBreach(fc, output); err != nil {
				return err
			}
			if err := requireChain(fc, output); err != nil {
				return err
			}

			strike, optType := firefight.ReferenceStrike(fc.sig.AvgShortStrike, fc.sig.Buffer, fc.spec.Step, fc.sig.Zone)
			executor := firefight.NewExecutor(app.Registry, app.Logger)
			if err := executor.Reference(fc.group.ID, fc.chain, strike, optType); err != nil {
				output.Error("Reference hedge failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"technique": "REFERENCE", "strike": strike, "type": optType})
			}
			output.Success("✓ Reference hedge sold: %s %s", FormatStrike(strike), optType)
			return nil
		},
	}
}

func newFireExtendCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "extend [group]",
		Short: "Range extension: sell one option two buffers beyond the breach",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			fc, err := prepareFire(cmd, app, output, args)
			if err != nil {
				return err
			}
			if err := requireBreach(fc, output); err != nil {
				return err
			}
			if err := requireChain(fc, output); err != nil {
				return err
			}

			strike, optType := firefight.ExtensionStrike(fc.sig.AvgShortStrike, fc.sig.Buffer, fc.spec.Step, fc.sig.Zone)
			executor := firefight.NewExecutor(app.Registry, app.Logger)
			if err := executor.Extend(fc.group.ID, fc.chain, strike, optType); err != nil {
				output.Error("Range extension failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"technique": "EXTENSION", "strike": strike, "type": optType})
			}
			output.Success("✓ Range extension sold: %s %s", FormatStrike(strike), optType)
			return nil
		},
	}
}

func requireChain(fc *fireContext, output *Output) error {
	if fc.chain != nil {
		return nil
	}
	output.Error("Option chain unavailable; run 'firefight instruments sync' first")
	return fmt.Errorf("option chain unavailable")
}

func requireBreach(fc *fireContext, output *Output) error {
	if fc.sig.Breached() {
		return nil
	}
	if !fc.sig.Enabled {
		output.Error("Firefighting disabled: no eligible short base legs")
		return apperrors.NewValidationError("signal", fc.sig.Zone, "firefighting disabled")
	}
	output.Warning("Spot is inside the safety band; no adjustment needed")
	return apperrors.NewValidationError("signal", fc.sig.Zone, "no breach")
}

func planOrNil(plan firefight.Plan) *firefight.Plan {
	if len(plan.Actions) == 0 {
		return nil
	}
	return &plan
}
