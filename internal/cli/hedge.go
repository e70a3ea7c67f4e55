package cli

import (
	"github.com/spf13/cobra"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/firefight"
	"firefight-trader/internal/models"
)

func newHedgeCmd(app *App) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "hedge [group]",
		Short: "Compute weekly protection strikes from break-evens",
		Long: `Compute the weekly hedge proposal for the selected group: break-even
levels from the active base short legs and their total premium, with
hedge strikes rounded to the index step. With --apply, the hedges are
bought on the nearest weekly expiry and recorded as long weekly_hedge
legs; without it the command only proposes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			group, err := targetGroup(app, args)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			spec, ok := models.IndexFor(group.Instrument)
			if !ok {
				err := apperrors.NewValidationError("instrument", group.Instrument, "unsupported index")
				output.Error("%v", err)
				return err
			}

			plan, err := firefight.WeeklyProtection(group, spec.Step)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrLegNotFound) {
					output.Error("No active base short legs with recorded premiums; nothing to protect")
				} else {
					output.Error("Hedge computation failed: %v", err)
				}
				return err
			}

			if apply {
				if err := applyWeeklyHedge(cmd, app, output, group, plan); err != nil {
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"plan": plan, "applied": apply})
			}

			output.Bold("Weekly protection for '%s'", group.Name)
			output.Printf("  Premium collected:  %.2f pts\n", plan.TotalPremiumPoints)
			output.Printf("  Call break-even:    %s\n", FormatPrice(plan.CallBreakEven))
			output.Printf("  Put break-even:     %s\n", FormatPrice(plan.PutBreakEven))
			output.Println()
			if apply {
				output.Success("  ✓ Bought %s CE and %s PE (weekly)", FormatStrike(plan.CallHedgeStrike), FormatStrike(plan.PutHedgeStrike))
			} else {
				output.Success("  Buy %s CE and %s PE (far week)", FormatStrike(plan.CallHedgeStrike), FormatStrike(plan.PutHedgeStrike))
				output.Dim("  Record fills with: firefight leg add --side long --tag weekly_hedge")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "buy the hedges on the weekly chain and record the legs")
	return cmd
}

// applyWeeklyHedge resolves the plan's strikes on the nearest weekly
// chain and records long weekly_hedge legs at current prices.
func applyWeeklyHedge(cmd *cobra.Command, app *App, output *Output, group *models.StrategyGroup, plan firefight.HedgePlan) error {
	ctx := cmd.Context()

	if err := requireAuth(ctx, app, output); err != nil {
		return err
	}
	if app.Instruments == nil {
		output.Error("Instrument cache unavailable; cannot resolve weekly contracts")
		return apperrors.ErrInstrumentNotFound
	}
	if err := app.Instruments.EnsureFresh(ctx); err != nil {
		output.Error("Instrument master unavailable: %v", err)
		return err
	}

	expiry, err := app.Instruments.NearestExpiry(ctx, group.Instrument)
	if err != nil {
		output.Error("No weekly expiry listed for %s: %v", group.Instrument, err)
		return err
	}
	chain, err := app.Instruments.Chain(ctx, group.Instrument, expiry)
	if err != nil {
		output.Error("Weekly chain unavailable: %v", err)
		return err
	}

	var tokens []string
	if call, ok := chain.Contract(plan.CallHedgeStrike, models.OptionCall); ok {
		tokens = append(tokens, call.Token)
	}
	if put, ok := chain.Contract(plan.PutHedgeStrike, models.OptionPut); ok {
		tokens = append(tokens, put.Token)
	}

	var prices map[string]float64
	if len(tokens) == 2 {
		prices, err = app.Broker.GetQuotes(ctx, map[models.Exchange][]string{models.NFO: tokens})
		if err != nil {
			output.Warning("Quote fetch failed (%v); hedges recorded at 0.00", err)
			prices = nil
		}
	}

	executor := firefight.NewExecutor(app.Registry, app.Logger)
	if err := executor.ApplyWeeklyHedge(group.ID, chain, plan, prices); err != nil {
		output.Error("Hedge execution failed: %v", err)
		return err
	}
	return nil
}
