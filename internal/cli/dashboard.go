package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"firefight-trader/internal/firefight"
	"firefight-trader/internal/models"
	"firefight-trader/internal/stats"
	"firefight-trader/internal/trading"
	"firefight-trader/pkg/utils"
)

// dashboardView is the JSON shape of one dashboard render.
type dashboardView struct {
	Group     *models.StrategyGroup  `json:"group"`
	Stats     stats.Aggregated       `json:"stats"`
	Refresh   trading.RefreshResult  `json:"refresh"`
	Signal    firefight.Signal       `json:"signal"`
	Plan      *firefight.Plan        `json:"plan,omitempty"`
	Market    utils.MarketStatus     `json:"market_status"`
	Timestamp time.Time              `json:"timestamp"`
}

func newDashboardCmd(app *App) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "dashboard [group]",
		Short: "Show the live strategy dashboard",
		Long: `Render the full strategy view: legs, aggregated P&L and Greeks, the
average short strike safety band, and any firefighting advice. With
--watch the view refreshes continuously at the configured interval.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			group, err := targetGroup(app, args)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if err := requireAuth(cmd.Context(), app, output); err != nil {
				return err
			}

			if !watch {
				return renderDashboard(cmd, app, output, group.ID, false)
			}

			interval := app.Config.Firefight.RefreshInterval
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				if err := renderDashboard(cmd, app, output, group.ID, true); err != nil {
					output.Warning("Refresh failed: %v (retrying in %s)", err, interval)
				}
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "refresh continuously")
	return cmd
}

func renderDashboard(cmd *cobra.Command, app *App, output *Output, groupID string, clear bool) error {
	result, err := app.Refresher.RefreshGroup(cmd.Context(), groupID)
	if err != nil {
		return err
	}
	group, err := app.Registry.Group(groupID)
	if err != nil {
		return err
	}

	agg := stats.Compute(group)
	spec, _ := models.IndexFor(group.Instrument)
	sig := firefight.Evaluate(agg.AvgShortStrike, group.Buffer, spec.Step, result.Spot, agg.TotalPnL)

	var plan *firefight.Plan
	if sig.Breached() {
		p := firefight.BuildPlan(sig, spec.Step)
		plan = &p
	}

	if output.IsJSON() {
		return output.JSON(dashboardView{
			Group:     group,
			Stats:     agg,
			Refresh:   result,
			Signal:    sig,
			Plan:      plan,
			Market:    utils.GetMarketStatus(),
			Timestamp: time.Now().In(utils.IndiaLocation),
		})
	}

	if clear {
		// ANSI clear screen + home.
		output.Print("\033[2J\033[H")
	}

	printHeader(output, group, result)
	printLegs(output, group)
	printStats(output, agg, group)
	printSignal(output, sig, plan)
	return nil
}

func printHeader(output *Output, group *models.StrategyGroup, result trading.RefreshResult) {
	status := "CLOSED"
	clock := fmt.Sprintf("opens %s", utils.GetNextMarketOpen().Format("02-Jan 15:04"))
	if utils.IsMarketOpen() {
		status = "OPEN"
		clock = fmt.Sprintf("closes in %s", utils.TimeUntilMarketClose().Round(time.Minute))
	}
	output.Bold("%s  [%s]", group.Name, group.Instrument)
	line := fmt.Sprintf("Spot: %s   ATM: %s   Market: %s (%s)   %s",
		FormatPrice(result.Spot), FormatStrike(result.ATMStrike), status, clock,
		FormatTime(time.Now()))
	output.Dim("%s", line)
	output.Println()
}

func printLegs(output *Output, group *models.StrategyGroup) {
	if len(group.Legs) == 0 {
		output.Println("No legs. Add one with 'firefight leg add'.")
		output.Println()
		return
	}

	fallback := models.DefaultLotSize(group.Instrument)
	table := NewTable(output, "STATUS", "TAG", "SIDE", "TYPE", "STRIKE", "LOTS", "ENTRY", "LTP/EXIT", "P&L")
	for _, leg := range group.Legs {
		status := output.Green("●")
		if !leg.IsActive() {
			status = output.DimText("○")
		}
		price := leg.CurrentLTP
		if !leg.IsActive() {
			price = leg.ExitPrice
		}
		table.AddRow(
			status,
			string(leg.Tag),
			string(leg.Side),
			string(leg.OptionType),
			FormatStrike(leg.Strike),
			fmt.Sprintf("%d", leg.EffectiveLots()),
			FormatPrice(leg.EntryPremium),
			FormatPrice(price),
			output.FormatPnL(leg.PnL(fallback)),
		)
	}
	table.Render()
	output.Println()
}

func printStats(output *Output, agg stats.Aggregated, group *models.StrategyGroup) {
	output.Bold("Aggregates")
	output.Printf("  Total P&L:       %s  (realised %s, unrealised %s)\n",
		output.FormatPnL(agg.TotalPnL), output.FormatPnL(agg.RealisedPnL), output.FormatPnL(agg.UnrealisedPnL))
	output.Printf("  Net Delta:       %.2f\n", agg.NetDelta)
	output.Printf("  Net Theta:       %.2f\n", agg.NetTheta)
	output.Printf("  Net Credit:      %s\n", utils.FormatIndianCurrency(agg.NetCredit))
	if agg.AvgShortStrike > 0 {
		output.Printf("  Avg Short Strike: %s over %d lots\n", FormatStrike(agg.AvgShortStrike), agg.TotalShortLots)
	}
	output.Println()
}

func printSignal(output *Output, sig firefight.Signal, plan *firefight.Plan) {
	if !sig.Enabled {
		output.Dim("Firefighting disabled: no eligible short base legs")
		return
	}

	output.Bold("Safety Band")
	output.Printf("  %s  <  spot %s  <  %s   (buffer %.0f)\n",
		FormatStrike(sig.LowerTrigger), FormatPrice(sig.Spot), FormatStrike(sig.UpperTrigger), sig.Buffer)

	switch sig.Zone {
	case firefight.ZoneSafe:
		output.Success("  ✓ SAFE: spot inside the band")
	case firefight.ZoneBreachUp:
		output.Error("  ▲ BREACH UP: spot above the band")
	case firefight.ZoneBreachDown:
		output.Error("  ▼ BREACH DOWN: spot below the band")
	}

	if plan == nil {
		return
	}
	output.Println()
	output.Bold("Adjustment Plan")
	for _, action := range plan.Actions {
		marker := " "
		if action.Recommended {
			marker = output.Yellow("★")
		}
		target := FormatStrike(action.Strike)
		if action.OptionType != "" {
			target += " " + string(action.OptionType)
		}
		output.Printf("  %s %-11s @ %-10s %s\n", marker, action.Technique, target, output.DimText(action.Description))
	}
	output.Dim("  Execute with 'firefight fire <technique>'")
}
