package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"firefight-trader/internal/models"
)

// addMarketCommands adds quote refresh and market data commands.
func addMarketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRefreshCmd(app))
	rootCmd.AddCommand(newIndicesCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
	rootCmd.AddCommand(newInstrumentsCmd(app))
	rootCmd.AddCommand(newDashboardCmd(app))
}

func newRefreshCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [group]",
		Short: "Refresh spot and leg prices for a group",
		Long: `Fetch the index spot and every active leg's last-traded price in one
batched quote call and apply them to the group. Prices live in memory
for the session; they are not written to the data file.`,
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

			result, err := app.Refresher.RefreshGroup(cmd.Context(), group.ID)
			if err != nil {
				output.Error("Refresh failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			output.Success("✓ Refreshed %d legs for '%s'", result.LegsUpdated, group.Name)
			if result.Spot > 0 {
				output.Printf("%s spot: %s (ATM %s)\n", group.Instrument, FormatPrice(result.Spot), FormatStrike(result.ATMStrike))
			}
			return nil
		},
	}
}

func newIndicesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "indices",
		Short: "Show spot levels for all supported indices",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireAuth(cmd.Context(), app, output); err != nil {
				return err
			}

			levels, err := app.Refresher.RefreshIndices(cmd.Context())
			if err != nil {
				output.Error("Failed to fetch index levels: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(levels)
			}

			table := NewTable(output, "INDEX", "SPOT", "ATM STRIKE")
			for _, level := range levels {
				table.AddRow(level.Instrument, FormatPrice(level.Spot), FormatStrike(level.ATMStrike))
			}
			table.Render()
			return nil
		},
	}
}

func newChainCmd(app *App) *cobra.Command {
	var (
		instrument string
		expiry     string
		around     float64
		width      int
	)

	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Show the option chain for an index",
		Long: `Materialize the option chain for an index and expiry from the local
instrument cache. The cache is refreshed from the broker's scrip
master when stale.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Instruments == nil {
				output.Error("Instrument cache unavailable")
				return fmt.Errorf("instrument cache unavailable")
			}

			name := instrument
			if name == "" {
				if group, err := app.Registry.ActiveGroup(); err == nil {
					name = group.Instrument
				} else {
					name = "BANKNIFTY"
				}
			}

			var expiryTime time.Time
			if expiry != "" {
				parsed, err := time.Parse("2006-01-02", expiry)
				if err != nil {
					output.Error("Invalid expiry %q, want YYYY-MM-DD", expiry)
					return err
				}
				expiryTime = parsed
			}

			if err := app.Instruments.EnsureFresh(cmd.Context()); err != nil {
				output.Error("Instrument master unavailable: %v", err)
				return err
			}
			chain, err := app.Instruments.Chain(cmd.Context(), name, expiryTime)
			if err != nil {
				output.Error("Failed to build chain: %v", err)
				return err
			}

			strikes := chain.Strikes
			if around > 0 && width > 0 {
				strikes = windowStrikes(strikes, around, width)
			}

			if output.IsJSON() {
				return output.JSON(struct {
					Instrument string               `json:"instrument"`
					Expiry     string               `json:"expiry"`
					Strikes    []models.ChainStrike `json:"strikes"`
				}{chain.Instrument, chain.Expiry.Format("2006-01-02"), strikes})
			}

			output.Bold("%s option chain, expiry %s", chain.Instrument, FormatDate(chain.Expiry))
			table := NewTable(output, "CALL SYMBOL", "STRIKE", "PUT SYMBOL")
			for _, row := range strikes {
				table.AddRow(row.Call.Symbol, output.BoldText(FormatStrike(row.Strike)), row.Put.Symbol)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&instrument, "instrument", "i", "", "index (default: selected group's)")
	cmd.Flags().StringVar(&expiry, "expiry", "", "expiry YYYY-MM-DD (default nearest)")
	cmd.Flags().Float64Var(&around, "around", 0, "center the view on this strike")
	cmd.Flags().IntVar(&width, "width", 10, "strikes shown on each side of --around")
	return cmd
}

func newInstrumentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instruments",
		Short: "Instrument master cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Force a scrip master download",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Instruments == nil {
				output.Error("Instrument cache unavailable")
				return fmt.Errorf("instrument cache unavailable")
			}

			count, err := app.Instruments.Sync(cmd.Context())
			if err != nil {
				output.Error("Sync failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]int{"instruments": count})
			}
			output.Success("✓ Cached %d index option contracts", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "expiries [instrument]",
		Short: "List upcoming expiries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Instruments == nil {
				output.Error("Instrument cache unavailable")
				return fmt.Errorf("instrument cache unavailable")
			}

			name := "BANKNIFTY"
			if len(args) > 0 {
				name = args[0]
			} else if group, err := app.Registry.ActiveGroup(); err == nil {
				name = group.Instrument
			}

			expiries, err := app.Instruments.Expiries(cmd.Context(), name)
			if err != nil {
				output.Error("Failed to list expiries: %v", err)
				return err
			}
			if output.IsJSON() {
				out := make([]string, 0, len(expiries))
				for _, e := range expiries {
					out = append(out, e.Format("2006-01-02"))
				}
				return output.JSON(map[string]interface{}{"instrument": name, "expiries": out})
			}
			output.Bold("%s expiries", name)
			for _, e := range expiries {
				output.Printf("  %s\n", FormatDate(e))
			}
			return nil
		},
	})

	return cmd
}

// windowStrikes narrows a chain to width strikes on each side of center.
func windowStrikes(strikes []models.ChainStrike, center float64, width int) []models.ChainStrike {
	idx := 0
	best := -1.0
	for i, row := range strikes {
		d := row.Strike - center
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
			idx = i
		}
	}
	lo := idx - width
	if lo < 0 {
		lo = 0
	}
	hi := idx + width + 1
	if hi > len(strikes) {
		hi = len(strikes)
	}
	return strikes[lo:hi]
}

// requireAuth ensures the broker session is live before market data calls.
func requireAuth(ctx context.Context, app *App, output *Output) error {
	if app.Broker.IsAuthenticated() {
		return nil
	}
	if err := app.Broker.Login(ctx); err != nil {
		output.Error("Not logged in and auto-login failed: %v", err)
		return err
	}
	return nil
}
