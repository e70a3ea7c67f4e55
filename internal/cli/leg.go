package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
)

// addLegCommands adds leg management commands.
func addLegCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "leg",
		Short: "Manage option legs in the selected group",
	}

	cmd.AddCommand(newLegAddCmd(app))
	cmd.AddCommand(newLegUpdateCmd(app))
	cmd.AddCommand(newLegExitCmd(app))

	rootCmd.AddCommand(cmd)
}

func newLegAddCmd(app *App) *cobra.Command {
	var (
		side    string
		optType string
		strike  float64
		lots    int
		entry   float64
		tag     string
		expiry  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a leg to the selected group",
		Long: `Add an option leg to the selected group. When the instrument cache is
available the contract identity (symbol, token, lot size) is resolved
automatically; otherwise the leg is recorded without it and quote
refresh will skip it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			group, err := app.Registry.ActiveGroup()
			if err != nil {
				output.Error("No group selected. Create or select one first.")
				return err
			}

			legSide, legType, err := parseSideType(side, optType)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if strike <= 0 {
				err := apperrors.NewValidationError("strike", strike, "strike must be positive")
				output.Error("%v", err)
				return err
			}

			contract, err := resolveContract(cmd, app, output, group.Instrument, expiry, strike, legType)
			if err != nil {
				output.Error("Contract not resolved: %v", err)
				return err
			}

			leg, err := app.Registry.AddLeg(group.ID, legSide, legType, strike, lots, entry, contract, models.StrategyTag(tag))
			if err != nil {
				output.Error("Failed to add leg: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(leg)
			}
			output.Success("✓ Added %s %v %s to '%s'", leg.Side, FormatStrike(leg.Strike), leg.OptionType, group.Name)
			output.Dim("Leg ID: %s", leg.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&side, "side", "s", "short", "short or long")
	cmd.Flags().StringVarP(&optType, "type", "t", "", "CE or PE (required)")
	cmd.Flags().Float64VarP(&strike, "strike", "k", 0, "strike price (required)")
	cmd.Flags().IntVarP(&lots, "lots", "l", 0, "lot count (default 1)")
	cmd.Flags().Float64VarP(&entry, "entry", "e", 0, "entry premium")
	cmd.Flags().StringVar(&tag, "tag", "", "strategy tag (default base_trade)")
	cmd.Flags().StringVar(&expiry, "expiry", "", "contract expiry YYYY-MM-DD (default nearest)")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("strike")
	return cmd
}

func newLegUpdateCmd(app *App) *cobra.Command {
	var (
		lots  int
		entry float64
		tag   string
	)

	cmd := &cobra.Command{
		Use:   "update <leg-id>",
		Short: "Update an active leg's lots, entry premium, or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			group, leg, err := findLeg(app, args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}

			newLots := leg.EffectiveLots()
			if cmd.Flags().Changed("lots") {
				newLots = lots
			}
			newEntry := leg.EntryPremium
			if cmd.Flags().Changed("entry") {
				newEntry = entry
			}
			newTag := leg.Tag
			if cmd.Flags().Changed("tag") {
				newTag = models.StrategyTag(tag)
			}

			if err := app.Registry.UpdateLeg(group.ID, leg.ID, newLots, newEntry, newTag); err != nil {
				output.Error("Failed to update leg: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(leg)
			}
			output.Success("✓ Updated %v %s: %d lots @ %s", FormatStrike(leg.Strike), leg.OptionType, leg.EffectiveLots(), FormatPrice(leg.EntryPremium))
			return nil
		},
	}

	cmd.Flags().IntVarP(&lots, "lots", "l", 0, "new lot count")
	cmd.Flags().Float64VarP(&entry, "entry", "e", 0, "new entry premium")
	cmd.Flags().StringVar(&tag, "tag", "", "new strategy tag")
	return cmd
}

func newLegExitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "exit <leg-id>",
		Short: "Exit a leg at its last refreshed price",
		Long: `Close a leg, freezing its last refreshed LTP as the exit price. Run
'firefight refresh' first so the exit reflects the current market.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			group, leg, err := findLeg(app, args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if leg.CurrentLTP == 0 {
				output.Warning("Leg has no refreshed price; exit will be recorded at 0.00")
			}

			if err := app.Registry.ExitLeg(group.ID, leg.ID); err != nil {
				output.Error("Failed to exit leg: %v", err)
				return err
			}

			fallback := models.DefaultLotSize(group.Instrument)
			if output.IsJSON() {
				return output.JSON(leg)
			}
			output.Success("✓ Exited %v %s @ %s", FormatStrike(leg.Strike), leg.OptionType, FormatPrice(leg.ExitPrice))
			output.Printf("Leg P&L: %s\n", output.FormatPnL(leg.PnL(fallback)))
			return nil
		},
	}
}

// findLeg locates a leg by id prefix across the selected group first,
// then every other group.
func findLeg(app *App, ref string) (*models.StrategyGroup, *models.Leg, error) {
	var groups []*models.StrategyGroup
	if selected, err := app.Registry.ActiveGroup(); err == nil {
		groups = append(groups, selected)
	}
	for _, g := range app.Registry.Groups() {
		if len(groups) > 0 && g.ID == groups[0].ID {
			continue
		}
		groups = append(groups, g)
	}

	for _, g := range groups {
		for _, l := range g.Legs {
			if l.ID == ref || strings.HasPrefix(l.ID, ref) {
				return g, l, nil
			}
		}
	}
	return nil, nil, apperrors.ErrLegNotFound
}

// parseSideType validates the side and option type flags.
func parseSideType(side, optType string) (models.Side, models.OptionType, error) {
	var legSide models.Side
	switch strings.ToLower(side) {
	case "short", "s", "sell":
		legSide = models.SideShort
	case "long", "l", "buy":
		legSide = models.SideLong
	default:
		return "", "", apperrors.NewValidationError("side", side, "must be short or long")
	}

	var legType models.OptionType
	switch strings.ToUpper(optType) {
	case "CE", "CALL", "C":
		legType = models.OptionCall
	case "PE", "PUT", "P":
		legType = models.OptionPut
	default:
		return "", "", apperrors.NewValidationError("type", optType, "must be CE or PE")
	}
	return legSide, legType, nil
}

// resolveContract looks up the contract identity. Without an instrument
// cache the leg is recorded bare; with one, a failed resolution aborts
// the add so no leg is created for a contract that does not exist.
func resolveContract(cmd *cobra.Command, app *App, output *Output, instrument, expiry string, strike float64, optType models.OptionType) (models.Contract, error) {
	if app.Instruments == nil {
		output.Warning("Instrument cache unavailable; leg recorded without market identity")
		return models.Contract{}, nil
	}

	var expiryTime time.Time
	if expiry != "" {
		parsed, err := time.Parse("2006-01-02", expiry)
		if err != nil {
			return models.Contract{}, apperrors.NewValidationError("expiry", expiry, "must be YYYY-MM-DD")
		}
		expiryTime = parsed
	}

	if err := app.Instruments.EnsureFresh(cmd.Context()); err != nil {
		return models.Contract{}, err
	}
	return app.Instruments.Contract(cmd.Context(), instrument, expiryTime, strike, optType)
}
