package cli

import (
	"strings"

	"github.com/spf13/cobra"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
	"firefight-trader/internal/stats"
)

// addGroupCommands adds strategy group management commands.
func addGroupCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage strategy groups",
		Long:  "Create, select, and manage strategy groups. Each group tracks one strategy's legs as a unit.",
	}

	cmd.AddCommand(newGroupCreateCmd(app))
	cmd.AddCommand(newGroupListCmd(app))
	cmd.AddCommand(newGroupSelectCmd(app))
	cmd.AddCommand(newGroupDeleteCmd(app))
	cmd.AddCommand(newGroupCloseCmd(app))
	cmd.AddCommand(newGroupBufferCmd(app))

	rootCmd.AddCommand(cmd)
}

func newGroupCreateCmd(app *App) *cobra.Command {
	var instrument string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new strategy group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			group, err := app.Registry.CreateGroup(args[0], strings.ToUpper(instrument))
			if err != nil {
				output.Error("Failed to create group: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(group)
			}
			output.Success("✓ Created group '%s' on %s", group.Name, group.Instrument)
			output.Dim("ID: %s", group.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&instrument, "instrument", "i", "BANKNIFTY",
		"underlying index ("+strings.Join(models.SupportedIndices(), ", ")+")")
	return cmd
}

func newGroupListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List strategy groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			groups := app.Registry.Groups()
			if !all {
				groups = app.Registry.GroupsByStatus(models.GroupActive)
			}

			if output.IsJSON() {
				return output.JSON(groups)
			}

			if len(groups) == 0 {
				output.Println("No strategy groups. Create one with 'firefight group create'.")
				return nil
			}

			selected := app.Registry.ActiveGroupID()
			table := NewTable(output, "", "NAME", "INSTRUMENT", "STATUS", "LEGS", "P&L", "ID")
			for _, g := range groups {
				marker := " "
				if g.ID == selected {
					marker = output.Cyan("▶")
				}
				agg := stats.Compute(g)
				status := string(g.Status)
				if g.IsActive() {
					status = output.Green(status)
				} else {
					status = output.DimText(status)
				}
				table.AddRow(
					marker,
					g.Name,
					g.Instrument,
					status,
					FormatStrike(float64(len(g.ActiveLegs())))+"/"+FormatStrike(float64(len(g.Legs))),
					output.FormatPnL(agg.TotalPnL),
					output.DimText(TruncateString(g.ID, 8)),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include closed groups")
	return cmd
}

func newGroupSelectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "select <id|name>",
		Short: "Select the working strategy group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			group, err := resolveGroup(app, args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if err := app.Registry.SelectGroup(group.ID); err != nil {
				output.Error("Failed to select group: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"selected": group.ID})
			}
			output.Success("✓ Selected '%s' (%s)", group.Name, group.Instrument)
			return nil
		},
	}
}

func newGroupDeleteCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a strategy group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			group, err := resolveGroup(app, args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if !force && len(group.ActiveLegs()) > 0 {
				output.Warning("Group '%s' has %d active legs. Use --force to delete anyway.", group.Name, len(group.ActiveLegs()))
				return apperrors.NewValidationError("group", group.Name, "group has active legs")
			}

			if err := app.Registry.DeleteGroup(group.ID); err != nil {
				output.Error("Failed to delete group: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": group.ID})
			}
			output.Success("✓ Deleted group '%s'", group.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete even with active legs")
	return cmd
}

func newGroupCloseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "close [id|name]",
		Short: "Close all active legs and mark the group closed",
		Long: `Close every active leg at its last refreshed price and mark the group
closed. Run 'firefight refresh' first so exits freeze current prices.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			group, err := targetGroup(app, args)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			if err := app.Registry.CloseAllLegs(group.ID); err != nil {
				output.Error("Failed to close group: %v", err)
				return err
			}

			agg := stats.Compute(group)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"closed":    group.ID,
					"total_pnl": agg.TotalPnL,
				})
			}
			output.Success("✓ Closed group '%s'", group.Name)
			output.Printf("Final P&L: %s\n", output.FormatPnL(agg.TotalPnL))
			return nil
		},
	}
}

func newGroupBufferCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "buffer <points>",
		Short: "Set the firefighting buffer for the selected group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			group, err := app.Registry.ActiveGroup()
			if err != nil {
				output.Error("No group selected")
				return err
			}

			buffer, err := parseFloatArg(args[0], "buffer")
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if err := app.Registry.SetBuffer(group.ID, buffer); err != nil {
				output.Error("Failed to set buffer: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"group": group.ID, "buffer": buffer})
			}
			output.Success("✓ Buffer for '%s' set to %.0f pts", group.Name, buffer)
			return nil
		},
	}
}

// resolveGroup finds a group by id prefix or exact name.
func resolveGroup(app *App, ref string) (*models.StrategyGroup, error) {
	if group, err := app.Registry.Group(ref); err == nil {
		return group, nil
	}
	var match *models.StrategyGroup
	for _, g := range app.Registry.Groups() {
		if g.Name == ref || strings.HasPrefix(g.ID, ref) {
			if match != nil {
				return nil, apperrors.NewValidationError("group", ref, "ambiguous group reference")
			}
			match = g
		}
	}
	if match == nil {
		return nil, apperrors.ErrGroupNotFound
	}
	return match, nil
}

// targetGroup resolves the optional positional group argument, falling
// back to the current selection.
func targetGroup(app *App, args []string) (*models.StrategyGroup, error) {
	if len(args) > 0 {
		return resolveGroup(app, args[0])
	}
	return app.Registry.ActiveGroup()
}
