package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// addHistoryCommands adds trade history commands.
func addHistoryCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Trade history audit log",
	}

	cmd.AddCommand(newHistoryShowCmd(app))
	cmd.AddCommand(newHistoryClearCmd(app))

	rootCmd.AddCommand(cmd)
}

func newHistoryShowCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show recent history entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			entries := app.Registry.History()
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			if output.IsJSON() {
				return output.JSON(entries)
			}

			if len(entries) == 0 {
				output.Println("No history yet.")
				return nil
			}
			for _, entry := range entries {
				output.Println(entry)
			}
			output.Dim("%s entries shown", strconv.Itoa(len(entries)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max entries to show (0 for all)")
	return cmd
}

func newHistoryClearCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the trade history",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if !yes {
				output.Warning("This permanently clears the audit log. Re-run with --yes to confirm.")
				return nil
			}
			app.Registry.ClearHistory()
			if output.IsJSON() {
				return output.JSON(map[string]bool{"cleared": true})
			}
			output.Success("✓ History cleared")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the clear")
	return cmd
}
