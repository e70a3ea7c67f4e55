package cli

import (
	"github.com/spf13/cobra"

	apperrors "firefight-trader/internal/errors"
)

// addExportCommands adds CSV export commands.
func addExportCommands(rootCmd *cobra.Command, app *App) {
	var groupRef string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export strategy groups to CSV",
		Long: `Export closed strategy groups to CSV files for post-trade review, one
file per group. With --group a single group is exported regardless of
its status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if groupRef != "" {
				group, err := resolveGroup(app, groupRef)
				if err != nil {
					output.Error("%v", err)
					return err
				}
				path, err := app.Exporter.ExportGroup(group)
				if err != nil {
					output.Error("Export failed: %v", err)
					return err
				}
				if output.IsJSON() {
					return output.JSON(map[string]interface{}{"files": []string{path}})
				}
				output.Success("✓ Exported '%s'", group.Name)
				output.Dim("%s", path)
				return nil
			}

			paths, err := app.Exporter.ExportClosed(app.Registry.Groups())
			if err != nil {
				if apperrors.Is(err, apperrors.ErrNoClosedGroups) {
					output.Warning("No closed groups to export")
					return nil
				}
				output.Error("Export failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"files": paths})
			}
			output.Success("✓ Exported %d group(s)", len(paths))
			for _, path := range paths {
				output.Dim("%s", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&groupRef, "group", "g", "", "export a single group by id or name")
	rootCmd.AddCommand(cmd)
}
