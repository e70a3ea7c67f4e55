package cli

import (
	"github.com/spf13/cobra"

	apperrors "firefight-trader/internal/errors"
)

// addAuthCommands adds authentication commands.
func addAuthCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newLoginCmd(app))
	rootCmd.AddCommand(newLogoutCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))
}

func newLoginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Angel One SmartAPI",
		Long: `Authenticate with Angel One using the configured client code, PIN,
and TOTP secret. The session token is cached and reused until the
exchange invalidates it at the end of the trading day.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if app.Broker.IsAuthenticated() {
				if output.IsJSON() {
					return output.JSON(map[string]interface{}{"authenticated": true, "cached": true})
				}
				output.Success("✓ Already logged in (cached session)")
				return nil
			}

			if err := app.Broker.Login(cmd.Context()); err != nil {
				if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
					output.Error("Missing credentials. Set them in credentials.toml or via ANGELONE_* environment variables.")
				} else {
					output.Error("Login failed: %v", err)
				}
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"authenticated": true})
			}
			output.Success("✓ Logged in to Angel One")
			return nil
		},
	}
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the broker session",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Broker.Logout(cmd.Context()); err != nil {
				output.Error("Logout failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"authenticated": false})
			}
			output.Success("✓ Logged out")
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and data status",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			authenticated := app.Broker.IsAuthenticated()
			groups := app.Registry.Groups()
			active := 0
			for _, g := range groups {
				if g.IsActive() {
					active++
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"authenticated":  authenticated,
					"groups":         len(groups),
					"active_groups":  active,
					"selected_group": app.Registry.ActiveGroupID(),
					"data_file":      app.Store.Path(),
				})
			}

			if authenticated {
				output.Success("✓ Session active")
			} else {
				output.Warning("✗ Not logged in (run 'firefight login')")
			}
			output.Printf("Groups:    %d (%d active)\n", len(groups), active)
			if id := app.Registry.ActiveGroupID(); id != "" {
				if g, err := app.Registry.Group(id); err == nil {
					output.Printf("Selected:  %s (%s)\n", g.Name, g.Instrument)
				}
			}
			output.Dim("Data file: %s", app.Store.Path())
			return nil
		},
	}
}
