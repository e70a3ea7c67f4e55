package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"firefight-trader/internal/broker"
	"firefight-trader/internal/config"
	"firefight-trader/internal/export"
	"firefight-trader/internal/logging"
	"firefight-trader/internal/registry"
	"firefight-trader/internal/store"
	"firefight-trader/internal/trading"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Broker      broker.Broker
	Registry    *registry.Registry
	Refresher   *trading.Refresher
	Instruments *trading.InstrumentService
	Store       *store.JSONStore
	Exporter    *export.Exporter
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	app.Broker = broker.NewAngelOneBroker(broker.AngelOneConfig{
		APIKey:      cfg.Credentials.AngelOne.APIKey,
		ClientID:    cfg.Credentials.AngelOne.ClientID,
		PIN:         cfg.Credentials.AngelOne.PIN,
		TOTPSecret:  cfg.Credentials.AngelOne.TOTPSecret,
		SessionPath: filepath.Join(cfg.Data.Dir, "session.json"),
	})

	app.Store = store.NewJSONStore(cfg.Data.StrategyFile, logger)
	groups, history, err := app.Store.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load strategy data, starting empty")
	}
	app.Registry = registry.New(groups, history, app.Store, logger)

	if cache, err := store.NewInstrumentCache(cfg.Data.InstrumentDB); err != nil {
		logger.Warn().Err(err).Msg("Failed to open instrument cache, chain features unavailable")
	} else {
		app.Instruments = trading.NewInstrumentService(app.Broker, cache, cfg.InstrumentTTL(), logger)
	}

	app.Refresher = trading.NewRefresher(app.Broker, app.Registry, logger)
	app.Exporter = export.NewExporter(cfg.Data.ExportDir, logger)

	rootCmd := &cobra.Command{
		Use:   "firefight",
		Short: "Options firefighting dashboard for Indian index strategies",
		Long: `Firefight is a terminal dashboard for managing short option strategies
on NIFTY, BANKNIFTY, and FINNIFTY.

It tracks strategy groups and their legs, aggregates P&L and Greeks,
and advises breach adjustments: shift base, averaging, reference
hedges, and range extensions.

Use 'firefight help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/firefight)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	addAuthCommands(rootCmd, app)
	addGroupCommands(rootCmd, app)
	addLegCommands(rootCmd, app)
	addMarketCommands(rootCmd, app)
	addFirefightCommands(rootCmd, app)
	rootCmd.AddCommand(newHedgeCmd(app))
	addHistoryCommands(rootCmd, app)
	addExportCommands(rootCmd, app)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Firefight v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Data")
	output.Printf("  Directory:       %s\n", cfg.Data.Dir)
	output.Printf("  Strategy File:   %s\n", cfg.Data.StrategyFile)
	output.Printf("  Instrument DB:   %s\n", cfg.Data.InstrumentDB)
	output.Printf("  Instrument TTL:  %s\n", cfg.InstrumentTTL())
	output.Printf("  Export Dir:      %s\n", cfg.Data.ExportDir)
	output.Println()

	output.Bold("Firefighting")
	output.Printf("  Default Buffer:  %.0f pts\n", cfg.Firefight.DefaultBuffer)
	output.Printf("  Refresh Every:   %s\n", cfg.Firefight.RefreshInterval)
	output.Println()

	output.Bold("Credentials")
	output.Printf("  Angel One Client: %s\n", maskValue(cfg.Credentials.AngelOne.ClientID))
	output.Printf("  API Key Set:      %v\n", cfg.Credentials.AngelOne.APIKey != "")
	output.Printf("  TOTP Secret Set:  %v\n", cfg.Credentials.AngelOne.TOTPSecret != "")

	return nil
}

func maskValue(v string) string {
	if len(v) <= 2 {
		return "(not set)"
	}
	return v[:2] + "****"
}
