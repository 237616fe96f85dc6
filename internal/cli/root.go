// Package cli provides the command-line interface for the trading application.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"strategy-trader/internal/broker"
	"strategy-trader/internal/config"
	"strategy-trader/internal/logging"
	"strategy-trader/internal/session"
	"strategy-trader/internal/store"
	"strategy-trader/internal/strategy"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Registry  *strategy.Registry
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{
		Registry: strategy.DefaultRegistry(),
	}

	rootCmd := &cobra.Command{
		Use:   "strategy-trader",
		Short: "Strategy Trader - multi-strategy backtesting and paper trading CLI",
		Long: `Strategy Trader runs technical trading strategies against historical or
live candle data, aggregates their signals and simulates order execution
against a paper portfolio.

Use 'strategy-trader strategies' to list available strategies.
Use 'strategy-trader help <command>' for more information about a command.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.initialize,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/strategy-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newBacktestCmd(app))
	rootCmd.AddCommand(newPaperCmd(app))
	rootCmd.AddCommand(newSessionsCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newStrategiesCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func (app *App) initialize(cmd *cobra.Command, args []string) error {
	configDir, _ := cmd.Flags().GetString("config")
	if configDir == "" {
		configDir = config.DefaultConfigDir()
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	app.Config = cfg
	app.ConfigDir = configDir

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = false // command output owns the console
	logCfg.File = cfg.Logging.File
	logCfg.FilePath = filepath.Join(configDir, "logs", "trader.log")
	app.Logger = logging.NewLoggerWithConfig(logCfg)

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logging.SetDebugLevel()
		app.Logger = app.Logger.Level(zerolog.DebugLevel)
	}
	return nil
}

// openManager builds a session manager backed by the SQLite store. The
// returned closer must be called when the command finishes.
func (app *App) openManager(data broker.MarketData) (*session.Manager, func(), error) {
	st, err := store.NewSQLiteStore(app.Config.DBPath(app.ConfigDir))
	if err != nil {
		return nil, nil, fmt.Errorf("opening session store: %w", err)
	}

	manager, err := session.NewManager(st, data, app.Registry, app.Logger)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	closer := func() {
		manager.StopAll()
		st.Close()
	}
	return manager, closer, nil
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
				output.Printf("Strategy Trader v%s\n", Version)
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
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.ConfigDir})
			} else {
				output.Println(app.ConfigDir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Trading Defaults")
	output.Printf("  Resolution:      %s\n", cfg.Trading.Resolution)
	output.Printf("  Poll Interval:   %s\n", cfg.PollInterval())
	output.Println()

	output.Bold("Risk Configuration")
	output.Printf("  Initial Capital: %s\n", FormatIndianCurrency(cfg.Risk.InitialCapital))
	output.Printf("  Position Size:   %.1f%%\n", cfg.Risk.PositionSizePercent)
	output.Printf("  Stop Loss:       %.1f%%\n", cfg.Risk.StopLossPercent)
	output.Printf("  Target:          %.1f%%\n", cfg.Risk.TargetPercent)
	output.Printf("  Max Positions:   %d\n", cfg.Risk.MaxPositions)
	output.Printf("  Charge/Leg:      %s\n", FormatIndianCurrency(cfg.Risk.ChargePerTrade))
	output.Printf("  Slippage:        %.2f%%\n", cfg.Risk.SlippagePercent)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  File:            %v\n", cfg.Logging.File)
}
