// Package cli provides the command-line interface for the trading journal.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/config"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/logging"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/profile"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *profile.Registry
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger, registry *profile.Registry) *cobra.Command {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
	}

	rootCmd := &cobra.Command{
		Use:   "companion",
		Short: "Trading Companion - execution-first trading journal",
		Long: `Trading Companion is a trading journal built around raw executions.

Record fills as they happen; trades, averages and P&L are derived
automatically. Stops, targets, notes, tags, attachments and reviews
hang off the derived trades.

Use 'companion help <command>' for more information about a command.`,
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

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trading-companion)")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "profile name or id")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	addProfileCommands(rootCmd, app)
	addExecutionCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addSupplementalCommands(rootCmd, app)
	addReviewCommands(rootCmd, app)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Trading Companion v%s\n", Version)
			}
		},
	}
}

// record resolves the --profile flag to an open record. The flag value
// matches either a profile id or a profile name.
func (a *App) record(cmd *cobra.Command) (*profile.Record, error) {
	selector, _ := cmd.Flags().GetString("profile")
	ctx := cmd.Context()

	if selector == "" {
		profiles, err := a.Registry.List(ctx)
		if err != nil {
			return nil, err
		}
		if len(profiles) != 1 {
			return nil, fmt.Errorf("select a profile with --profile (have %d profiles)", len(profiles))
		}
		return a.Registry.Record(ctx, profiles[0].ID)
	}

	if _, err := a.Registry.Get(ctx, selector); err == nil {
		return a.Registry.Record(ctx, selector)
	}

	profiles, err := a.Registry.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.Name == selector {
			return a.Registry.Record(ctx, p.ID)
		}
	}
	return nil, fmt.Errorf("no profile matches %q", selector)
}
