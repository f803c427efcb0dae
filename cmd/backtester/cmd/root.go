package cmd

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Replay price ticks through trading strategies",
	Long: `Backtester replays historical or synthetic price ticks through a
trading strategy and a cash/position ledger, then reports total return and
maximum drawdown.

It provides tools for:
  - Backtesting built-in strategies against tick CSV files
  - Comparing several strategies over the same data
  - Generating deterministic synthetic tick data
  - Journaling runs, trades and equity curves to SQLite or CSV

Complete documentation is available at https://github.com/rustyeddy/backtester`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		appLog = newLogger(config.LogConfig{Level: logLevel, Console: !logJSON}, cmd.ErrOrStderr())
	},
}

var (
	logLevel string
	logJSON  bool

	appLog = zerolog.Nop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write JSON logs instead of console output")
}

func newLogger(lc config.LogConfig, w io.Writer) zerolog.Logger {
	if lc.Console {
		return logger.Console(lc.Level, w)
	}
	return logger.New(lc.Level, w)
}
