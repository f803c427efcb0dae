package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/strategies"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Compare several strategies over the same ticks",
	Long: `Sweep runs every named strategy concurrently over one tick file (or one
set of --kline files), each with its own ledger, and prints one line per
strategy.

Example:
  backtester sweep -t data/ticks.csv --strategies noop,even-price,ema-cross`,
	RunE: runSweep,
}

var swStrategies []string

func init() {
	rootCmd.AddCommand(sweepCmd)
	addRunFlags(sweepCmd)

	sweepCmd.Flags().StringSliceVar(&swStrategies, "strategies", []string{"noop", "even-price", "ema-cross"}, "strategies to compare")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}

	ticks, err := loadTicks(cfg)
	if err != nil {
		return err
	}

	candidates := make([]backtest.Candidate, len(swStrategies))
	for i, name := range swStrategies {
		if _, ok := strategies.Get(name); !ok {
			return fmt.Errorf("unknown strategy %q", name)
		}
		candidates[i] = strategies.Candidate(name, cfg.Strategy.Params)
	}

	engine := backtest.NewEngine(cfg.Account.InitialCapital, backtest.WithLogger(appLog))
	results, err := engine.Sweep(cmd.Context(), ticks, candidates)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-16s %8s %8s %14s %10s %10s\n", "STRATEGY", "TRADES", "REJECTED", "FINAL EQUITY", "RETURN", "MAX DD")
	for _, r := range results {
		fmt.Fprintf(out, "%-16s %8d %8d %14.2f %+9.2f%% %9.2f%%\n",
			r.Name,
			r.Result.TradeCount,
			r.Result.Rejected,
			r.Result.FinalEquity,
			r.Result.TotalReturnPct,
			r.Result.MaxDrawdownPct,
		)
	}
	return nil
}
