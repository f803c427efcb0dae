package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query journaled backtest runs",
	Long: `Query and display backtest runs recorded in a SQLite journal.

Subcommands:
  runs  - List recent runs
  show  - Show one run with its trades

Examples:
  backtester journal runs -d runs.db
  backtester journal show <run-id> -d runs.db`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run summary and its trades",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalShowCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./backtest.sqlite", "path to SQLite journal DB")
	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "maximum runs to list (0 for all)")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListBacktestRuns(journalLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintln(out, journal.FormatRunLine(r))
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	run, err := j.GetBacktestRun(args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	trades, err := j.ListTradesByRunID(run.RunID)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	org, err := journal.FormatRunOrg(run)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, org)
	fmt.Fprintln(out, journal.FormatTradesOrg(trades))
	return nil
}
