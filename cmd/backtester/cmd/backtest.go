package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/metrics"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a strategy over a tick file",
	Long: `Backtest replays a tick CSV through one strategy and prints the result.

The CSV needs a timestamp column and a price (or close) column. Any other
columns are passed to the strategy as named fields.

With --kline the ticks come from Binance kline files instead, joined on
close time. Every symbol's close becomes a field named after the symbol and
the tick price is the close of --price-symbol (the first --kline by default).

Supported strategies:
  - noop: Never trades (baseline)
  - always-buy: Buys --qty on every tick while cash lasts
  - even-price: Buys 1 when the price is an even whole number
  - ema-cross: EMA crossover with --fast/--slow periods
  - cross-exchange: Trades the spread between --venue-a and --venue-b fields
  - triangular: Trades the BTCUSDT/SOLUSDT/SOLBTC triangle

Example:
  backtester backtest -t data/ticks.csv -s ema-cross --fast 10 --slow 30 -d runs.db
  backtester backtest -s triangular --price-symbol SOLUSDT \
    --kline BTCUSDT=data/BTCUSDT-1m.csv --kline SOLUSDT=data/SOLUSDT-1m.csv --kline SOLBTC=data/SOLBTC-1m.csv`,
	RunE: runBacktest,
}

var (
	btConfigPath  string
	btTicksPath   string
	btKlines      []string
	btPriceSymbol string
	btFrom        string
	btTo          string
	btCapital     float64
	btStrategy    string
	btQty         float64
	btFast        int
	btSlow        int
	btThreshold   float64
	btVenueA      string
	btVenueB      string
	btDBPath      string
	btJournalDir  string
	btOrgPath     string
	btMetricsFile string
	btRecent      int
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	addRunFlags(backtestCmd)

	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "even-price", "strategy name")
	backtestCmd.Flags().StringVarP(&btDBPath, "db", "d", "", "record the run in this SQLite journal")
	backtestCmd.Flags().StringVar(&btJournalDir, "journal-dir", "", "record the run as runs.csv, trades.csv and equity.csv in this directory")
	backtestCmd.Flags().StringVar(&btOrgPath, "org", "", "write an Org-mode run summary to this path")
	backtestCmd.Flags().StringVar(&btMetricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path")
	backtestCmd.Flags().IntVar(&btRecent, "recent", 10, "number of recent trades to print")
}

// addRunFlags registers the flags shared by backtest and sweep.
func addRunFlags(c *cobra.Command) {
	c.Flags().StringVarP(&btConfigPath, "config", "c", "", "config file (YAML or JSON)")
	c.Flags().StringVarP(&btTicksPath, "ticks", "t", "", "path to tick CSV")
	c.Flags().StringArrayVar(&btKlines, "kline", nil, "Binance kline file as SYMBOL=path (repeatable, replaces --ticks)")
	c.Flags().StringVar(&btPriceSymbol, "price-symbol", "", "kline symbol whose close is the tick price")
	c.Flags().StringVar(&btFrom, "from", "", "skip ticks before this time")
	c.Flags().StringVar(&btTo, "to", "", "skip ticks at or after this time")
	c.Flags().Float64VarP(&btCapital, "capital", "b", 10_000, "initial capital")
	c.Flags().Float64VarP(&btQty, "qty", "q", 1, "order quantity")
	c.Flags().IntVar(&btFast, "fast", 10, "ema-cross: fast EMA period")
	c.Flags().IntVar(&btSlow, "slow", 30, "ema-cross: slow EMA period")
	c.Flags().Float64Var(&btThreshold, "threshold", 0.5, "spread strategies: entry threshold in percent")
	c.Flags().StringVar(&btVenueA, "venue-a", "binance", "cross-exchange: first venue field")
	c.Flags().StringVar(&btVenueB, "venue-b", "kraken", "cross-exchange: second venue field")
}

// runConfig loads the config file (or defaults) and lays explicitly set
// flags over it.
func runConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFromFile(btConfigPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("ticks") {
		cfg.Data.TicksFile = btTicksPath
	}
	if f.Changed("kline") {
		cfg.Data.Klines = cfg.Data.Klines[:0]
		for _, raw := range btKlines {
			src, err := backtest.ParseKlineSource(raw)
			if err != nil {
				return nil, err
			}
			cfg.Data.Klines = append(cfg.Data.Klines, config.KlineConfig{Symbol: src.Symbol, Path: src.Path})
		}
	}
	if f.Changed("price-symbol") {
		cfg.Data.PriceSymbol = btPriceSymbol
	}
	if f.Changed("from") {
		cfg.Data.From = btFrom
	}
	if f.Changed("to") {
		cfg.Data.To = btTo
	}
	if f.Changed("capital") {
		cfg.Account.InitialCapital = btCapital
	}
	if f.Changed("strategy") {
		cfg.Strategy.Name = btStrategy
	}
	if f.Changed("qty") {
		cfg.Strategy.Quantity = btQty
	}
	if f.Changed("fast") {
		cfg.Strategy.Fast = btFast
	}
	if f.Changed("slow") {
		cfg.Strategy.Slow = btSlow
	}
	if f.Changed("threshold") {
		cfg.Strategy.ThresholdPct = btThreshold
	}
	if f.Changed("venue-a") {
		cfg.Strategy.VenueA = btVenueA
	}
	if f.Changed("venue-b") {
		cfg.Strategy.VenueB = btVenueB
	}
	if f.Changed("db") {
		cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: btDBPath}
	}
	if f.Changed("journal-dir") {
		cfg.Journal = config.JournalConfig{
			Type:       "csv",
			RunsFile:   filepath.Join(btJournalDir, "runs.csv"),
			TradesFile: filepath.Join(btJournalDir, "trades.csv"),
			EquityFile: filepath.Join(btJournalDir, "equity.csv"),
		}
	}
	if f.Changed("metrics-file") {
		cfg.Metrics.Textfile = btMetricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Log flags win over the config file only when set.
	if f.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if f.Changed("log-json") {
		cfg.Log.Console = !logJSON
	}
	appLog = newLogger(cfg.Log, cmd.ErrOrStderr())
	return cfg, nil
}

func loadTicks(cfg *config.Config) ([]market.Tick, error) {
	from, to, err := cfg.Data.Range()
	if err != nil {
		return nil, err
	}
	var feed backtest.TickFeed
	if len(cfg.Data.Klines) > 0 {
		feed, err = backtest.NewKlineFeed(cfg.Data.PriceSymbol, from, to, cfg.Data.KlineSources()...)
	} else {
		feed, err = backtest.NewCSVTicksFeed(cfg.Data.TicksFile, from, to)
	}
	if err != nil {
		return nil, fmt.Errorf("open ticks: %w", err)
	}
	return backtest.LoadTicks(feed)
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	case "csv":
		return journal.NewCSV(jc.RunsFile, jc.TradesFile, jc.EquityFile)
	}
	return nil, nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}

	ticks, err := loadTicks(cfg)
	if err != nil {
		return err
	}

	strat, err := strategies.StrategyByName(cfg.Strategy.Name, cfg.Strategy.Params)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	reg := prometheus.NewRegistry()
	engine := backtest.NewEngine(cfg.Account.InitialCapital,
		backtest.WithLogger(appLog),
		backtest.WithMetrics(metrics.New(reg)),
	)

	appLog.Info().
		Str("data", cfg.Data.Dataset()).
		Int("ticks", len(ticks)).
		Str("journal", cfg.Journal.Type).
		Msg("running backtest")

	res, err := engine.Run(cmd.Context(), ticks, strat)
	if errors.Is(err, backtest.ErrNoData) {
		appLog.Warn().Str("data", cfg.Data.Dataset()).Msg("no ticks in range")
	}
	if err != nil {
		return err
	}

	backtest.PrintResult(cmd.OutOrStdout(), res, btRecent)

	meta, err := runMeta(cfg)
	if err != nil {
		return err
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j != nil {
		defer j.Close()
		if err := backtest.Record(j, meta, res); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		appLog.Info().Str("run_id", meta.RunID).Msg("run journaled")
	}

	if btOrgPath != "" {
		if err := journal.WriteRunOrg(btOrgPath, res.BacktestRun(meta)); err != nil {
			return fmt.Errorf("write org: %w", err)
		}
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func runMeta(cfg *config.Config) (backtest.RunMeta, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return backtest.RunMeta{}, fmt.Errorf("marshal config: %w", err)
	}
	return backtest.RunMeta{
		RunID:   id.New(),
		Created: time.Now().UTC(),
		Dataset: cfg.Data.Dataset(),
		Config:  raw,
	}, nil
}
