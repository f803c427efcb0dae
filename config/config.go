package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/strategies"
)

// EnvPrefix prefixes environment overrides, e.g.
// BACKTESTER_ACCOUNT_INITIAL_CAPITAL=5000.
const EnvPrefix = "BACKTESTER"

// Config represents a complete backtest run configuration
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account" mapstructure:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy" mapstructure:"strategy"`
	Data     DataConfig     `json:"data" yaml:"data" mapstructure:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal" mapstructure:"journal"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID             string  `json:"id" yaml:"id" mapstructure:"id"`
	Currency       string  `json:"currency" yaml:"currency" mapstructure:"currency"`
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital" mapstructure:"initial_capital"`
}

// StrategyConfig names a registered strategy and its parameters
type StrategyConfig struct {
	Name              string `json:"name" yaml:"name" mapstructure:"name"`
	strategies.Params `yaml:",inline" mapstructure:",squash"`
}

// DataConfig locates the tick file and the optional [from, to) window
type DataConfig struct {
	TicksFile string `json:"ticks_file" yaml:"ticks_file" mapstructure:"ticks_file"`
	From      string `json:"from,omitempty" yaml:"from,omitempty" mapstructure:"from"`
	To        string `json:"to,omitempty" yaml:"to,omitempty" mapstructure:"to"`

	// Klines replaces TicksFile with Binance kline files joined on close time.
	Klines      []KlineConfig `json:"klines,omitempty" yaml:"klines,omitempty" mapstructure:"klines"`
	PriceSymbol string        `json:"price_symbol,omitempty" yaml:"price_symbol,omitempty" mapstructure:"price_symbol"`
}

// KlineConfig is one symbol's kline file.
type KlineConfig struct {
	Symbol string `json:"symbol" yaml:"symbol" mapstructure:"symbol"`
	Path   string `json:"path" yaml:"path" mapstructure:"path"`
}

// Dataset names the data source for run records: the tick file, or
// "klines:SYM=path,..." when klines are set.
func (d DataConfig) Dataset() string {
	if len(d.Klines) == 0 {
		return d.TicksFile
	}
	parts := make([]string, len(d.Klines))
	for i, k := range d.Klines {
		parts[i] = k.Symbol + "=" + k.Path
	}
	return "klines:" + strings.Join(parts, ",")
}

// KlineSources converts Klines for backtest.NewKlineFeed.
func (d DataConfig) KlineSources() []backtest.KlineSource {
	out := make([]backtest.KlineSource, len(d.Klines))
	for i, k := range d.Klines {
		out[i] = backtest.KlineSource{Symbol: k.Symbol, Path: k.Path}
	}
	return out
}

// Range parses From and To. Empty values give zero times.
func (d DataConfig) Range() (from, to time.Time, err error) {
	if d.From != "" {
		if from, err = backtest.ParseTime(d.From); err != nil {
			return from, to, fmt.Errorf("data.from: %w", err)
		}
	}
	if d.To != "" {
		if to, err = backtest.ParseTime(d.To); err != nil {
			return from, to, fmt.Errorf("data.to: %w", err)
		}
	}
	return from, to, nil
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type" mapstructure:"type"` // "none", "csv" or "sqlite"
	RunsFile   string `json:"runs_file,omitempty" yaml:"runs_file,omitempty" mapstructure:"runs_file"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty" mapstructure:"trades_file"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty" mapstructure:"equity_file"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty" mapstructure:"db_path"`
}

type LogConfig struct {
	Level   string `json:"level" yaml:"level" mapstructure:"level"`
	Console bool   `json:"console" yaml:"console" mapstructure:"console"`
}

type MetricsConfig struct {
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty" mapstructure:"textfile"`
}

// LoadFromFile loads configuration from a YAML or JSON file, applies
// BACKTESTER_* environment overrides and validates the result. An empty
// path loads the defaults plus environment.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("account.id", d.Account.ID)
	v.SetDefault("account.currency", d.Account.Currency)
	v.SetDefault("account.initial_capital", d.Account.InitialCapital)

	v.SetDefault("strategy.name", d.Strategy.Name)
	v.SetDefault("strategy.quantity", d.Strategy.Quantity)
	v.SetDefault("strategy.fast", d.Strategy.Fast)
	v.SetDefault("strategy.slow", d.Strategy.Slow)
	v.SetDefault("strategy.threshold_pct", d.Strategy.ThresholdPct)
	v.SetDefault("strategy.venue_a", d.Strategy.VenueA)
	v.SetDefault("strategy.venue_b", d.Strategy.VenueB)
	v.SetDefault("strategy.btc_usdt", d.Strategy.BTCUSDT)
	v.SetDefault("strategy.sol_usdt", d.Strategy.SOLUSDT)
	v.SetDefault("strategy.sol_btc", d.Strategy.SOLBTC)

	v.SetDefault("data.ticks_file", d.Data.TicksFile)
	v.SetDefault("data.from", d.Data.From)
	v.SetDefault("data.to", d.Data.To)
	v.SetDefault("data.price_symbol", d.Data.PriceSymbol)

	v.SetDefault("journal.type", d.Journal.Type)
	v.SetDefault("journal.runs_file", d.Journal.RunsFile)
	v.SetDefault("journal.trades_file", d.Journal.TradesFile)
	v.SetDefault("journal.equity_file", d.Journal.EquityFile)
	v.SetDefault("journal.db_path", d.Journal.DBPath)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return errors.New("account.currency is required")
	}
	if !(c.Account.InitialCapital > 0) || math.IsInf(c.Account.InitialCapital, 0) {
		return errors.New("account.initial_capital must be positive")
	}

	if c.Strategy.Name == "" {
		return errors.New("strategy.name is required")
	}
	if _, ok := strategies.Get(c.Strategy.Name); !ok {
		return fmt.Errorf("unknown strategy: %s", c.Strategy.Name)
	}
	if q := c.Strategy.Quantity; q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return errors.New("strategy.quantity must not be negative")
	}
	if c.Strategy.ThresholdPct < 0 {
		return errors.New("strategy.threshold_pct must not be negative")
	}

	from, to, err := c.Data.Range()
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return errors.New("data.from must be before data.to")
	}
	if err := c.Data.validateKlines(); err != nil {
		return err
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.RunsFile == "" || c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return errors.New("journal runs_file, trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return errors.New("journal db_path required for SQLite type")
		}
	default:
		return errors.New("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:             "BT-001",
			Currency:       "USD",
			InitialCapital: 10000,
		},
		Strategy: StrategyConfig{
			Name:   "even-price",
			Params: strategies.DefaultParams(),
		},
		Data: DataConfig{
			TicksFile: "./ticks.csv",
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

func (d DataConfig) validateKlines() error {
	if len(d.Klines) == 0 {
		if d.PriceSymbol != "" {
			return errors.New("data.price_symbol needs data.klines")
		}
		return nil
	}
	seen := make(map[string]bool, len(d.Klines))
	for i, k := range d.Klines {
		if k.Symbol == "" || k.Path == "" {
			return fmt.Errorf("data.klines[%d]: symbol and path are required", i)
		}
		if seen[k.Symbol] {
			return fmt.Errorf("data.klines: duplicate symbol %s", k.Symbol)
		}
		seen[k.Symbol] = true
	}
	if d.PriceSymbol != "" && !seen[d.PriceSymbol] {
		return fmt.Errorf("data.price_symbol %s is not in data.klines", d.PriceSymbol)
	}
	return nil
}
