package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "USD", cfg.Account.Currency)
	assert.Equal(t, 10000.0, cfg.Account.InitialCapital)
	assert.Equal(t, "even-price", cfg.Strategy.Name)
	assert.Equal(t, 1.0, cfg.Strategy.Quantity)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid config", func(c *Config) {}, ""},
		{"missing currency", func(c *Config) { c.Account.Currency = "" }, "account.currency is required"},
		{"zero capital", func(c *Config) { c.Account.InitialCapital = 0 }, "account.initial_capital must be positive"},
		{"negative capital", func(c *Config) { c.Account.InitialCapital = -1000 }, "account.initial_capital must be positive"},
		{"missing strategy", func(c *Config) { c.Strategy.Name = "" }, "strategy.name is required"},
		{"unknown strategy", func(c *Config) { c.Strategy.Name = "martingale" }, "unknown strategy"},
		{"negative quantity", func(c *Config) { c.Strategy.Quantity = -1 }, "strategy.quantity must not be negative"},
		{"negative threshold", func(c *Config) { c.Strategy.ThresholdPct = -0.1 }, "strategy.threshold_pct must not be negative"},
		{"bad from", func(c *Config) { c.Data.From = "yesterday" }, "data.from"},
		{"from after to", func(c *Config) {
			c.Data.From = "2024-02-01"
			c.Data.To = "2024-01-01"
		}, "data.from must be before data.to"},
		{"csv journal without files", func(c *Config) { c.Journal.Type = "csv" }, "required for CSV type"},
		{"sqlite journal without path", func(c *Config) { c.Journal.Type = "sqlite" }, "db_path required"},
		{"unknown journal", func(c *Config) { c.Journal.Type = "postgres" }, "journal.type must be"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"klines", func(c *Config) {
			c.Data.Klines = []KlineConfig{{"BTCUSDT", "btc.csv"}, {"SOLUSDT", "sol.csv"}}
			c.Data.PriceSymbol = "SOLUSDT"
		}, ""},
		{"kline without path", func(c *Config) { c.Data.Klines = []KlineConfig{{Symbol: "BTCUSDT"}} }, "data.klines[0]"},
		{"duplicate kline symbol", func(c *Config) {
			c.Data.Klines = []KlineConfig{{"BTCUSDT", "a.csv"}, {"BTCUSDT", "b.csv"}}
		}, "duplicate symbol"},
		{"price symbol without klines", func(c *Config) { c.Data.PriceSymbol = "BTCUSDT" }, "needs data.klines"},
		{"unknown price symbol", func(c *Config) {
			c.Data.Klines = []KlineConfig{{"BTCUSDT", "btc.csv"}}
			c.Data.PriceSymbol = "SOLBTC"
		}, "not in data.klines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDataRange(t *testing.T) {
	d := DataConfig{From: "2024-01-01", To: "2024-01-31T12:00:00Z"}
	from, to, err := d.Range()
	require.NoError(t, err)
	assert.Equal(t, 2024, from.Year())
	assert.Equal(t, 12, to.Hour())

	from, to, err = DataConfig{}.Range()
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Strategy.Name = "cross-exchange"
			cfg.Strategy.ThresholdPct = 0.75
			cfg.Strategy.VenueB = "coinbase"
			cfg.Journal = JournalConfig{Type: "sqlite", DBPath: "runs.db"}
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadFromFile_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy:\n  name: ema-cross\n  fast: 5\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ema-cross", cfg.Strategy.Name)
	assert.Equal(t, 5, cfg.Strategy.Fast)
	assert.Equal(t, 30, cfg.Strategy.Slow)
	assert.Equal(t, "USD", cfg.Account.Currency)
}

func TestLoadFromFile_Klines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "klines.yaml")
	body := `data:
  price_symbol: SOLUSDT
  klines:
    - symbol: BTCUSDT
      path: btc.csv
    - symbol: SOLUSDT
      path: sol.csv
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SOLUSDT", cfg.Data.PriceSymbol)
	require.Len(t, cfg.Data.Klines, 2)
	assert.Equal(t, KlineConfig{Symbol: "SOLUSDT", Path: "sol.csv"}, cfg.Data.Klines[1])

	src := cfg.Data.KlineSources()
	assert.Equal(t, "BTCUSDT", src[0].Symbol)
	assert.Equal(t, "btc.csv", src[0].Path)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("BACKTESTER_ACCOUNT_INITIAL_CAPITAL", "2500")
	t.Setenv("BACKTESTER_STRATEGY_NAME", "always-buy")

	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, 2500.0, cfg.Account.InitialCapital)
	assert.Equal(t, "always-buy", cfg.Strategy.Name)
}

func TestLoadFromFile_InvalidContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  initial_capital: -5\n"), 0644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
}
