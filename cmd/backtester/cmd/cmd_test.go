package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags puts every flag back to its default. Cobra keeps flag values
// and Changed between Execute calls on the same command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			def := strings.Trim(f.DefValue, "[]")
			var vals []string
			if def != "" {
				vals = strings.Split(def, ",")
			}
			_ = sv.Replace(vals)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := run(t, append(args, "--log-level", "error")...)
	return out, err
}

func TestCLI_GenBacktestJournal(t *testing.T) {
	dir := t.TempDir()
	ticks := filepath.Join(dir, "ticks.csv")
	db := filepath.Join(dir, "runs.db")
	prom := filepath.Join(dir, "backtest.prom")
	org := filepath.Join(dir, "run.org")

	out, err := execute(t, "gen", "-o", ticks, "--days", "60", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 60 ticks")

	out, err = execute(t, "backtest", "-t", ticks, "-s", "always-buy", "-b", "1000",
		"-d", db, "--metrics-file", prom, "--org", org)
	require.NoError(t, err)
	assert.Contains(t, out, "Backtest Result")
	assert.Contains(t, out, "always-buy")
	assert.Contains(t, out, "Ticks:         60")

	raw, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "backtest_ticks_total 60")
	assert.Contains(t, string(raw), `backtest_runs_total{outcome="ok"} 1`)

	_, err = os.Stat(org)
	require.NoError(t, err)

	out, err = execute(t, "journal", "runs", "-d", db)
	require.NoError(t, err)
	assert.Contains(t, out, "always-buy")
	assert.Contains(t, out, ticks)
}

func TestCLI_Sweep(t *testing.T) {
	dir := t.TempDir()
	ticks := filepath.Join(dir, "ticks.csv")

	_, err := execute(t, "gen", "-o", ticks, "--days", "30", "--venues")
	require.NoError(t, err)

	out, err := execute(t, "sweep", "-t", ticks, "--strategies", "noop,even-price,cross-exchange")
	require.NoError(t, err)
	assert.Contains(t, out, "STRATEGY")
	assert.Contains(t, out, "noop")
	assert.Contains(t, out, "cross-exchange")

	_, err = execute(t, "sweep", "-t", ticks, "--strategies", "martingale")
	assert.Error(t, err)
}

func TestCLI_Config(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backtest.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "even-price")
}

func TestCLI_BacktestMissingFile(t *testing.T) {
	_, err := execute(t, "backtest", "-t", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestCLI_Version(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "backtester version "+version)
}

func TestCLI_LogLevelFromConfig(t *testing.T) {
	dir := t.TempDir()
	ticks := filepath.Join(dir, "ticks.csv")
	_, err := execute(t, "gen", "-o", ticks, "--days", "5")
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "debug.yaml")
	body := "log:\n  level: debug\n  console: false\nstrategy:\n  name: always-buy\n  quantity: 1\ndata:\n  ticks_file: " + ticks + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0644))

	_, stderr, err := run(t, "backtest", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, `"message":"order filled"`)

	// An explicit flag beats the file.
	_, stderr, err = run(t, "backtest", "-c", cfgPath, "--log-level", "warn")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "order filled")
}

const (
	cliBTCKlines = `1704067200000000,42000,42010,41990,42000,1.5,1704067259999000,63000,10,0.7,29400,0
1704067260000000,42000,42110,41990,42100,1.2,1704067319999000,50520,8,0.6,25260,0
1704067320000000,42100,42210,42090,42200,0.9,1704067379999000,37980,6,0.4,16880,0
`
	cliSOLKlines = `1704067200000000,99.5,100.2,99.4,100,30,1704067259999000,3000,12,15,1500,0
1704067260000000,100,101.3,99.9,101,25,1704067319999000,2525,9,10,1010,0
1704067320000000,101,102.1,100.8,102,20,1704067379999000,2040,7,11,1122,0
`
	cliSOLBTCKlines = `1704067200000,0.00237,0.00239,0.00236,0.00238,5,1704067259999,0.0119,3,2,0.00476,0
1704067320000,0.00240,0.00243,0.00240,0.00242,4,1704067379999,0.00968,2,1,0.00242,0
`
)

func klineArgs(t *testing.T, dir string) []string {
	t.Helper()
	var args []string
	for sym, body := range map[string]string{"BTCUSDT": cliBTCKlines, "SOLUSDT": cliSOLKlines, "SOLBTC": cliSOLBTCKlines} {
		path := filepath.Join(dir, sym+".csv")
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		args = append(args, "--kline", sym+"="+path)
	}
	return args
}

func TestCLI_BacktestKlines(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")

	args := append([]string{"backtest", "-s", "triangular", "--price-symbol", "SOLUSDT", "-d", db}, klineArgs(t, dir)...)
	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "triangular")
	// The SOLBTC file lacks the middle minute, so two ticks survive the join.
	assert.Contains(t, out, "Ticks:         2")

	out, err = execute(t, "journal", "runs", "-d", db)
	require.NoError(t, err)
	assert.Contains(t, out, "klines:")

	args = append([]string{"sweep", "--strategies", "noop,triangular"}, klineArgs(t, dir)...)
	out, err = execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "triangular")

	_, err = execute(t, "backtest", "--kline", "BTCUSDT")
	assert.Error(t, err)
}
