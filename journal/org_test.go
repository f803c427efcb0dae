package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRunOrg(t *testing.T) {
	t.Parallel()

	r := sampleRun("01HZXAMPLE", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	r.Notes = []string{"buys every tick"}

	out, err := FormatRunOrg(r)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "* BACKTEST: always-buy data/sample.csv"))
	assert.Contains(t, out, ":RUN_ID:      01HZXAMPLE")
	assert.Contains(t, out, ":START_DATE:  2024-01-01")
	assert.Contains(t, out, ":END_DATE:    2024-01-04")
	assert.Contains(t, out, ":START_CAP:   10000.00")
	assert.Contains(t, out, ":END_EQUITY:  10003.00")
	assert.Contains(t, out, ":RETURN_PCT:  0.03")
	assert.Contains(t, out, ":CREATED:     [2024-05-01 Wed 12:00]")
	assert.Contains(t, out, "#+begin_src yaml")
	assert.Contains(t, out, "name: always-buy")
	assert.Contains(t, out, "** Observations")
	assert.Contains(t, out, "- buys every tick")
}

func TestFormatRunOrgPlaceholders(t *testing.T) {
	t.Parallel()

	out, err := FormatRunOrg(BacktestRun{Strategy: "noop"})
	require.NoError(t, err)
	assert.Contains(t, out, "(run-id?)")
	assert.Contains(t, out, "(dataset?)")
	assert.NotContains(t, out, "** Configuration")
	assert.NotContains(t, out, "** Observations")
}

func TestWriteRunOrg(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, WriteRunOrg(path, sampleRun("R1", time.Now())))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), ":RUN_ID:      R1")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)
	out := FormatTradesOrg([]TradeRecord{
		{RunID: "R", Seq: 1, Time: ts, Side: "buy", Price: 100, Quantity: 1, CashDelta: -100},
		{RunID: "R", Seq: 2, Time: ts.Add(time.Hour), Side: "sell", Price: 101, Quantity: 1, CashDelta: 101},
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| 1 | 2024-03-15T10:30:45Z | BUY | 100.00000 | 1 | -100.00 |", lines[2])
	assert.Contains(t, lines[3], "SELL")
}

func TestFormatRunLine(t *testing.T) {
	t.Parallel()

	line := FormatRunLine(sampleRun("0123456789ABCDEF", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	assert.True(t, strings.HasPrefix(line, "01234567  2024-05-01 12:00  always-buy"))
	assert.Contains(t, line, "return=+0.03%")
}
