package journal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun(id string, created time.Time) BacktestRun {
	return BacktestRun{
		RunID:          id,
		Created:        created,
		Strategy:       "always-buy",
		Dataset:        "data/sample.csv",
		Config:         []byte("strategy:\n  name: always-buy\n"),
		Start:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		Ticks:          4,
		Trades:         4,
		Rejected:       0,
		InitialCapital: 10000,
		FinalEquity:    10003,
		NetPL:          3,
		ReturnPct:      0.03,
		MaxDDPct:       0.02,
	}
}

func TestGetBacktestRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	want := sampleRun("RUN1", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, j.RecordBacktest(want))

	got, err := j.GetBacktestRun("RUN1")
	require.NoError(t, err)

	assert.Equal(t, want.RunID, got.RunID)
	assert.True(t, want.Created.Equal(got.Created))
	assert.Equal(t, want.Strategy, got.Strategy)
	assert.Equal(t, want.Dataset, got.Dataset)
	assert.Equal(t, want.Config, got.Config)
	assert.True(t, want.Start.Equal(got.Start))
	assert.True(t, want.End.Equal(got.End))
	assert.Equal(t, want.Ticks, got.Ticks)
	assert.Equal(t, want.Trades, got.Trades)
	assert.InDelta(t, want.InitialCapital, got.InitialCapital, 1e-9)
	assert.InDelta(t, want.FinalEquity, got.FinalEquity, 1e-9)
	assert.InDelta(t, want.ReturnPct, got.ReturnPct, 1e-9)
	assert.InDelta(t, want.MaxDDPct, got.MaxDDPct, 1e-9)
}

func TestGetBacktestRunNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetBacktestRun("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "missing")
}

func TestListBacktestRunsNewestFirst(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordBacktest(sampleRun("A", base)))
	require.NoError(t, j.RecordBacktest(sampleRun("B", base.Add(time.Hour))))
	require.NoError(t, j.RecordBacktest(sampleRun("C", base.Add(2*time.Hour))))

	runs, err := j.ListBacktestRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "C", runs[0].RunID)
	assert.Equal(t, "A", runs[2].RunID)

	runs, err = j.ListBacktestRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestListTradesAndEquityByRunID(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []float64{100, 102, 98} {
		require.NoError(t, j.RecordTrade(TradeRecord{
			RunID: "R1", Seq: i + 1, Time: ts.AddDate(0, 0, i),
			Side: "buy", Price: p, Quantity: 1, CashDelta: -p,
		}))
		require.NoError(t, j.RecordEquity(EquitySnapshot{
			RunID: "R1", Seq: i + 1, Time: ts.AddDate(0, 0, i),
			Price: p, Position: float64(i + 1),
		}))
	}
	require.NoError(t, j.RecordTrade(TradeRecord{RunID: "OTHER", Seq: 1, Time: ts, Side: "buy", Price: 1, Quantity: 1}))

	trades, err := j.ListTradesByRunID("R1")
	require.NoError(t, err)
	require.Len(t, trades, 3)
	for i, tr := range trades {
		assert.Equal(t, i+1, tr.Seq)
	}
	assert.Equal(t, 102.0, trades[1].Price)

	eq, err := j.ListEquityByRunID("R1")
	require.NoError(t, err)
	require.Len(t, eq, 3)
	assert.Equal(t, 3.0, eq[2].Position)

	none, err := j.ListTradesByRunID("nope")
	require.NoError(t, err)
	assert.Empty(t, none)
}
