package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/journal"
)

// RunMeta describes a run for the journal.
type RunMeta struct {
	RunID   string
	Created time.Time
	Dataset string
	Config  []byte
	Notes   []string
}

// BacktestRun converts a result into its journal row.
func (r Result) BacktestRun(meta RunMeta) journal.BacktestRun {
	return journal.BacktestRun{
		RunID:          meta.RunID,
		Created:        meta.Created,
		Strategy:       r.Strategy,
		Dataset:        meta.Dataset,
		Config:         meta.Config,
		Start:          r.Start,
		End:            r.End,
		Ticks:          r.Ticks,
		Trades:         r.TradeCount,
		Rejected:       r.Rejected,
		InitialCapital: r.InitialCapital,
		FinalEquity:    r.FinalEquity,
		NetPL:          r.NetPL(),
		ReturnPct:      r.TotalReturnPct,
		MaxDDPct:       r.MaxDrawdownPct,
		Notes:          meta.Notes,
	}
}

// Record writes the run summary, every trade and every equity point to j.
// Journals implementing journal.RunRecorder store the run atomically.
func Record(j journal.Journal, meta RunMeta, r Result) error {
	if j == nil {
		return fmt.Errorf("backtest: journal is required")
	}
	run := r.BacktestRun(meta)
	trades := r.tradeRecords(meta.RunID)
	equity := r.equitySnapshots(meta.RunID)

	if rr, ok := j.(journal.RunRecorder); ok {
		if err := rr.RecordRun(run, trades, equity); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		return nil
	}

	if err := j.RecordBacktest(run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	for _, tr := range trades {
		if err := j.RecordTrade(tr); err != nil {
			return fmt.Errorf("record trade %d: %w", tr.Seq, err)
		}
	}
	for _, e := range equity {
		if err := j.RecordEquity(e); err != nil {
			return fmt.Errorf("record equity %d: %w", e.Seq, err)
		}
	}
	return nil
}

func (r Result) tradeRecords(runID string) []journal.TradeRecord {
	out := make([]journal.TradeRecord, len(r.Trades))
	for i, tr := range r.Trades {
		out[i] = journal.TradeRecord{
			RunID:     runID,
			Seq:       tr.Seq,
			Time:      tr.Time,
			Side:      tr.Side.String(),
			Price:     tr.Price,
			Quantity:  tr.Quantity,
			CashDelta: tr.CashDelta,
		}
	}
	return out
}

// equitySnapshots numbers points from 1 in tick order.
func (r Result) equitySnapshots(runID string) []journal.EquitySnapshot {
	out := make([]journal.EquitySnapshot, len(r.EquityCurve))
	for i, p := range r.EquityCurve {
		out[i] = journal.EquitySnapshot{
			RunID:    runID,
			Seq:      i + 1,
			Time:     p.Time,
			Cash:     p.Cash,
			Position: p.Position,
			Price:    p.Price,
			Equity:   p.Equity,
		}
	}
	return out
}
