// journal/journal.go
package journal

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("journal: not found")

// TradeRecord is one executed order of a backtest run.
type TradeRecord struct {
	RunID     string
	Seq       int
	Time      time.Time
	Side      string
	Price     float64
	Quantity  float64
	CashDelta float64
}

// EquitySnapshot is the account marked to market after one tick.
type EquitySnapshot struct {
	RunID    string
	Seq      int
	Time     time.Time
	Cash     float64
	Position float64
	Price    float64
	Equity   float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	RecordBacktest(BacktestRun) error
	Close() error
}

// RunRecorder is implemented by journals that can store a whole run
// atomically.
type RunRecorder interface {
	RecordRun(r BacktestRun, trades []TradeRecord, equity []EquitySnapshot) error
}
