package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	return insertTrade(j.db, t)
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	return insertEquity(j.db, e)
}

func (j *SQLite) RecordBacktest(r BacktestRun) error {
	return insertRun(j.db, r)
}

// RecordRun writes a run with its trades and equity in one transaction.
// On any failure nothing of the run is kept.
func (j *SQLite) RecordRun(r BacktestRun, trades []TradeRecord, equity []EquitySnapshot) (err error) {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertRun(tx, r); err != nil {
		return fmt.Errorf("run %q: %w", r.RunID, err)
	}
	for _, t := range trades {
		if err = insertTrade(tx, t); err != nil {
			return fmt.Errorf("trade %d: %w", t.Seq, err)
		}
	}
	for _, e := range equity {
		if err = insertEquity(tx, e); err != nil {
			return fmt.Errorf("equity %d: %w", e.Seq, err)
		}
	}
	return tx.Commit()
}

func insertTrade(x execer, t TradeRecord) error {
	_, err := x.Exec(`
		INSERT INTO trades
		(run_id, seq, time, side, price, quantity, cash_delta)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Seq, t.Time, t.Side, t.Price, t.Quantity, t.CashDelta,
	)
	return err
}

func insertEquity(x execer, e EquitySnapshot) error {
	_, err := x.Exec(`
		INSERT INTO equity
		(run_id, seq, time, cash, position, price, equity)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Seq, e.Time, e.Cash, e.Position, e.Price, e.Equity,
	)
	return err
}

func insertRun(x execer, r BacktestRun) error {
	_, err := x.Exec(`
		INSERT INTO backtest_runs
		(run_id, created, strategy, dataset, config, start_time, end_time,
		 ticks, trades, rejected, initial_capital, final_equity, net_pl, return_pct, max_dd_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Dataset, r.Config, r.Start, r.End,
		r.Ticks, r.Trades, r.Rejected, r.InitialCapital, r.FinalEquity, r.NetPL, r.ReturnPct, r.MaxDDPct,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
