package journal

import (
	"database/sql"
	"errors"
	"fmt"
)

const runColumns = `run_id, created, strategy, dataset, config, start_time, end_time,
	ticks, trades, rejected, initial_capital, final_equity, net_pl, return_pct, max_dd_pct`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (BacktestRun, error) {
	var r BacktestRun
	err := s.Scan(
		&r.RunID, &r.Created, &r.Strategy, &r.Dataset, &r.Config, &r.Start, &r.End,
		&r.Ticks, &r.Trades, &r.Rejected, &r.InitialCapital, &r.FinalEquity,
		&r.NetPL, &r.ReturnPct, &r.MaxDDPct,
	)
	return r, err
}

// GetBacktestRun returns a single run by ID.
func (j *SQLite) GetBacktestRun(runID string) (BacktestRun, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM backtest_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BacktestRun{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
		}
		return BacktestRun{}, err
	}
	return r, nil
}

// ListBacktestRuns returns runs newest first. limit <= 0 means all.
func (j *SQLite) ListBacktestRuns(limit int) ([]BacktestRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`SELECT `+runColumns+` FROM backtest_runs ORDER BY created DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BacktestRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTradesByRunID returns a run's trades in execution order.
func (j *SQLite) ListTradesByRunID(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, seq, time, side, price, quantity, cash_delta
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.Seq,
			&rec.Time,
			&rec.Side,
			&rec.Price,
			&rec.Quantity,
			&rec.CashDelta,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityByRunID returns a run's equity curve in tick order.
func (j *SQLite) ListEquityByRunID(runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT run_id, seq, time, cash, position, price, equity
		FROM equity
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var rec EquitySnapshot
		if err := rows.Scan(
			&rec.RunID,
			&rec.Seq,
			&rec.Time,
			&rec.Cash,
			&rec.Position,
			&rec.Price,
			&rec.Equity,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
