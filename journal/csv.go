package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal writes runs, trades and equity rows to three CSV files.
// NewCSV truncates existing files.
type CSVJournal struct {
	runs   *csv.Writer
	trades *csv.Writer
	equity *csv.Writer
	files  []*os.File
}

var (
	runsHeader   = []string{"run_id", "created", "strategy", "dataset", "start", "end", "ticks", "trades", "rejected", "initial_capital", "final_equity", "net_pl", "return_pct", "max_dd_pct"}
	tradesHeader = []string{"run_id", "seq", "time", "side", "price", "quantity", "cash_delta"}
	equityHeader = []string{"run_id", "seq", "time", "cash", "position", "price", "equity"}
)

func NewCSV(runsPath, tradesPath, equityPath string) (*CSVJournal, error) {
	j := &CSVJournal{}

	open := func(path string, header []string) (*csv.Writer, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, f)
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()
		return w, w.Error()
	}

	var err error
	if j.runs, err = open(runsPath, runsHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	if j.trades, err = open(tradesPath, tradesHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	if j.equity, err = open(equityPath, equityHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) RecordBacktest(r BacktestRun) error {
	return write(j.runs, []string{
		r.RunID,
		r.Created.UTC().Format(time.RFC3339),
		r.Strategy,
		r.Dataset,
		r.Start.UTC().Format(time.RFC3339),
		r.End.UTC().Format(time.RFC3339),
		strconv.Itoa(r.Ticks),
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Rejected),
		f(r.InitialCapital),
		f(r.FinalEquity),
		f(r.NetPL),
		f(r.ReturnPct),
		f(r.MaxDDPct),
	})
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return write(j.trades, []string{
		t.RunID,
		strconv.Itoa(t.Seq),
		t.Time.UTC().Format(time.RFC3339),
		t.Side,
		f(t.Price),
		f(t.Quantity),
		f(t.CashDelta),
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return write(j.equity, []string{
		e.RunID,
		strconv.Itoa(e.Seq),
		e.Time.UTC().Format(time.RFC3339),
		f(e.Cash),
		f(e.Position),
		f(e.Price),
		f(e.Equity),
	})
}

func (j *CSVJournal) Close() error {
	for _, w := range []*csv.Writer{j.runs, j.trades, j.equity} {
		w.Flush()
		if err := w.Error(); err != nil {
			j.closeFiles()
			return err
		}
	}
	return j.closeFiles()
}

func (j *CSVJournal) closeFiles() error {
	var first error
	for _, fh := range j.files {
		if err := fh.Close(); err != nil && first == nil {
			first = err
		}
	}
	j.files = nil
	return first
}

func write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
