package backtest

import (
	"fmt"
	"io"
	"time"
)

// Result summarises one run. Trades and EquityCurve are in tick order and
// belong to the caller.
type Result struct {
	Strategy string

	InitialCapital float64
	FinalEquity    float64
	TotalReturnPct float64
	MaxDrawdownPct float64

	TradeCount int
	Rejected   int
	Ticks      int

	Start time.Time
	End   time.Time

	Trades      []Trade
	EquityCurve []EquityPoint
}

// NetPL is final equity minus initial capital.
func (r Result) NetPL() float64 {
	return r.FinalEquity - r.InitialCapital
}

// Summarize derives run statistics from the equity curve and trade log.
// An empty curve yields ErrNoData and a Result with no statistics set.
func Summarize(initialCapital float64, curve []EquityPoint, trades []Trade) (Result, error) {
	r := Result{
		InitialCapital: initialCapital,
		TradeCount:     len(trades),
		Ticks:          len(curve),
		Trades:         trades,
		EquityCurve:    curve,
	}
	if len(curve) == 0 {
		return r, ErrNoData
	}
	if !(initialCapital > 0) {
		return r, fmt.Errorf("backtest: initial capital must be positive, got %g", initialCapital)
	}

	last := curve[len(curve)-1]
	r.FinalEquity = last.Equity
	r.TotalReturnPct = (last.Equity - initialCapital) / initialCapital * 100
	r.MaxDrawdownPct = MaxDrawdownPct(initialCapital, curve)
	r.Start = curve[0].Time
	r.End = last.Time
	return r, nil
}

// MaxDrawdownPct is the largest percentage fall from a running peak. The
// peak starts at initialCapital.
func MaxDrawdownPct(initialCapital float64, curve []EquityPoint) float64 {
	peak := initialCapital
	maxDD := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Equity) / peak * 100
		if dd > maxDD {
			maxDD = dd
		}
	}
	if maxDD > 100 {
		maxDD = 100
	}
	return maxDD
}

// PrintResult writes a plain text report. recent limits how many of the
// last trades are listed (0 lists none).
func PrintResult(w io.Writer, r Result, recent int) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	if r.Strategy != "" {
		fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	}
	if !r.Start.IsZero() {
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Ticks:         %d\n", r.Ticks)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Initial Capital: %.2f\n", r.InitialCapital)
	fmt.Fprintf(w, "Final Equity:    %.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "Net P/L:         %.2f\n", r.NetPL())
	fmt.Fprintf(w, "Total Return:    %+.2f%%\n", r.TotalReturnPct)
	fmt.Fprintf(w, "Max Drawdown:    %.2f%%\n", r.MaxDrawdownPct)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.TradeCount)
	fmt.Fprintf(w, "Rejected:      %d\n", r.Rejected)

	if recent > 0 && len(r.Trades) > 0 {
		from := len(r.Trades) - recent
		if from < 0 {
			from = 0
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recent Trades")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, tr := range r.Trades[from:] {
			fmt.Fprintf(w, "%s | %-4s | Price: %10.2f | Qty: %g\n",
				tr.Time.Format("2006-01-02"), tr.Side, tr.Price, tr.Quantity)
		}
	}

	fmt.Fprintln(w)
}
