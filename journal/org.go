package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradesOrg renders trades as an Org table.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	b.WriteString("| # | Time | Side | Price | Qty | Cash Delta |\n")
	b.WriteString("|---+------+------+-------+-----+------------|\n")
	for _, t := range trades {
		b.WriteString(fmt.Sprintf("| %d | %s | %s | %.5f | %g | %.2f |\n",
			t.Seq,
			t.Time.UTC().Format(time.RFC3339),
			strings.ToUpper(t.Side),
			t.Price,
			t.Quantity,
			t.CashDelta,
		))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}

// FormatRunLine is a one-line summary for run listings.
func FormatRunLine(r BacktestRun) string {
	return fmt.Sprintf("%s  %s  %-14s  trades=%-4d  return=%+.2f%%  maxdd=%.2f%%  %s",
		shortID(r.RunID),
		r.Created.UTC().Format("2006-01-02 15:04"),
		r.Strategy,
		r.Trades,
		r.ReturnPct,
		r.MaxDDPct,
		r.Dataset,
	)
}
