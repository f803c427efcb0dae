package backtest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/backtester/market"
)

// TickFeed yields ticks one at a time. Implementations should be
// deterministic and return (ok=false, err=nil) at EOF.
type TickFeed interface {
	Next() (t market.Tick, ok bool, err error)
	Close() error
}

// SliceFeed serves ticks from memory.
type SliceFeed struct {
	ticks []market.Tick
	idx   int
}

func NewSliceFeed(ticks []market.Tick) *SliceFeed {
	return &SliceFeed{ticks: ticks}
}

func (f *SliceFeed) Next() (market.Tick, bool, error) {
	if f.idx >= len(f.ticks) {
		return market.Tick{}, false, nil
	}
	t := f.ticks[f.idx]
	f.idx++
	return t, true, nil
}

func (f *SliceFeed) Close() error { return nil }

// LoadTicks drains feed into memory and closes it.
func LoadTicks(feed TickFeed) ([]market.Tick, error) {
	if feed == nil {
		return nil, errors.New("backtest: Feed is required")
	}
	defer feed.Close()

	var out []market.Tick
	for {
		t, ok, err := feed.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, t)
	}
}

// CSVTicksFeed reads tick rows:
//
//	timestamp,price[,extra...]
//
// A header row is recognised when its first cell is "timestamp", "time" or
// "date"; header names locate the time and price ("price" or "close")
// columns and name the extra fields. Without a header the first two columns
// are time and price and extras are named col2, col3, ...
//
// Accepted time formats: RFC3339, RFC3339Nano, "2006-01-02 15:04:05",
// "2006-01-02", or integer unix milliseconds (microseconds for values
// above 1e14).
//
// Rows are filtered to [From, To) when those are set. Bad rows are errors,
// never skipped.
type CSVTicksFeed struct {
	f    *os.File
	r    *csv.Reader
	from time.Time
	to   time.Time

	sawFirst bool
	line     int
	timeCol  int
	priceCol int
	names    []string
}

func NewCSVTicksFeed(path string, from, to time.Time) (*CSVTicksFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	feed := newCSVTicksReader(f, from, to)
	feed.f = f
	return feed, nil
}

func newCSVTicksReader(rd io.Reader, from, to time.Time) *CSVTicksFeed {
	r := csv.NewReader(rd)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return &CSVTicksFeed{r: r, from: from, to: to, timeCol: 0, priceCol: 1}
}

func (f *CSVTicksFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *CSVTicksFeed) Next() (market.Tick, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return market.Tick{}, false, nil
		}
		if err != nil {
			return market.Tick{}, false, err
		}
		f.line++

		if !f.sawFirst {
			f.sawFirst = true
			if isHeader(row) {
				if err := f.useHeader(row); err != nil {
					return market.Tick{}, false, err
				}
				continue
			}
		}

		t, err := f.parseRow(row)
		if err != nil {
			return market.Tick{}, false, fmt.Errorf("%w: line %d: %v", ErrMalformedTick, f.line, err)
		}
		if !inRange(t.Time, f.from, f.to) {
			continue
		}
		return t, true, nil
	}
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(row[0])) {
	case "timestamp", "time", "date":
		return true
	}
	return false
}

func (f *CSVTicksFeed) useHeader(row []string) error {
	f.names = make([]string, len(row))
	f.priceCol = -1
	for i, c := range row {
		name := strings.TrimSpace(c)
		f.names[i] = name
		switch strings.ToLower(name) {
		case "price", "close":
			if f.priceCol == -1 {
				f.priceCol = i
			}
		}
	}
	if f.priceCol == -1 {
		return fmt.Errorf("backtest: csv header has no price column: %v", row)
	}
	return nil
}

func (f *CSVTicksFeed) colName(i int) string {
	if i < len(f.names) && f.names[i] != "" {
		return f.names[i]
	}
	return "col" + strconv.Itoa(i)
}

func (f *CSVTicksFeed) parseRow(row []string) (market.Tick, error) {
	if len(row) <= f.timeCol || len(row) <= f.priceCol {
		return market.Tick{}, fmt.Errorf("need time and price columns, got %d", len(row))
	}

	ts, err := ParseTime(row[f.timeCol])
	if err != nil {
		return market.Tick{}, err
	}

	raw := strings.TrimSpace(row[f.priceCol])
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return market.Tick{}, fmt.Errorf("bad price %q", raw)
	}

	tick := market.Tick{Time: ts, Price: price}
	if err := tick.Validate(); err != nil {
		return market.Tick{}, err
	}

	for i, cell := range row {
		if i == f.timeCol || i == f.priceCol {
			continue
		}
		if tick.Fields == nil {
			tick.Fields = market.Fields{}
		}
		tick.Fields.Set(f.colName(i), cell)
	}
	return tick, nil
}

// Integer timestamps above this are microseconds rather than milliseconds.
const microsCutoff = 1e14

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts the layouts CSVTicksFeed understands. Times without a
// zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// Binance kline dumps switched to microseconds.
		if n > microsCutoff {
			return time.UnixMicro(n).UTC(), nil
		}
		return time.UnixMilli(n).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
