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

// Kline is one candle row of a Binance kline dump:
//
//	open_time,open,high,low,close,volume,close_time,quote_volume,trades,
//	taker_buy_base,taker_buy_quote,ignore
//
// Only the first seven columns are read.
type Kline struct {
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

const klineCols = 7

// ReadKlines parses a kline CSV. Files are normally headerless; a first row
// whose open_time is not a number is skipped as a header. Close times are
// truncated to the millisecond so dumps in micro and milliseconds line up.
func ReadKlines(rd io.Reader) ([]Kline, error) {
	r := csv.NewReader(rd)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var out []Kline
	for line := 1; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && len(row) > 0 {
			if _, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64); err != nil {
				continue
			}
		}
		k, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("%w: kline line %d: %v", ErrMalformedTick, line, err)
		}
		out = append(out, k)
	}
}

func parseKline(row []string) (Kline, error) {
	if len(row) < klineCols {
		return Kline{}, fmt.Errorf("need %d columns, got %d", klineCols, len(row))
	}
	var k Kline
	var err error
	if k.OpenTime, err = ParseTime(row[0]); err != nil {
		return Kline{}, err
	}
	if k.CloseTime, err = ParseTime(row[6]); err != nil {
		return Kline{}, err
	}
	k.OpenTime = k.OpenTime.Truncate(time.Millisecond)
	k.CloseTime = k.CloseTime.Truncate(time.Millisecond)

	vals := []*float64{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume}
	for i, v := range vals {
		raw := strings.TrimSpace(row[i+1])
		if *v, err = strconv.ParseFloat(raw, 64); err != nil {
			return Kline{}, fmt.Errorf("bad number %q in column %d", raw, i+1)
		}
	}
	if !(k.Close > 0) {
		return Kline{}, fmt.Errorf("close must be positive, got %g", k.Close)
	}
	return k, nil
}

func LoadKlines(path string) ([]Kline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ks, err := ReadKlines(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ks, nil
}

// KlineSeries is the klines of one symbol.
type KlineSeries struct {
	Symbol string
	Klines []Kline
}

// JoinKlines inner-joins series on close time. Each tick carries every
// symbol's close as a field named after the symbol, and its Price is the
// close of priceSymbol (the first series when empty). Times missing from
// any series are dropped. Ticks keep the first series' order.
func JoinKlines(priceSymbol string, series []KlineSeries) ([]market.Tick, error) {
	if len(series) == 0 {
		return nil, errors.New("backtest: no kline series")
	}
	if priceSymbol == "" {
		priceSymbol = series[0].Symbol
	}

	closes := make([]map[int64]float64, len(series))
	priceIdx := -1
	for i, s := range series {
		if s.Symbol == "" {
			return nil, fmt.Errorf("backtest: kline series %d has no symbol", i)
		}
		if s.Symbol == priceSymbol {
			priceIdx = i
		}
		m := make(map[int64]float64, len(s.Klines))
		for _, k := range s.Klines {
			key := k.CloseTime.UnixMilli()
			if _, dup := m[key]; dup {
				return nil, fmt.Errorf("%w: %s has two klines closing at %s",
					ErrMalformedTick, s.Symbol, k.CloseTime.Format(time.RFC3339Nano))
			}
			m[key] = k.Close
		}
		closes[i] = m
	}
	if priceIdx == -1 {
		return nil, fmt.Errorf("backtest: price symbol %q is not among the kline series", priceSymbol)
	}

	var ticks []market.Tick
next:
	for _, k := range series[0].Klines {
		key := k.CloseTime.UnixMilli()
		fields := make(market.Fields, len(series))
		for i, s := range series {
			c, ok := closes[i][key]
			if !ok {
				continue next
			}
			fields[s.Symbol] = c
		}
		ticks = append(ticks, market.Tick{
			Time:   k.CloseTime,
			Price:  closes[priceIdx][key],
			Fields: fields,
		})
	}
	return ticks, nil
}

// KlineSource names a kline file by symbol.
type KlineSource struct {
	Symbol string
	Path   string
}

// ParseKlineSource reads "SYMBOL=path".
func ParseKlineSource(s string) (KlineSource, error) {
	sym, path, ok := strings.Cut(s, "=")
	sym, path = strings.TrimSpace(sym), strings.TrimSpace(path)
	if !ok || sym == "" || path == "" {
		return KlineSource{}, fmt.Errorf("kline source %q: want SYMBOL=path", s)
	}
	return KlineSource{Symbol: sym, Path: path}, nil
}

// NewKlineFeed loads every source, joins them with JoinKlines and keeps the
// ticks in [from, to).
func NewKlineFeed(priceSymbol string, from, to time.Time, sources ...KlineSource) (*SliceFeed, error) {
	series := make([]KlineSeries, len(sources))
	for i, src := range sources {
		ks, err := LoadKlines(src.Path)
		if err != nil {
			return nil, err
		}
		series[i] = KlineSeries{Symbol: src.Symbol, Klines: ks}
	}

	ticks, err := JoinKlines(priceSymbol, series)
	if err != nil {
		return nil, err
	}
	kept := ticks[:0]
	for _, t := range ticks {
		if inRange(t.Time, from, to) {
			kept = append(kept, t)
		}
	}
	return NewSliceFeed(kept), nil
}
