// Package datagen produces deterministic synthetic tick series for demos
// and tests.
package datagen

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/rustyeddy/backtester/market"
)

const (
	BasePrice = 100.0
	MinPrice  = 1.0

	driftMean = 0.5
	driftStd  = 2.0
	minVolume = 1000
	maxVolume = 10000
)

// RandomWalk returns n daily ticks starting at start. Each step adds a
// normal(0.5, 2) change to the previous price, floored at MinPrice. Every
// tick carries a "volume" field. The same seed always yields the same series.
func RandomWalk(start time.Time, n int, seed int64) []market.Tick {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	ticks := make([]market.Tick, n)
	price := BasePrice
	for i := range ticks {
		if i > 0 {
			price = math.Max(MinPrice, price+driftMean+driftStd*rng.NormFloat64())
		}
		ticks[i] = market.Tick{
			Time:  start.AddDate(0, 0, i),
			Price: round2(price),
			Fields: market.Fields{
				"volume": float64(minVolume + rng.Intn(maxVolume-minVolume)),
			},
		}
	}
	return ticks
}

// Venues returns a RandomWalk whose ticks also carry venueA and venueB
// quotes. venueA tracks the tick price. venueB deviates from it by up to
// maxGapPct percent in either direction.
func Venues(start time.Time, n int, seed int64, venueA, venueB string, maxGapPct float64) []market.Tick {
	ticks := RandomWalk(start, n, seed)
	rng := rand.New(rand.NewSource(seed + 1))
	for i := range ticks {
		p := ticks[i].Price
		gap := (rng.Float64()*2 - 1) * maxGapPct / 100
		ticks[i].Fields[venueA] = p
		ticks[i].Fields[venueB] = round2(p * (1 + gap))
	}
	return ticks
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// WriteCSV writes ticks as timestamp,price followed by the first tick's
// field columns in sorted order.
func WriteCSV(w io.Writer, ticks []market.Tick) error {
	cw := csv.NewWriter(w)

	var names []string
	if len(ticks) > 0 {
		names = ticks[0].Fields.Names()
	}
	header := append([]string{"timestamp", "price"}, names...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, t := range ticks {
		rec := make([]string, 0, len(header))
		rec = append(rec, t.Time.UTC().Format(time.RFC3339), formatFloat(t.Price))
		for _, n := range names {
			v, ok := t.Fields[n]
			if !ok {
				return fmt.Errorf("tick %d: missing field %q", i, n)
			}
			switch x := v.(type) {
			case float64:
				rec = append(rec, formatFloat(x))
			default:
				rec = append(rec, fmt.Sprint(x))
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCSVFile(path string, ticks []market.Tick) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, ticks); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
