package strategies

import (
	"context"
	"fmt"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
)

// CrossExchange watches one instrument quoted on two venues. It buys when
// the spread opens above ThresholdPct and sells once it closes back under.
// Ticks missing either venue are skipped.
type CrossExchange struct {
	VenueA       string
	VenueB       string
	ThresholdPct float64
	Quantity     float64

	last market.SpreadInfo
	holding
}

func NewCrossExchange(venueA, venueB string, thresholdPct, qty float64) *CrossExchange {
	return &CrossExchange{
		VenueA:       venueA,
		VenueB:       venueB,
		ThresholdPct: thresholdPct,
		Quantity:     qty,
	}
}

func (s *CrossExchange) Name() string {
	return fmt.Sprintf("cross-exchange(%s,%s)", s.VenueA, s.VenueB)
}

func (s *CrossExchange) Reset() {
	s.last = market.SpreadInfo{}
	s.holding = holding{}
}

// Last returns the most recent spread reading.
func (s *CrossExchange) Last() market.SpreadInfo { return s.last }

func (s *CrossExchange) OnTick(_ context.Context, tick market.Tick) (*backtest.Signal, error) {
	a, okA := tick.Float(s.VenueA)
	b, okB := tick.Float(s.VenueB)
	if !okA || !okB {
		return nil, nil
	}
	s.last = market.CrossSpread(
		market.Quote{Venue: s.VenueA, Price: a},
		market.Quote{Venue: s.VenueB, Price: b},
	)
	return thresholdSignal(s.last.SpreadPct, s.ThresholdPct, s.Quantity, &s.holding), nil
}

// Triangular watches BTC/USDT, SOL/USDT and SOL/BTC fields and trades the
// absolute gap between the direct and implied SOL/USDT price.
type Triangular struct {
	BTCUSDT      string
	SOLUSDT      string
	SOLBTC       string
	ThresholdPct float64
	Quantity     float64

	last market.Triangle
	holding
}

func NewTriangular(btcUSDT, solUSDT, solBTC string, thresholdPct, qty float64) *Triangular {
	return &Triangular{
		BTCUSDT:      btcUSDT,
		SOLUSDT:      solUSDT,
		SOLBTC:       solBTC,
		ThresholdPct: thresholdPct,
		Quantity:     qty,
	}
}

func (s *Triangular) Name() string { return "triangular" }

func (s *Triangular) Reset() {
	s.last = market.Triangle{}
	s.holding = holding{}
}

// Last returns the most recent triangle reading.
func (s *Triangular) Last() market.Triangle { return s.last }

func (s *Triangular) OnTick(_ context.Context, tick market.Tick) (*backtest.Signal, error) {
	btc, ok1 := tick.Float(s.BTCUSDT)
	sol, ok2 := tick.Float(s.SOLUSDT)
	solBTC, ok3 := tick.Float(s.SOLBTC)
	if !ok1 || !ok2 || !ok3 || sol <= 0 {
		return nil, nil
	}
	s.last = market.TriangularSpread(btc, sol, solBTC)
	return thresholdSignal(s.last.AbsPct(), s.ThresholdPct, s.Quantity, &s.holding), nil
}

// thresholdSignal enters while flat once pct exceeds threshold and exits
// the whole holding when pct drops back to or below it.
func thresholdSignal(pct, threshold, qty float64, h *holding) *backtest.Signal {
	switch {
	case pct > threshold && h.flat():
		return backtest.BuySignal(qty)
	case pct <= threshold && !h.flat():
		return backtest.SellSignal(h.qty)
	}
	return nil
}
