package strategies

import (
	"context"
	"fmt"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// EMACross trades a fast/slow EMA crossover on tick prices.
// - Buys Quantity on a bull cross while flat
// - Sells everything held on a bear cross
type EMACross struct {
	FastPeriod int
	SlowPeriod int
	Quantity   float64

	fast *indicators.ExponentialMA
	slow *indicators.ExponentialMA

	lastDiff     float64
	haveLastDiff bool

	holding
}

func NewEMACross(fast, slow int, qty float64) (*EMACross, error) {
	if fast < 1 || slow < 1 {
		return nil, fmt.Errorf("ema-cross periods must be positive, got fast=%d slow=%d", fast, slow)
	}
	if fast >= slow {
		return nil, fmt.Errorf("ema-cross fast period %d must be below slow period %d", fast, slow)
	}
	return &EMACross{
		FastPeriod: fast,
		SlowPeriod: slow,
		Quantity:   qty,
		fast:       indicators.NewEMA(fast),
		slow:       indicators.NewEMA(slow),
	}, nil
}

func (s *EMACross) Name() string {
	return fmt.Sprintf("ema-cross(%d,%d)", s.FastPeriod, s.SlowPeriod)
}

func (s *EMACross) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.lastDiff = 0
	s.haveLastDiff = false
	s.holding = holding{}
}

func (s *EMACross) OnTick(_ context.Context, tick market.Tick) (*backtest.Signal, error) {
	s.fast.Update(tick.Price)
	s.slow.Update(tick.Price)

	// Wait until both EMAs are warmed up.
	if !s.fast.Ready() || !s.slow.Ready() {
		return nil, nil
	}

	diff := s.fast.Value() - s.slow.Value()

	// Need a previous diff to detect a cross.
	if !s.haveLastDiff {
		s.lastDiff = diff
		s.haveLastDiff = true
		return nil, nil
	}

	bullCross := diff > 0 && s.lastDiff <= 0
	bearCross := diff < 0 && s.lastDiff >= 0
	s.lastDiff = diff

	switch {
	case bullCross && s.flat():
		return backtest.BuySignal(s.Quantity), nil
	case bearCross && !s.flat():
		return backtest.SellSignal(s.qty), nil
	}
	return nil, nil
}
