package strategies

import (
	"context"
	"math"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
)

// Noop never trades.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) OnTick(context.Context, market.Tick) (*backtest.Signal, error) {
	return nil, nil
}

// AlwaysBuy buys Quantity on every tick until cash runs out.
type AlwaysBuy struct {
	Quantity float64
}

func NewAlwaysBuy(qty float64) AlwaysBuy {
	return AlwaysBuy{Quantity: qty}
}

func (AlwaysBuy) Name() string { return "always-buy" }

func (s AlwaysBuy) OnTick(context.Context, market.Tick) (*backtest.Signal, error) {
	return backtest.BuySignal(s.Quantity), nil
}

// EvenPrice buys one unit whenever the price is an even whole number.
type EvenPrice struct{}

func (EvenPrice) Name() string { return "even-price" }

func (EvenPrice) OnTick(_ context.Context, tick market.Tick) (*backtest.Signal, error) {
	if math.Mod(tick.Price, 2) == 0 {
		return backtest.BuySignal(1), nil
	}
	return nil, nil
}
