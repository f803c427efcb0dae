package strategies

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
)

func TestNoop_OnTick(t *testing.T) {
	sig, err := Noop{}.OnTick(context.Background(), market.Tick{Price: 10})
	assert.NoError(t, err)
	assert.Nil(t, sig)
}

func TestAlwaysBuy_SpendsUntilBroke(t *testing.T) {
	res := run(t, ticksAt(100, 100, 100, 100), NewAlwaysBuy(4))

	// 1000 buys two lots of 4 at 100, the rest are rejected.
	assert.Equal(t, 2, res.TradeCount)
	assert.Equal(t, 2, res.Rejected)
	assert.InDelta(t, 1000.0, res.FinalEquity, 1e-9)
}

func TestEvenPrice_OnTick(t *testing.T) {
	tests := []struct {
		price float64
		buy   bool
	}{
		{2, true},
		{100, true},
		{3, false},
		{2.5, false},
		{101.999, false},
	}
	for _, tt := range tests {
		sig, err := EvenPrice{}.OnTick(context.Background(), market.Tick{Price: tt.price})
		require.NoError(t, err)
		if tt.buy {
			require.NotNil(t, sig, "price %g", tt.price)
			assert.Equal(t, backtest.Buy, sig.Side)
			assert.Equal(t, 1.0, sig.Qty())
		} else {
			assert.Nil(t, sig, "price %g", tt.price)
		}
	}
}
