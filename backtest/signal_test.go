package backtest

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSide(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Side{"buy": Buy, "BUY": Buy, " long ": Buy, "sell": Sell, "Short": Sell} {
		got, err := ParseSide(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSide("hold")
	assert.Error(t, err)
}

func TestSideString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "buy", Buy.String())
	assert.Equal(t, "sell", Sell.String())
	assert.Equal(t, "Side(3)", Side(3).String())
}

func TestSignalValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, BuySignal(1).Validate())
	assert.NoError(t, SellSignal(0).Validate())

	for _, s := range []Signal{
		{Side: 0, Quantity: 1},
		{Side: Buy, Quantity: -1},
		{Side: Sell, Quantity: math.NaN()},
		{Side: Buy, Quantity: math.Inf(1)},
	} {
		err := s.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSignal))
	}
}

func TestSignalQty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, Signal{Side: Buy}.Qty())
	assert.Equal(t, 2.5, Signal{Side: Buy, Quantity: 2.5}.Qty())
}
