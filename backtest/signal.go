package backtest

import (
	"fmt"
	"math"
	"strings"
)

type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return fmt.Sprintf("Side(%d)", int8(s))
}

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "long":
		return Buy, nil
	case "sell", "short":
		return Sell, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

// Signal is a strategy's request for the current tick. A zero Quantity means 1.
type Signal struct {
	Side     Side
	Quantity float64
}

func BuySignal(qty float64) *Signal  { return &Signal{Side: Buy, Quantity: qty} }
func SellSignal(qty float64) *Signal { return &Signal{Side: Sell, Quantity: qty} }

// Qty returns the effective quantity.
func (s Signal) Qty() float64 {
	if s.Quantity == 0 {
		return 1
	}
	return s.Quantity
}

func (s Signal) Validate() error {
	if s.Side != Buy && s.Side != Sell {
		return fmt.Errorf("%w: unknown side %d", ErrInvalidSignal, int8(s.Side))
	}
	q := s.Quantity
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		return fmt.Errorf("%w: quantity %g", ErrInvalidSignal, q)
	}
	return nil
}
