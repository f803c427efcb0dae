package backtest

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquityPoint is the account marked to market after one tick.
type EquityPoint struct {
	Time     time.Time
	Equity   float64
	Price    float64
	Position float64
	Cash     float64
}

// EquityTracker appends one point per tick. Points are never rewritten.
type EquityTracker struct {
	points []EquityPoint
}

func NewEquityTracker(capacity int) *EquityTracker {
	if capacity < 0 {
		capacity = 0
	}
	return &EquityTracker{points: make([]EquityPoint, 0, capacity)}
}

func (e *EquityTracker) Record(t time.Time, price float64, s LedgerState) EquityPoint {
	eq := decimal.NewFromFloat(s.Cash).
		Add(decimal.NewFromFloat(s.Position).Mul(decimal.NewFromFloat(price)))

	p := EquityPoint{
		Time:     t,
		Equity:   eq.InexactFloat64(),
		Price:    price,
		Position: s.Position,
		Cash:     s.Cash,
	}
	e.points = append(e.points, p)
	return p
}

func (e *EquityTracker) Len() int { return len(e.points) }

// Points returns a copy of the trajectory.
func (e *EquityTracker) Points() []EquityPoint {
	out := make([]EquityPoint, len(e.points))
	copy(out, e.points)
	return out
}
