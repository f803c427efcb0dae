package backtest

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an executed order. CashDelta is negative for buys (cost) and
// positive for sells (revenue).
type Trade struct {
	Seq       int
	Time      time.Time
	Side      Side
	Price     float64
	Quantity  float64
	CashDelta float64
}

// LedgerState is a read-only view of the account.
type LedgerState struct {
	Cash     float64
	Position float64
}

// Ledger tracks cash and a single position for one run. Orders either fill
// completely or not at all; an order the account cannot cover is dropped
// without error.
type Ledger struct {
	cash     decimal.Decimal
	position decimal.Decimal
	trades   []Trade
}

func NewLedger(initialCapital float64) *Ledger {
	return &Ledger{
		cash:     decimal.NewFromFloat(initialCapital),
		position: decimal.Zero,
	}
}

func (l *Ledger) State() LedgerState {
	return LedgerState{
		Cash:     l.cash.InexactFloat64(),
		Position: l.position.InexactFloat64(),
	}
}

// Apply executes sig at price. It returns false, leaving the ledger
// untouched, when a buy costs more than the available cash or a sell exceeds
// the held position.
func (l *Ledger) Apply(t time.Time, sig Signal, price float64) (Trade, bool) {
	qty := decimal.NewFromFloat(sig.Qty())
	notional := decimal.NewFromFloat(price).Mul(qty)

	var delta decimal.Decimal
	switch sig.Side {
	case Buy:
		if l.cash.LessThan(notional) {
			return Trade{}, false
		}
		delta = notional.Neg()
		l.cash = l.cash.Sub(notional)
		l.position = l.position.Add(qty)
	case Sell:
		if l.position.LessThan(qty) {
			return Trade{}, false
		}
		delta = notional
		l.cash = l.cash.Add(notional)
		l.position = l.position.Sub(qty)
	default:
		return Trade{}, false
	}

	tr := Trade{
		Seq:       len(l.trades) + 1,
		Time:      t,
		Side:      sig.Side,
		Price:     price,
		Quantity:  sig.Qty(),
		CashDelta: delta.InexactFloat64(),
	}
	l.trades = append(l.trades, tr)
	return tr, true
}

// Equity marks the ledger to market at price.
func (l *Ledger) Equity(price float64) float64 {
	return l.cash.Add(l.position.Mul(decimal.NewFromFloat(price))).InexactFloat64()
}

// Trades returns a copy of the trade log in execution order.
func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}
