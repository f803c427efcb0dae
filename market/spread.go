package market

import "math"

// Quote is a price for one instrument on a named venue.
type Quote struct {
	Venue string
	Price float64
}

// SpreadInfo compares the same instrument quoted on two venues.
type SpreadInfo struct {
	Spread    float64
	SpreadPct float64 // relative to the lower price
	Lower     Quote
	Higher    Quote
}

// CrossSpread computes the absolute spread between a and b. Ties report a as
// the higher venue.
func CrossSpread(a, b Quote) SpreadInfo {
	lower, higher := b, a
	if a.Price < b.Price {
		lower, higher = a, b
	}
	s := higher.Price - lower.Price
	info := SpreadInfo{Spread: s, Lower: lower, Higher: higher}
	if lower.Price > 0 {
		info.SpreadPct = s / lower.Price * 100
	}
	return info
}

type Direction string

const (
	// Forward: buy SOL/USDT, sell SOL/BTC, sell BTC/USDT.
	Forward Direction = "forward"
	// Reverse: buy SOL/BTC, buy BTC/USDT, sell SOL/USDT.
	Reverse Direction = "reverse"
)

// Triangle is a triangular arbitrage reading across BTC/USDT, SOL/USDT and
// SOL/BTC.
type Triangle struct {
	Direct    float64 // SOL/USDT as quoted
	Implied   float64 // SOL/BTC * BTC/USDT
	Spread    float64 // Implied - Direct, signed
	SpreadPct float64 // Spread / Direct * 100, signed
	Direction Direction
}

// AbsPct is the unsigned spread percentage.
func (t Triangle) AbsPct() float64 {
	return math.Abs(t.SpreadPct)
}

func TriangularSpread(btcUSDT, solUSDT, solBTC float64) Triangle {
	implied := solBTC * btcUSDT
	spread := implied - solUSDT
	tr := Triangle{
		Direct:    solUSDT,
		Implied:   implied,
		Spread:    spread,
		Direction: Reverse,
	}
	if solUSDT != 0 {
		tr.SpreadPct = spread / solUSDT * 100
	}
	if spread > 0 {
		tr.Direction = Forward
	}
	return tr
}
