package strategies

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rustyeddy/backtester/backtest"
)

// Params carries every knob the built-in strategies understand. Each strategy
// reads the ones it needs and ignores the rest.
type Params struct {
	Quantity     float64 `json:"quantity" yaml:"quantity" mapstructure:"quantity"`
	Fast         int     `json:"fast" yaml:"fast" mapstructure:"fast"`
	Slow         int     `json:"slow" yaml:"slow" mapstructure:"slow"`
	ThresholdPct float64 `json:"threshold_pct" yaml:"threshold_pct" mapstructure:"threshold_pct"`

	// Tick field names for the spread strategies.
	VenueA  string `json:"venue_a" yaml:"venue_a" mapstructure:"venue_a"`
	VenueB  string `json:"venue_b" yaml:"venue_b" mapstructure:"venue_b"`
	BTCUSDT string `json:"btc_usdt" yaml:"btc_usdt" mapstructure:"btc_usdt"`
	SOLUSDT string `json:"sol_usdt" yaml:"sol_usdt" mapstructure:"sol_usdt"`
	SOLBTC  string `json:"sol_btc" yaml:"sol_btc" mapstructure:"sol_btc"`
}

func DefaultParams() Params {
	return Params{
		Quantity:     1,
		Fast:         10,
		Slow:         30,
		ThresholdPct: 0.5,
		VenueA:       "binance",
		VenueB:       "kraken",
		BTCUSDT:      "BTCUSDT",
		SOLUSDT:      "SOLUSDT",
		SOLBTC:       "SOLBTC",
	}
}

// withDefaults fills zero values from DefaultParams.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Quantity == 0 {
		p.Quantity = d.Quantity
	}
	if p.Fast == 0 {
		p.Fast = d.Fast
	}
	if p.Slow == 0 {
		p.Slow = d.Slow
	}
	if p.ThresholdPct == 0 {
		p.ThresholdPct = d.ThresholdPct
	}
	if p.VenueA == "" {
		p.VenueA = d.VenueA
	}
	if p.VenueB == "" {
		p.VenueB = d.VenueB
	}
	if p.BTCUSDT == "" {
		p.BTCUSDT = d.BTCUSDT
	}
	if p.SOLUSDT == "" {
		p.SOLUSDT = d.SOLUSDT
	}
	if p.SOLBTC == "" {
		p.SOLBTC = d.SOLBTC
	}
	return p
}

// Factory builds a fresh strategy instance.
type Factory func(p Params) (backtest.Strategy, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

func init() {
	Register("noop", func(Params) (backtest.Strategy, error) { return Noop{}, nil })
	Register("always-buy", func(p Params) (backtest.Strategy, error) { return NewAlwaysBuy(p.Quantity), nil })
	Register("even-price", func(Params) (backtest.Strategy, error) { return EvenPrice{}, nil })
	Register("ema-cross", func(p Params) (backtest.Strategy, error) { return NewEMACross(p.Fast, p.Slow, p.Quantity) })
	Register("cross-exchange", func(p Params) (backtest.Strategy, error) {
		return NewCrossExchange(p.VenueA, p.VenueB, p.ThresholdPct, p.Quantity), nil
	})
	Register("triangular", func(p Params) (backtest.Strategy, error) {
		return NewTriangular(p.BTCUSDT, p.SOLUSDT, p.SOLBTC, p.ThresholdPct, p.Quantity), nil
	})
}

// Register adds or replaces the factory for name.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[normalize(name)] = f
}

func Get(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[normalize(name)]
	return f, ok
}

// Names lists registered strategies in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// StrategyByName builds a new strategy from the registry. Zero-valued
// params take their defaults.
func StrategyByName(name string, p Params) (backtest.Strategy, error) {
	f, ok := Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(p.withDefaults())
}

// Candidate wraps a registered strategy for backtest sweeps.
func Candidate(name string, p Params) backtest.Candidate {
	return backtest.Candidate{
		Name: name,
		New:  func() (backtest.Strategy, error) { return StrategyByName(name, p) },
	}
}

func normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "none":
		return "noop"
	case "emacross":
		return "ema-cross"
	}
	return n
}

// holding tracks the quantity a strategy actually holds, from fills.
type holding struct {
	qty float64
}

func (h *holding) OnFill(tr backtest.Trade) {
	switch tr.Side {
	case backtest.Buy:
		h.qty += tr.Quantity
	case backtest.Sell:
		h.qty -= tr.Quantity
	}
}

func (h *holding) flat() bool { return h.qty <= 0 }
