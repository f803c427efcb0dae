package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/metrics"
)

// Strategy decides, tick by tick, whether to trade. A nil signal means no
// action. Strategies must not modify the tick's Fields.
type Strategy interface {
	OnTick(ctx context.Context, tick market.Tick) (*Signal, error)
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(ctx context.Context, tick market.Tick) (*Signal, error)

func (f StrategyFunc) OnTick(ctx context.Context, tick market.Tick) (*Signal, error) {
	return f(ctx, tick)
}

// Resetter is implemented by strategies that keep state between ticks. Run
// calls Reset before the first tick so repeated runs start identically.
type Resetter interface {
	Reset()
}

// FillListener is implemented by strategies that want to know which of
// their signals actually filled.
type FillListener interface {
	OnFill(tr Trade)
}

// Namer gives a strategy a name for logs, errors and reports.
type Namer interface {
	Name() string
}

func StrategyName(s Strategy) string {
	if n, ok := s.(Namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine replays ticks through a strategy and a fresh Ledger. It holds only
// configuration, so one Engine can serve concurrent runs.
type Engine struct {
	initialCapital float64
	log            zerolog.Logger
	metrics        *metrics.Metrics
}

func NewEngine(initialCapital float64, opts ...Option) *Engine {
	e := &Engine{
		initialCapital: initialCapital,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) InitialCapital() float64 { return e.initialCapital }

// Run replays ticks in order:
//  1. strategy.OnTick(tick)
//  2. ledger.Apply(signal) when a signal was returned
//  3. equity tracker records the account at tick.Price
//
// Malformed ticks, strategy errors and invalid signals abort the run.
// Cancellation is checked between ticks only. With no ticks the result
// carries no statistics and the error is ErrNoData.
func (e *Engine) Run(ctx context.Context, ticks []market.Tick, strat Strategy) (Result, error) {
	if strat == nil {
		return Result{}, errors.New("backtest: Strategy is required")
	}
	if !(e.initialCapital > 0) {
		return Result{}, fmt.Errorf("backtest: initial capital must be positive, got %g", e.initialCapital)
	}

	name := StrategyName(strat)
	log := e.log.With().Str("strategy", name).Logger()

	if r, ok := strat.(Resetter); ok {
		r.Reset()
	}
	listener, _ := strat.(FillListener)

	ledger := NewLedger(e.initialCapital)
	tracker := NewEquityTracker(len(ticks))
	rejected := 0

	log.Info().Int("ticks", len(ticks)).Float64("initial_capital", e.initialCapital).Msg("backtest started")

	for i, tick := range ticks {
		if err := ctx.Err(); err != nil {
			e.metrics.Run("canceled", 0)
			return Result{}, fmt.Errorf("backtest: stopped before tick %d: %w", i, err)
		}
		if err := tick.Validate(); err != nil {
			e.metrics.Run("error", 0)
			return Result{}, fmt.Errorf("%w: tick %d: %v", ErrMalformedTick, i, err)
		}

		sig, err := strat.OnTick(ctx, tick)
		if err != nil {
			e.metrics.Run("error", 0)
			return Result{}, fmt.Errorf("backtest: strategy %q at tick %d: %w", name, i, err)
		}

		if sig != nil {
			if err := sig.Validate(); err != nil {
				e.metrics.Run("error", 0)
				return Result{}, fmt.Errorf("strategy %q at tick %d: %w", name, i, err)
			}
			if tr, ok := ledger.Apply(tick.Time, *sig, tick.Price); ok {
				e.metrics.Order(tr.Side.String())
				log.Debug().
					Int("seq", tr.Seq).
					Stringer("side", tr.Side).
					Float64("price", tr.Price).
					Float64("qty", tr.Quantity).
					Float64("cash_delta", tr.CashDelta).
					Msg("order filled")
				if listener != nil {
					listener.OnFill(tr)
				}
			} else {
				rejected++
				reason := rejectReason(sig.Side)
				e.metrics.Rejected(sig.Side.String(), reason)
				log.Debug().
					Int("tick", i).
					Stringer("side", sig.Side).
					Float64("price", tick.Price).
					Float64("qty", sig.Qty()).
					Str("reason", reason).
					Msg("order rejected")
			}
		}

		tracker.Record(tick.Time, tick.Price, ledger.State())
		e.metrics.Tick()
	}

	res, err := Summarize(e.initialCapital, tracker.Points(), ledger.Trades())
	res.Strategy = name
	res.Rejected = rejected
	if err != nil {
		if errors.Is(err, ErrNoData) {
			e.metrics.Run("empty", 0)
			log.Warn().Msg("backtest finished without data")
		} else {
			e.metrics.Run("error", 0)
		}
		return res, err
	}

	e.metrics.Run("ok", res.MaxDrawdownPct)
	log.Info().
		Float64("final_equity", res.FinalEquity).
		Float64("return_pct", res.TotalReturnPct).
		Float64("max_dd_pct", res.MaxDrawdownPct).
		Int("trades", res.TradeCount).
		Int("rejected", rejected).
		Msg("backtest finished")

	return res, nil
}

// RunFeed loads every tick from feed, closes it, then runs the replay.
func (e *Engine) RunFeed(ctx context.Context, feed TickFeed, strat Strategy) (Result, error) {
	ticks, err := LoadTicks(feed)
	if err != nil {
		return Result{}, err
	}
	return e.Run(ctx, ticks, strat)
}

func rejectReason(s Side) string {
	if s == Buy {
		return "unfunded"
	}
	return "oversold"
}
