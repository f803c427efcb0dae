package backtest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/backtester/market"
)

// Candidate names a strategy constructor. New is called once per sweep so
// every run gets its own strategy state.
type Candidate struct {
	Name string
	New  func() (Strategy, error)
}

// SweepResult pairs a candidate with its run result.
type SweepResult struct {
	Name   string
	Result Result
}

// Sweep runs each candidate over the same ticks in its own goroutine. Each
// run builds its own ledger and equity tracker. Results come back in
// candidate order; the first failure cancels the remaining runs.
func (e *Engine) Sweep(ctx context.Context, ticks []market.Tick, candidates []Candidate) ([]SweepResult, error) {
	out := make([]SweepResult, len(candidates))
	g, ctx := errgroup.WithContext(ctx)

	for i, c := range candidates {
		g.Go(func() error {
			strat, err := c.New()
			if err != nil {
				return fmt.Errorf("sweep %q: %w", c.Name, err)
			}
			res, err := e.Run(ctx, ticks, strat)
			if err != nil {
				return fmt.Errorf("sweep %q: %w", c.Name, err)
			}
			out[i] = SweepResult{Name: c.Name, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
