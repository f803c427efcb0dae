package backtest

import "errors"

var (
	// ErrNoData means the run saw no ticks, so no statistics exist.
	ErrNoData = errors.New("backtest: no data processed")

	// ErrMalformedTick is wrapped with the tick index and reason.
	ErrMalformedTick = errors.New("backtest: malformed tick")

	// ErrInvalidSignal is returned when a strategy emits a signal the ledger
	// cannot interpret (unknown side, bad quantity).
	ErrInvalidSignal = errors.New("backtest: invalid signal")
)
