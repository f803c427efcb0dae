package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Tick is a single price observation. Fields carries any extra columns that
// came with the observation (volume, per-exchange quotes, ...) so strategies
// can consult them; values are float64 or string.
type Tick struct {
	Time   time.Time
	Price  float64
	Fields Fields
}

// Validate reports why a tick cannot be replayed, or nil when it can.
func (t Tick) Validate() error {
	if t.Time.IsZero() {
		return errors.New("missing timestamp")
	}
	switch {
	case math.IsNaN(t.Price):
		return errors.New("price is NaN")
	case math.IsInf(t.Price, 0):
		return errors.New("price is infinite")
	case t.Price <= 0:
		return fmt.Errorf("price must be positive, got %g", t.Price)
	}
	return nil
}

// Float returns a numeric extra field.
func (t Tick) Float(name string) (float64, bool) {
	return t.Fields.Float(name)
}

// Text returns a text extra field.
func (t Tick) Text(name string) (string, bool) {
	return t.Fields.Text(name)
}
