// Package metrics exposes Prometheus counters for backtest runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors a backtest engine updates. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	TicksTotal          prometheus.Counter
	OrdersTotal         *prometheus.CounterVec
	OrdersRejectedTotal *prometheus.CounterVec
	RunsTotal           *prometheus.CounterVec
	LastMaxDrawdownPct  prometheus.Gauge
}

// New creates the collectors and registers them with reg. Pass a fresh
// prometheus.NewRegistry() per process (or per test) to avoid duplicate
// registration panics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_ticks_total",
			Help: "Ticks replayed through the engine",
		}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_orders_total",
			Help: "Orders applied to the ledger",
		}, []string{"side"}),
		OrdersRejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_orders_rejected_total",
			Help: "Orders rejected by the ledger",
		}, []string{"side", "reason"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Completed backtest runs by outcome",
		}, []string{"outcome"}),
		LastMaxDrawdownPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backtest_last_max_drawdown_pct",
			Help: "Max drawdown of the most recent successful run",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.TicksTotal, m.OrdersTotal, m.OrdersRejectedTotal, m.RunsTotal, m.LastMaxDrawdownPct)
	}
	return m
}

func (m *Metrics) Tick() {
	if m == nil {
		return
	}
	m.TicksTotal.Inc()
}

func (m *Metrics) Order(side string) {
	if m == nil {
		return
	}
	m.OrdersTotal.WithLabelValues(side).Inc()
}

func (m *Metrics) Rejected(side, reason string) {
	if m == nil {
		return
	}
	m.OrdersRejectedTotal.WithLabelValues(side, reason).Inc()
}

// Run records a finished run. maxDD is only stored for outcome "ok".
func (m *Metrics) Run(outcome string, maxDD float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.LastMaxDrawdownPct.Set(maxDD)
	}
}

// WriteTextfile dumps everything gathered by g in the node_exporter textfile
// format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
