package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Tick()
	m.Tick()
	m.Order("buy")
	m.Rejected("sell", "oversold")
	m.Run("ok", 12.5)
	m.Run("error", 99)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicksTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersTotal.WithLabelValues("buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersRejectedTotal.WithLabelValues("sell", "oversold")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.LastMaxDrawdownPct))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.Tick()
		m.Order("buy")
		m.Rejected("buy", "unfunded")
		m.Run("ok", 1)
	})
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Tick()

	path := filepath.Join(t.TempDir(), "backtest.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backtest_ticks_total 1")
}
