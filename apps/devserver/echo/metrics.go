package echoapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// metrics owns its registry so several servers can live in one process (tests).
type metrics struct {
	registry   *prometheus.Registry
	executions *prometheus.CounterVec
	realtime   prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "function_executions_total",
				Help: "Total number of function executions.",
			},
			[]string{"action", "outcome"},
		),
		realtime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Open realtime connections.",
		}),
	}
	m.registry.MustRegister(m.executions, m.realtime)
	return m
}

func (m *metrics) observe(action string, success bool) {
	if action == "" {
		action = "unknown"
	}
	outcome := outcomeSuccess
	if !success {
		outcome = outcomeFailure
	}
	m.executions.WithLabelValues(action, outcome).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
