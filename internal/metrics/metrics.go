// Package metrics provides Prometheus metrics for the notification cycle.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tipbot/internal/source"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	SourceFetches *prometheus.CounterVec
	SourceRecords *prometheus.GaugeVec
	AlertsSent    prometheus.Counter
	Subscribers   prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipbot_cycles_total",
				Help: "Notification cycles by outcome",
			},
			[]string{"result"},
		),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tipbot_cycle_duration_seconds",
			Help:    "Duration of a notification cycle",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		SourceFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipbot_source_fetches_total",
				Help: "Source adapter calls by status",
			},
			[]string{"source", "status"},
		),
		SourceRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tipbot_source_records",
				Help: "Records returned by the latest call of each source",
			},
			[]string{"source"},
		),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tipbot_alerts_sent_total",
			Help: "Tips delivered to subscribers",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tipbot_subscribers",
			Help: "Current number of subscribed chats",
		}),
	}
	m.registry.MustRegister(
		m.CyclesTotal, m.CycleDuration, m.SourceFetches, m.SourceRecords, m.AlertsSent, m.Subscribers,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycle records one finished cycle.
func (m *Metrics) ObserveCycle(result string, d time.Duration) {
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// ObserveReports records per-source outcomes.
func (m *Metrics) ObserveReports(reports []source.Report) {
	for _, r := range reports {
		m.SourceFetches.WithLabelValues(r.Source, string(r.Status)).Inc()
		m.SourceRecords.WithLabelValues(r.Source).Set(float64(r.Count))
	}
}
