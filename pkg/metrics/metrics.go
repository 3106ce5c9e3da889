/*
Package metrics exposes prometheus collectors for index lookups.

Collectors are registered on a Registry owned by the caller so tests and
embedders can run several servers side by side. Handler serves them in the
prometheus text format.
*/
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wordindex"

// Result labels for RequestsTotal.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the collectors shared by the IPC server and the loader.
type Metrics struct {
	registry      *prometheus.Registry
	RequestsTotal *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
	OpenSets      prometheus.Gauge
	OpenRecords   prometheus.Gauge
}

// New creates the collectors and registers them, plus the go and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "IPC requests handled, by action and result.",
		}, []string{"action", "result"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent handling IPC requests.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"action"}),
		OpenSets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_sets",
			Help:      "Index sets currently open.",
		}),
		OpenRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_records",
			Help:      "Records across all open index sets.",
		}),
	}
	m.registry.MustRegister(
		m.RequestsTotal,
		m.Latency,
		m.OpenSets,
		m.OpenRecords,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one handled request. A nil receiver is a no-op.
func (m *Metrics) Observe(action string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.RequestsTotal.WithLabelValues(action, result).Inc()
	m.Latency.WithLabelValues(action).Observe(elapsed.Seconds())
}

// SetOpen updates the open-set gauges. A nil receiver is a no-op.
func (m *Metrics) SetOpen(sets, records int) {
	if m == nil {
		return
	}
	m.OpenSets.Set(float64(sets))
	m.OpenRecords.Set(float64(records))
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until the listener fails.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
