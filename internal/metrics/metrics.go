// Package metrics exposes Prometheus metrics for the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BuildInfo labels the app_build_info gauge.
type BuildInfo struct {
	Version  string
	Revision string
}

// Provider owns a private registry with runtime, build and query metrics.
type Provider struct {
	reg     *prometheus.Registry
	Queries *QueryObserver
}

// Init creates a Provider and registers its collectors.
func Init(build BuildInfo) *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	info := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version", "revision"},
	)
	reg.MustRegister(info)
	if build.Version == "" {
		build.Version = "dev"
	}
	info.WithLabelValues(build.Version, build.Revision).Set(1)

	q := NewQueryObserver()
	q.Register(reg)

	return &Provider{reg: reg, Queries: q}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

// QueryObserver records backend query outcomes. A nil observer is a no-op.
type QueryObserver struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewQueryObserver creates an unregistered observer.
func NewQueryObserver() *QueryObserver {
	return &QueryObserver{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alerts_backend_queries_total",
				Help: "Queries sent to the alert search backend.",
			},
			[]string{"dataset", "kind", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alerts_backend_query_duration_seconds",
				Help:    "Latency of alert search backend queries.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"dataset", "kind"},
		),
	}
}

// Register adds the observer's collectors to reg.
func (q *QueryObserver) Register(reg prometheus.Registerer) {
	reg.MustRegister(q.total, q.duration)
}

// Observe records one query. kind is "count" or "rows".
func (q *QueryObserver) Observe(dataset, kind string, took time.Duration, err error) {
	if q == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	q.total.WithLabelValues(dataset, kind, outcome).Inc()
	q.duration.WithLabelValues(dataset, kind).Observe(took.Seconds())
}
