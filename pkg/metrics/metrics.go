package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	PagesTotal          *prometheus.CounterVec
	AssetsTotal         *prometheus.CounterVec
	DiscoveriesTotal    *prometheus.CounterVec
	FrontierSize        prometheus.Gauge
	RenderDuration      prometheus.Histogram
	RunsTotal           *prometheus.CounterVec
}

// New registers the metrics with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		PagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirror_pages_total",
				Help: "Pages rendered, by status.",
			},
			[]string{"status"}, // success, failure
		),
		AssetsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirror_assets_total",
				Help: "Assets downloaded, by category and status.",
			},
			[]string{"category", "status"},
		),
		DiscoveriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirror_discoveries_total",
				Help: "Discovered URLs, by category and outcome.",
			},
			[]string{"category", "outcome"},
		),
		FrontierSize: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "mirror_frontier_size",
				Help: "Current number of pages waiting in the frontier.",
			},
		),
		RenderDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mirror_render_duration_seconds",
				Help:    "Duration of page renders.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirror_runs_total",
				Help: "Finished mirror runs, by terminal phase.",
			},
			[]string{"phase"},
		),
	}
}
