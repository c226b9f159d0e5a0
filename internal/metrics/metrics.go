// Package metrics exposes pipeline and source health as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline run results.
const (
	ResultOK        = "ok"
	ResultCancelled = "cancelled"
	ResultError     = "error"
)

// Registry holds the service's collectors on a private Prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	PipelineRuns     *prometheus.CounterVec
	PipelineSkipped  prometheus.Counter
	PipelineDuration prometheus.Histogram
	SourceFailures   *prometheus.CounterVec
	PortfolioValue   prometheus.Gauge
	Notifications    *prometheus.CounterVec
}

// NewRegistry creates and registers all collectors, plus the Go runtime and
// process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		PipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pnl_pipeline_runs_total",
				Help: "Sampling pipeline runs by result",
			},
			[]string{"result"},
		),

		PipelineSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pnl_pipeline_skipped_total",
				Help: "Triggers dropped because a run was already in flight",
			},
		),

		PipelineDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pnl_pipeline_duration_seconds",
				Help:    "Duration of sampling pipeline runs in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),

		SourceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pnl_source_failures_total",
				Help: "Failed exchange, wallet or price fetches by source",
			},
			[]string{"source"},
		),

		PortfolioValue: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pnl_portfolio_value",
				Help: "Aggregated portfolio value in the display currency",
			},
		),

		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pnl_notifications_total",
				Help: "Delivered notifications by kind",
			},
			[]string{"kind"},
		),
	}

	r.reg.MustRegister(
		r.PipelineRuns,
		r.PipelineSkipped,
		r.PipelineDuration,
		r.SourceFailures,
		r.PortfolioValue,
		r.Notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveRun records a finished pipeline run.
func (r *Registry) ObserveRun(result string, d time.Duration) {
	r.PipelineRuns.WithLabelValues(result).Inc()
	r.PipelineDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
