// Package metrics exposes batch progress as Prometheus metrics. The
// collector uses its own registry so repeated construction in tests never
// trips duplicate registration.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the batch pipeline metrics.
type Collector struct {
	registry *prometheus.Registry

	segmentsTotal *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
}

// NewCollector creates and registers the pipeline metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		segmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arborstats_segments_total",
			Help: "Segments finished, partitioned by terminal outcome",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arborstats_stage_duration_seconds",
			Help:    "Wall-clock duration of pipeline stage executions",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"stage"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arborstats_segments_in_flight",
			Help: "Segments currently being processed by workers",
		}),
	}

	c.registry.MustRegister(c.segmentsTotal, c.stageDuration, c.inFlight)
	return c
}

// ObserveOutcome counts one finished segment by terminal outcome.
func (c *Collector) ObserveOutcome(outcome string) {
	c.segmentsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records the duration of one stage execution.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// UnitStarted marks a unit of work as in flight.
func (c *Collector) UnitStarted() {
	c.inFlight.Inc()
}

// UnitFinished marks a unit of work as done.
func (c *Collector) UnitFinished() {
	c.inFlight.Dec()
}

// Handler returns an HTTP handler serving the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
