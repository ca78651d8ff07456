package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "timeline"

// Outcome and result labels.
const (
	DragCommitted = "committed"
	DragCancelled = "cancelled"
	DragDiscarded = "discarded"

	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultCoalesced = "coalesced"
)

// Collector exposes drag, persist and reconciliation metrics. A nil
// *Collector is valid and records nothing.
type Collector struct {
	drags          *prometheus.CounterVec
	persists       *prometheus.CounterVec
	persistLatency prometheus.Histogram
	reconciles     *prometheus.CounterVec
	conflicts      prometheus.Gauge
	jobs           prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewCollector registers the timeline metrics with reg. When reg is also a
// Gatherer, Handler serves from it.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		drags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drag_sessions_total",
			Help:      "Drag sessions by outcome",
		}, []string{"outcome"}),
		persists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persists_total",
			Help:      "Schedule updates sent to the order API by result",
		}, []string{"result"}),
		persistLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_latency_seconds",
			Help:      "Latency of schedule updates in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Schedule refreshes from the order API by result",
		}, []string{"result"}),
		conflicts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conflicts",
			Help:      "Overlapping job pairs in the current schedule",
		}),
		jobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs",
			Help:      "Jobs in the working set",
		}),
	}

	reg.MustRegister(c.drags, c.persists, c.persistLatency, c.reconciles, c.conflicts, c.jobs)
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	}
	return c
}

func (c *Collector) RecordDrag(outcome string) {
	if c == nil {
		return
	}
	c.drags.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordPersist(result string, latency time.Duration) {
	if c == nil {
		return
	}
	c.persists.WithLabelValues(result).Inc()
	if result != ResultCoalesced {
		c.persistLatency.Observe(latency.Seconds())
	}
}

func (c *Collector) RecordReconcile(result string, jobs int) {
	if c == nil {
		return
	}
	c.reconciles.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		c.jobs.Set(float64(jobs))
	}
}

func (c *Collector) SetConflicts(n int) {
	if c == nil {
		return
	}
	c.conflicts.Set(float64(n))
}

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
