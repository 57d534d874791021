package publish

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aztec-labs/rollup-publisher/metrics"
)

var _ MetricsRecorder = (*Metrics)(nil)

// Metrics is the concrete prometheus-backed MetricsRecorder.
type Metrics struct {
	publishDuration prometheus.Histogram
	outcomesTotal   *prometheus.CounterVec
	gateWaitsTotal  *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
}

// NewMetrics registers the publisher's metrics under the given registry.
func NewMetrics(reg *metrics.ComponentRegistry) *Metrics {
	return &Metrics{
		publishDuration: reg.NewHistogram(prometheus.HistogramOpts{
			Name:    "publish_duration_seconds",
			Help:    "Time spent in a single Publish call, from batch construction to terminal outcome.",
			Buckets: metrics.DurationBuckets,
		}),
		outcomesTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "publish_outcomes_total",
			Help: "Total number of Publish calls by terminal outcome.",
		}, []string{"outcome"}),
		gateWaitsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_waits_total",
			Help: "Total number of times the gas/balance gate held a publish attempt, by reason.",
		}, []string{"reason"}),
		retriesTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_retries_total",
			Help: "Total number of batch-level retries, by reason.",
		}, []string{"reason"}),
	}
}

// PublishTimer starts a publish-duration measurement.
func (m *Metrics) PublishTimer() func() {
	start := time.Now()
	return func() {
		m.publishDuration.Observe(time.Since(start).Seconds())
	}
}

// RecordOutcome increments the outcome counter for outcome.
func (m *Metrics) RecordOutcome(outcome Outcome) {
	m.outcomesTotal.WithLabelValues(outcome.String()).Inc()
}

// RecordGateWait increments the gate-wait counter for reason.
func (m *Metrics) RecordGateWait(reason string) {
	m.gateWaitsTotal.WithLabelValues(reason).Inc()
}

// RecordRetry increments the batch-retry counter for reason.
func (m *Metrics) RecordRetry(reason string) {
	m.retriesTotal.WithLabelValues(reason).Inc()
}
