// SPDX-License-Identifier: MIT

package treelik

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	recomputations  prometheus.Counter
	skippedUpdates  prometheus.Counter
	rescales        prometheus.Counter
	numericFailures *prometheus.CounterVec
	duration        prometheus.Histogram
}

// NewMetrics registers the engine collectors with reg. Engines sharing one
// registry must share one *Metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		recomputations: f.NewCounter(prometheus.CounterOpts{
			Name: "codonlik_recomputations_total",
			Help: "Full likelihood and gradient recomputations.",
		}),
		skippedUpdates: f.NewCounter(prometheus.CounterOpts{
			Name: "codonlik_skipped_updates_total",
			Help: "Updates with an unchanged parameter vector.",
		}),
		rescales: f.NewCounter(prometheus.CounterOpts{
			Name: "codonlik_rescales_total",
			Help: "Internal nodes rescaled against underflow.",
		}),
		numericFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codonlik_numeric_failures_total",
			Help: "Recomputations aborted by a numeric failure.",
		}, []string{"pass"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "codonlik_recompute_duration_seconds",
			Help:    "Wall time of successful recomputations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}
}

func (m *Metrics) recomputed(d time.Duration, rescaled int) {
	if m == nil {
		return
	}
	m.recomputations.Inc()
	m.rescales.Add(float64(rescaled))
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) skipped() {
	if m == nil {
		return
	}
	m.skippedUpdates.Inc()
}

func (m *Metrics) failed(pass string) {
	if m == nil {
		return
	}
	m.numericFailures.WithLabelValues(pass).Inc()
}
