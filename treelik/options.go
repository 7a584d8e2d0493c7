// SPDX-License-Identifier: MIT

// Functional configuration for the engine. Option constructors panic only on
// nonsensical values (programmer error); everything else is validated when
// the engine is built.
package treelik

import (
	"io"
	"log/slog"
	"math"
)

// Defaults.
const (
	// DefaultRescaleEvery rescales after every 5th internal node processed.
	DefaultRescaleEvery = 5

	// DefaultBoundsInset is the gap kept between a slot bound and the model's
	// nominal limit.
	DefaultBoundsInset = 1e-6
)

const (
	panicRescaleEvery = "treelik: WithRescaleEvery: every must be >= 1"
	panicWorkers      = "treelik: WithWorkers: workers must be >= 1"
	panicBoundsInset  = "treelik: WithBoundsInset: inset must be finite and >= 0"
	panicScheduler    = "treelik: WithScheduler: scheduler must not be nil"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	rescaleEvery int
	scheduler    Scheduler
	boundsInset  float64
	logger       *slog.Logger
	metrics      *Metrics
}

func defaultOptions() options {
	return options{
		rescaleEvery: DefaultRescaleEvery,
		scheduler:    Sequential{},
		boundsInset:  DefaultBoundsInset,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func gatherOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithRescaleEvery sets how many internal nodes are processed between
// underflow rescalings. A value larger than the number of internal nodes
// disables rescaling.
func WithRescaleEvery(every int) Option {
	if every < 1 {
		panic(panicRescaleEvery)
	}
	return func(o *options) { o.rescaleEvery = every }
}

// WithScheduler injects the scheduler that runs per-parameter derivative
// tasks.
func WithScheduler(s Scheduler) Option {
	if s == nil {
		panic(panicScheduler)
	}
	return func(o *options) { o.scheduler = s }
}

// WithWorkers runs derivative tasks on a pool of the given size. One worker
// is the sequential path.
func WithWorkers(workers int) Option {
	if workers < 1 {
		panic(panicWorkers)
	}
	if workers == 1 {
		return WithScheduler(Sequential{})
	}
	return WithScheduler(Pool{Workers: workers})
}

// WithBoundsInset sets the inset applied to finite parameter limits.
func WithBoundsInset(inset float64) Option {
	if math.IsNaN(inset) || math.IsInf(inset, 0) || inset < 0 {
		panic(panicBoundsInset)
	}
	return func(o *options) { o.boundsInset = inset }
}

// WithLogger sets the logger. nil keeps the discarding default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics attaches Prometheus collectors created by NewMetrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}
