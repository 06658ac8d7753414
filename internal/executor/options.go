package executor

import (
	"time"

	"github.com/specialistvlad/gridflow/internal/execlog"
	"github.com/specialistvlad/gridflow/internal/metrics"
)

// Option configures an Engine.
type Option func(*Engine)

// WithSink sets the execution-log sink. The default discards entries.
func WithSink(sink execlog.Sink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRunIDs replaces the run id generator.
func WithRunIDs(next func() string) Option {
	return func(e *Engine) {
		if next != nil {
			e.newRunID = next
		}
	}
}
