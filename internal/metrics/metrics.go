// Package metrics exposes Prometheus instrumentation for the engine and the
// spreadsheet propagator. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/specialistvlad/gridflow/internal/node"
)

// Outcome labels for node executions.
const (
	OutcomeDone      = "done"
	OutcomeSuspended = "suspended"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	nodeExecutions  *prometheus.CounterVec
	manualWait      prometheus.Histogram
	formulaErrors   prometheus.Counter
	propagations    prometheus.Counter
	propagatedNodes prometheus.Histogram
}

// New registers the collectors with reg. Use prometheus.NewRegistry() in
// tests to avoid duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		nodeExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridflow_node_executions_total",
			Help: "Node evaluations by node kind and outcome",
		}, []string{"kind", "outcome"}),
		manualWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gridflow_manual_wait_seconds",
			Help:    "Time a manual node spent waiting for its output",
			Buckets: []float64{1, 10, 60, 300, 1800, 3600, 86400},
		}),
		formulaErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridflow_formula_errors_total",
			Help: "Formula evaluations that produced #ERROR",
		}),
		propagations: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridflow_propagations_total",
			Help: "Value changes propagated through the sheet",
		}),
		propagatedNodes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gridflow_propagated_nodes",
			Help:    "Nodes recomputed per value change",
			Buckets: []float64{1, 2, 5, 10, 50, 100, 500},
		}),
	}
}

// NodeExecuted counts one evaluation of a node of the given kind.
func (m *Metrics) NodeExecuted(kind node.Kind, outcome string) {
	if m == nil {
		return
	}
	m.nodeExecutions.WithLabelValues(kind.String(), outcome).Inc()
}

// ManualWait observes how long a manual node was pending.
func (m *Metrics) ManualWait(d time.Duration) {
	if m == nil {
		return
	}
	m.manualWait.Observe(d.Seconds())
}

// FormulaError counts a formula that evaluated to #ERROR.
func (m *Metrics) FormulaError() {
	if m == nil {
		return
	}
	m.formulaErrors.Inc()
}

// Propagated records one onValueChanged call that recomputed n nodes.
func (m *Metrics) Propagated(n int) {
	if m == nil {
		return
	}
	m.propagations.Inc()
	m.propagatedNodes.Observe(float64(n))
}
