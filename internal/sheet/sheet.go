// Package sheet implements reactive spreadsheet evaluation on top of the
// shared dependency graph. Cells are graph nodes; a formula's references are
// its dependencies. Changing a cell recomputes exactly the cells that
// transitively depend on it.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/execlog"
	"github.com/specialistvlad/gridflow/internal/formula"
	"github.com/specialistvlad/gridflow/internal/graph"
	"github.com/specialistvlad/gridflow/internal/metrics"
	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/specialistvlad/gridflow/internal/scheduler"
)

// FormulaPrefix marks raw cell input as a formula.
const FormulaPrefix = "="

// Cell is a snapshot of one cell.
type Cell struct {
	ID    string
	Raw   string
	Value string
	State node.State
	Err   error
}

// Option configures a Sheet.
type Option func(*Sheet)

// WithSink sets the execution-log sink for successful cell evaluations.
func WithSink(sink execlog.Sink) Option {
	return func(s *Sheet) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sheet) { s.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sheet) {
		if now != nil {
			s.now = now
		}
	}
}

// Sheet is the change propagator. Calls are serialized.
type Sheet struct {
	mu      sync.Mutex
	graph   *graph.Store
	sink    execlog.Sink
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a Sheet over g. A nil g starts an empty graph.
func New(g *graph.Store, opts ...Option) *Sheet {
	if g == nil {
		g = graph.New()
	}
	s := &Sheet{
		graph: g,
		sink:  execlog.Discard,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Graph returns the underlying store.
func (s *Sheet) Graph() *graph.Store { return s.graph }

// Set defines a cell from raw input without recomputing anything. Use it to
// load many cells, then call Recalculate once.
func (s *Sheet) Set(id, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.define(id, raw)
}

// OnValueChanged sets the raw input of id and recomputes id and every cell
// that transitively depends on it, in dependency order. Cells outside that
// set are not touched.
//
// Formula failures become "#ERROR" in the cell and do not stop propagation.
// If the change closes a reference cycle, the cells on the cycle become
// "#ERROR", the rest of the set is still recomputed, and the *CycleError is
// returned.
func (s *Sheet) OnValueChanged(ctx context.Context, id, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := ctxlog.FromContext(ctx).With("cellID", id)
	if err := s.define(id, raw); err != nil {
		logger.Error("Cannot update cell.", "error", err)
		return err
	}

	reachable, err := scheduler.ForwardReachable(s.graph, id)
	if err != nil {
		return err
	}
	logger.Debug("Propagating change.", "affected", len(reachable))
	return s.propagate(ctx, reachable)
}

// Recalculate recomputes every cell.
func (s *Sheet) Recalculate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.propagate(ctx, s.graph.IDs())
}

// Value returns the displayed value of id.
func (s *Sheet) Value(id string) (string, bool) {
	result, _, ok := s.graph.Result(id)
	if !ok {
		return "", false
	}
	return display(result), true
}

// Values returns every cell's displayed value keyed by id.
func (s *Sheet) Values() map[string]string {
	out := make(map[string]string, s.graph.Len())
	for _, n := range s.graph.Nodes() {
		out[n.ID] = display(n.Result)
	}
	return out
}

// Cells returns a snapshot of every cell in registration order.
func (s *Sheet) Cells() []Cell {
	nodes := s.graph.Nodes()
	cells := make([]Cell, 0, len(nodes))
	for _, n := range nodes {
		cells = append(cells, Cell{
			ID:    n.ID,
			Raw:   RawInput(n),
			Value: display(n.Result),
			State: n.State,
			Err:   n.Err,
		})
	}
	return cells
}

// RawInput reconstructs the text a user would have typed for n.
func RawInput(n node.Node) string {
	if n.Kind == node.Formula {
		return FormulaPrefix + n.Expression
	}
	return n.Raw
}

// define applies the structural part of a change: the cell's kind, its
// expression or literal, and its dependency list. Referenced cells that do not
// exist yet are created empty.
func (s *Sheet) define(id, raw string) error {
	if id == "" {
		return graph.ErrEmptyID
	}

	def := node.Node{ID: id, Kind: node.Value, Raw: raw}
	var refs []string
	if expr, ok := strings.CutPrefix(raw, FormulaPrefix); ok {
		def = node.Node{ID: id, Kind: node.Formula, Expression: expr}
		// An unparsable formula keeps no references; evaluation reports it.
		if parsed, err := formula.Parse(expr); err == nil {
			refs = parsed.References()
		}
	}

	created, err := s.graph.AddNode(def)
	if err != nil {
		return err
	}
	if !created {
		if err := s.graph.Redefine(def); err != nil {
			return err
		}
	}

	for _, ref := range refs {
		added, err := s.graph.AddNode(node.Node{ID: ref, Kind: node.Value})
		if err != nil {
			return err
		}
		if added {
			if err := s.graph.SetValue(ref, "", node.Done, nil, s.now()); err != nil {
				return err
			}
		}
	}
	return s.graph.SetDependencies(id, refs)
}

// propagate recomputes ids in dependency order. Cells on a cycle are set to
// "#ERROR" and excluded so the remaining cells can still be ordered.
func (s *Sheet) propagate(ctx context.Context, ids []string) error {
	logger := ctxlog.FromContext(ctx)

	remaining := make(map[string]bool, len(ids))
	for _, id := range ids {
		remaining[id] = true
	}

	var cycleErr error
	var order []string
	for {
		start := make([]string, 0, len(remaining))
		for _, id := range ids {
			if remaining[id] {
				start = append(start, id)
			}
		}

		var err error
		order, err = scheduler.OrderWithin(s.graph, start, func(id string) bool { return remaining[id] })
		if err == nil {
			break
		}

		var cycle *scheduler.CycleError
		if !errors.As(err, &cycle) {
			return err
		}
		logger.Warn("Reference cycle detected.", "cycle", strings.Join(cycle.Path, " -> "))
		if cycleErr == nil {
			cycleErr = cycle
		}
		for _, member := range cycle.Members() {
			delete(remaining, member)
			if err := s.graph.SetValue(member, formula.ErrorValue, node.Error, cycle, s.now()); err != nil {
				return err
			}
			s.metrics.FormulaError()
		}
	}

	for _, id := range order {
		if err := s.evaluate(ctx, id); err != nil {
			return err
		}
	}
	s.metrics.Propagated(len(ids))
	return cycleErr
}

func (s *Sheet) evaluate(ctx context.Context, id string) error {
	n, ok := s.graph.Node(id)
	if !ok {
		return &graph.UnknownNodeError{ID: id}
	}

	switch n.Kind {
	case node.Formula:
		value, ferr := formula.Evaluate(n.Expression, s.lookup)
		if ferr != nil {
			s.metrics.FormulaError()
			s.metrics.NodeExecuted(node.Formula, metrics.OutcomeFailed)
			ctxlog.FromContext(ctx).Debug("Formula evaluated to an error.", "cellID", id, "error", ferr)
			return s.graph.SetValue(id, value, node.Error, ferr, s.now())
		}
		return s.store(ctx, n, value)
	case node.Value:
		return s.store(ctx, n, n.Raw)
	default:
		return fmt.Errorf("cell %q has kind %s, which a sheet cannot evaluate", id, n.Kind)
	}
}

func (s *Sheet) store(ctx context.Context, n node.Node, value string) error {
	at := s.now()
	if err := s.graph.SetValue(n.ID, value, node.Done, nil, at); err != nil {
		return err
	}
	s.metrics.NodeExecuted(n.Kind, metrics.OutcomeDone)
	s.sink.Record(ctx, execlog.Entry{
		NodeID:    n.ID,
		Input:     RawInput(n),
		Output:    value,
		Timestamp: at.UTC(),
	})
	return nil
}

func (s *Sheet) lookup(id string) (any, bool) {
	value, _, ok := s.graph.Result(id)
	return value, ok
}

func display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
