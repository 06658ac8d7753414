package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/execlog"
	"github.com/specialistvlad/gridflow/internal/formula"
	"github.com/specialistvlad/gridflow/internal/graph"
	"github.com/specialistvlad/gridflow/internal/metrics"
	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/specialistvlad/gridflow/internal/scheduler"
)

// Suspension describes the manual node a run is paused at.
type Suspension struct {
	RunID  string
	NodeID string
	// Input is the aggregated result of the node's dependencies.
	Input any
	// Since is when the node entered WaitingManual.
	Since time.Time
}

// Engine executes a workflow graph. It is safe for concurrent use; calls are
// serialized.
type Engine struct {
	mu       sync.Mutex
	graph    *graph.Store
	sink     execlog.Sink
	metrics  *metrics.Metrics
	now      func() time.Time
	newRunID func() string

	runID   string
	pending *Suspension
	// visited holds the nodes already evaluated in the current run.
	visited map[string]bool
}

// New creates an Engine over g.
func New(g *graph.Store, opts ...Option) *Engine {
	e := &Engine{
		graph:    g,
		sink:     execlog.Discard,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the store the engine runs over.
func (e *Engine) Graph() *graph.Store { return e.graph }

// Run executes every node that is not yet Done. It returns a non-nil
// Suspension when the walk stopped at a manual node, and (nil, nil) when every
// node is Done.
func (e *Engine) Run(ctx context.Context) (*Suspension, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending != nil {
		return nil, &ConcurrentManualTaskError{PendingID: e.pending.NodeID}
	}

	e.runID = e.newRunID()
	e.visited = make(map[string]bool)
	ctx, logger := ctxlog.With(ctx, "runID", e.runID)
	logger.Info("▶️ Starting workflow run.", "nodes", e.graph.Len())
	return e.traverse(ctx)
}

// ResolveManual supplies the output of the pending manual node and resumes
// the walk with its dependents.
func (e *Engine) ResolveManual(ctx context.Context, id string, output any) (*Suspension, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.graph.Has(id) {
		return nil, &graph.UnknownNodeError{ID: id}
	}
	if e.pending == nil || e.pending.NodeID != id {
		return nil, fmt.Errorf("resolve %q: %w", id, ErrNotWaiting)
	}

	ctx, logger := ctxlog.With(ctx, "runID", e.runID)
	pending := *e.pending
	if err := e.graph.MarkRunning(id, e.now()); err != nil {
		return nil, err
	}
	finished := e.now()
	if err := e.graph.MarkDone(id, output, finished); err != nil {
		return nil, err
	}
	e.pending = nil

	e.metrics.ManualWait(finished.Sub(pending.Since))
	e.metrics.NodeExecuted(node.Manual, metrics.OutcomeDone)
	e.record(ctx, id, pending.Input, output, finished)
	logger.Info("✅ Manual task resolved.", "nodeID", id, "waited", finished.Sub(pending.Since))

	return e.traverse(ctx)
}

// Cancel fails the pending manual node with ErrCancelled and frees the
// manual slot so a new run can start.
func (e *Engine) Cancel(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending == nil {
		return ErrNoPendingManual
	}

	id := e.pending.NodeID
	if err := e.graph.MarkFailed(id, ErrCancelled, e.now()); err != nil {
		return err
	}
	e.pending = nil

	e.metrics.NodeExecuted(node.Manual, metrics.OutcomeCancelled)
	ctxlog.FromContext(ctx).Warn("Manual task cancelled.", "runID", e.runID, "nodeID", id)
	return nil
}

// Pending returns the current suspension, if any.
func (e *Engine) Pending() (Suspension, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending == nil {
		return Suspension{}, false
	}
	return *e.pending, true
}

// Reset returns every node to Pending for a fresh run. It is refused while a
// manual node is waiting; Cancel first.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending != nil {
		return &ConcurrentManualTaskError{PendingID: e.pending.NodeID}
	}
	e.runID = ""
	e.visited = nil
	e.graph.ResetStates()
	return nil
}

// traverse runs every node that is not Done and was not yet evaluated in this
// run, in scheduler order. The order is recomputed on every call so nodes
// added while suspended are included.
func (e *Engine) traverse(ctx context.Context) (*Suspension, error) {
	logger := ctxlog.FromContext(ctx)

	order, err := scheduler.TopologicalOrder(e.graph)
	if err != nil {
		logger.Error("Cannot order workflow.", "error", err)
		return nil, err
	}

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			logger.Warn("Workflow run interrupted.", "error", err)
			return nil, err
		}

		n, ok := e.graph.Node(id)
		if !ok {
			return nil, &graph.UnknownNodeError{ID: id}
		}
		if n.State == node.Done || e.visited[id] {
			continue
		}
		e.visited[id] = true

		input := e.gatherInput(n)
		nodeLogger := logger.With("nodeID", id, "kind", n.Kind.String())

		switch n.Kind {
		case node.Manual:
			return e.suspend(ctx, nodeLogger, n, input)
		case node.Formula:
			if err := e.evaluateFormula(ctx, nodeLogger, n, input); err != nil {
				return nil, err
			}
		case node.Value:
			if err := e.complete(ctx, n, input, n.Raw); err != nil {
				return nil, err
			}
		default:
			if err := e.runAutomatic(ctx, nodeLogger, n, input); err != nil {
				return nil, err
			}
		}
	}

	logger.Info("✅ Workflow run finished.")
	return nil, nil
}

func (e *Engine) runAutomatic(ctx context.Context, logger *slog.Logger, n node.Node, input any) error {
	if err := e.graph.MarkRunning(n.ID, e.now()); err != nil {
		return err
	}
	logger.Debug("Running node.")

	if n.Compute == nil {
		return e.fail(logger, n, ErrNoCompute)
	}
	output, err := n.Compute(ctx, input)
	if err != nil {
		return e.fail(logger, n, err)
	}

	if err := e.complete(ctx, n, input, output); err != nil {
		return err
	}
	logger.Debug("Node finished.")
	return nil
}

func (e *Engine) fail(logger *slog.Logger, n node.Node, cause error) error {
	if err := e.graph.MarkFailed(n.ID, cause, e.now()); err != nil {
		return errors.Join(cause, err)
	}
	e.metrics.NodeExecuted(n.Kind, metrics.OutcomeFailed)
	logger.Error("Node execution failed.", "error", cause)
	return &ComputeError{NodeID: n.ID, Err: cause}
}

func (e *Engine) complete(ctx context.Context, n node.Node, input, output any) error {
	finished := e.now()
	if err := e.graph.MarkDone(n.ID, output, finished); err != nil {
		return err
	}
	e.metrics.NodeExecuted(n.Kind, metrics.OutcomeDone)
	e.record(ctx, n.ID, input, output, finished)
	return nil
}

func (e *Engine) suspend(ctx context.Context, logger *slog.Logger, n node.Node, input any) (*Suspension, error) {
	if err := e.graph.MarkRunning(n.ID, e.now()); err != nil {
		return nil, err
	}
	since := e.now()
	if err := e.graph.MarkWaiting(n.ID, since); err != nil {
		return nil, err
	}
	e.pending = &Suspension{
		RunID:  e.runID,
		NodeID: n.ID,
		Input:  input,
		Since:  since,
	}
	e.metrics.NodeExecuted(node.Manual, metrics.OutcomeSuspended)
	logger.Info("⏸️ Waiting for manual input.", "input", input)

	s := *e.pending
	return &s, nil
}

// evaluateFormula stores the formula result, or formula.ErrorValue on failure.
// Formula failures are data and never stop the walk.
func (e *Engine) evaluateFormula(ctx context.Context, logger *slog.Logger, n node.Node, input any) error {
	if err := e.graph.MarkRunning(n.ID, e.now()); err != nil {
		return err
	}

	value, ferr := formula.Evaluate(n.Expression, e.lookup)
	if ferr != nil {
		e.metrics.FormulaError()
		e.metrics.NodeExecuted(node.Formula, metrics.OutcomeFailed)
		logger.Warn("Formula evaluated to an error.", "expression", n.Expression, "error", ferr)
		return e.graph.SetValue(n.ID, value, node.Error, ferr, e.now())
	}
	return e.complete(ctx, n, input, value)
}

func (e *Engine) lookup(id string) (any, bool) {
	value, _, ok := e.graph.Result(id)
	return value, ok
}

// gatherInput aggregates the results of n's dependencies. Duplicate edges
// contribute once.
func (e *Engine) gatherInput(n node.Node) any {
	deps := uniqueInOrder(n.Dependencies)
	switch len(deps) {
	case 0:
		return nil
	case 1:
		value, _, _ := e.graph.Result(deps[0])
		return value
	}

	inputs := make([]any, 0, len(deps))
	for _, dep := range deps {
		value, _, _ := e.graph.Result(dep)
		inputs = append(inputs, value)
	}
	return inputs
}

func (e *Engine) record(ctx context.Context, id string, input, output any, at time.Time) {
	e.sink.Record(ctx, execlog.Entry{
		RunID:     e.runID,
		NodeID:    id,
		Input:     input,
		Output:    output,
		Timestamp: at.UTC(),
	})
}

func uniqueInOrder(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
