package builder

import (
	"context"
	"fmt"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/graph"
	"github.com/specialistvlad/gridflow/internal/handlers"
	"github.com/specialistvlad/gridflow/internal/model"
	"github.com/specialistvlad/gridflow/internal/node"
)

// BuildWorkflow constructs the workflow graph described by defs.Tasks.
func BuildWorkflow(ctx context.Context, defs *model.Definitions, h *handlers.Handlers) (*graph.Store, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting workflow construction.", "task_count", len(defs.Tasks))

	g := graph.New()

	// First pass: create all nodes.
	if err := createNodes(ctx, defs.Tasks, g, h); err != nil {
		return nil, err
	}
	logger.Debug("Build: Node creation complete.", "node_count", g.Len())

	// Second pass: link dependencies.
	if err := linkNodes(ctx, defs.Tasks, g); err != nil {
		return nil, err
	}
	logger.Debug("Build: Node linking complete.")

	logger.Info("Build: Workflow construction successful.", "nodes", g.Len())
	return g, nil
}

func createNodes(ctx context.Context, tasks []*model.Task, g *graph.Store, h *handlers.Handlers) error {
	logger := ctxlog.FromContext(ctx)

	for _, t := range tasks {
		n := node.Node{
			ID:     t.ID,
			Kind:   t.Mode,
			Func:   t.Func,
			Params: t.Params,
		}
		if t.Mode == node.Automatic {
			compute, err := h.Resolve(t.ID, t.Func, t.Params)
			if err != nil {
				return fmt.Errorf("%s: %w", t.FSInformation, err)
			}
			n.Compute = compute
		}

		logger.Debug("Creating node.", "id", t.ID, "kind", t.Mode, "func", t.Func)
		created, err := g.AddNode(n)
		if err != nil {
			return fmt.Errorf("%s: task %q: %w", t.FSInformation, t.ID, err)
		}
		if !created {
			return fmt.Errorf("%s: duplicate task %q", t.FSInformation, t.ID)
		}
	}
	return nil
}

func linkNodes(ctx context.Context, tasks []*model.Task, g *graph.Store) error {
	logger := ctxlog.FromContext(ctx)

	for _, t := range tasks {
		if len(t.DependsOn) == 0 {
			continue
		}
		logger.Debug("Linking explicit dependencies.", "id", t.ID, "count", len(t.DependsOn))
		for _, dep := range t.DependsOn {
			if err := g.AddDependency(t.ID, dep); err != nil {
				return fmt.Errorf("%s: task %q depends_on %q: %w", t.FSInformation, t.ID, dep, err)
			}
		}
	}
	return nil
}
