package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/gridflow/internal/badgerstore"
	"github.com/specialistvlad/gridflow/internal/builder"
	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/graph"
	"github.com/specialistvlad/gridflow/internal/sheet"
	"github.com/specialistvlad/gridflow/internal/topologystore"
)

// SheetKeySuffix is appended to the store key for the sheet structure.
const SheetKeySuffix = ".sheet"

// Save persists the structure of the workflow and, when the definitions have
// cells, of the sheet.
func (a *App) Save(ctx context.Context) error {
	ctx = a.withLogger(ctx)

	defs, err := a.loadDefinitions(ctx)
	if err != nil {
		return err
	}
	g, err := builder.BuildWorkflow(ctx, defs, a.handlers)
	if err != nil {
		return fmt.Errorf("failed to build workflow: %w", err)
	}

	var cells *graph.Store
	if len(defs.Cells) > 0 {
		s, err := builder.BuildSheet(ctx, defs)
		if err := a.tolerateCycle(err); err != nil {
			return fmt.Errorf("failed to build sheet: %w", err)
		}
		cells = s.Graph()
	}
	return a.saveGraphs(ctx, g, cells)
}

// saveGraphs writes the workflow under the configured key and the sheet, when
// not nil, under the key plus SheetKeySuffix.
func (a *App) saveGraphs(ctx context.Context, workflow, cells *graph.Store) error {
	logger := ctxlog.FromContext(ctx)

	kv, err := a.openStore()
	if err != nil {
		return err
	}
	defer kv.Close()

	key := a.config.StoreKey
	if err := topologystore.Save(ctx, kv, key, workflow); err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}
	fmt.Fprintf(a.outW, "💾 Saved %d tasks to %s (key %q)\n", workflow.Len(), a.config.StorePath, key)

	if cells != nil {
		if err := topologystore.Save(ctx, kv, key+SheetKeySuffix, cells); err != nil {
			return fmt.Errorf("failed to save sheet: %w", err)
		}
		fmt.Fprintf(a.outW, "💾 Saved %d cells to %s (key %q)\n", cells.Len(), a.config.StorePath, key+SheetKeySuffix)
	}
	logger.Debug("Structure saved.", "store", a.config.StorePath, "key", key)
	return nil
}

// Load restores the saved structure and prints it. Restored cells are
// recalculated, since values are never persisted.
func (a *App) Load(ctx context.Context) error {
	ctx = a.withLogger(ctx)

	kv, err := a.openStore()
	if err != nil {
		return err
	}
	defer kv.Close()

	key := a.config.StoreKey
	found := false

	g, err := topologystore.Load(ctx, kv, key, a.handlers.Resolve)
	switch {
	case errors.Is(err, topologystore.ErrNotFound):
		a.logger.Debug("No workflow saved under key.", "key", key)
	case err != nil:
		return fmt.Errorf("failed to load workflow: %w", err)
	default:
		found = true
		fmt.Fprintf(a.outW, "Workflow %q:\n", key)
		a.printTopology(g)
	}

	cells, err := topologystore.Load(ctx, kv, key+SheetKeySuffix, nil)
	switch {
	case errors.Is(err, topologystore.ErrNotFound):
		a.logger.Debug("No sheet saved under key.", "key", key+SheetKeySuffix)
	case err != nil:
		return fmt.Errorf("failed to load sheet: %w", err)
	default:
		found = true
		s := sheet.New(cells, a.sheetOptions()...)
		if err := a.tolerateCycle(s.Recalculate(ctx)); err != nil {
			return err
		}
		fmt.Fprintf(a.outW, "Sheet %q:\n", key+SheetKeySuffix)
		a.printSheet(s)
	}

	if !found {
		return fmt.Errorf("nothing saved under key %q in %s: %w", key, a.config.StorePath, topologystore.ErrNotFound)
	}
	return nil
}

func (a *App) openStore() (*badgerstore.Store, error) {
	cfg := badgerstore.DefaultConfig(a.config.StorePath)
	cfg.Logger = a.logger.With("component", "badger")
	kv, err := badgerstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return kv, nil
}

func (a *App) printTopology(g *graph.Store) {
	for _, n := range g.Nodes() {
		line := fmt.Sprintf("  %s (%s", n.ID, n.Kind)
		if n.Func != "" {
			line += ", " + n.Func
		}
		line += ")"
		if len(n.Dependencies) > 0 {
			line += " <- " + strings.Join(n.Dependencies, ", ")
		}
		fmt.Fprintln(a.outW, line)
	}
}
