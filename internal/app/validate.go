package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/gridflow/internal/builder"
	"github.com/specialistvlad/gridflow/internal/scheduler"
)

// Validate loads and builds the definitions and checks both graphs for
// cycles without running anything.
func (a *App) Validate(ctx context.Context) error {
	ctx = a.withLogger(ctx)

	defs, err := a.loadDefinitions(ctx)
	if err != nil {
		return err
	}
	g, err := builder.BuildWorkflow(ctx, defs, a.handlers)
	if err != nil {
		return fmt.Errorf("failed to build workflow: %w", err)
	}
	if err := scheduler.DetectCycles(g); err != nil {
		return fmt.Errorf("invalid workflow: %w", err)
	}
	if len(defs.Cells) > 0 {
		if _, err := builder.BuildSheet(ctx, defs); err != nil {
			return fmt.Errorf("invalid sheet: %w", err)
		}
	}

	fmt.Fprintf(a.outW, "✅ %d tasks, %d cells: OK\n", len(defs.Tasks), len(defs.Cells))
	return nil
}
