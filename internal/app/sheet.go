package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/gridflow/internal/builder"
	"github.com/specialistvlad/gridflow/internal/scheduler"
	"github.com/specialistvlad/gridflow/internal/sheet"
)

// RunSheet evaluates the cells of the definitions, applies every edit in
// sets ("A1=7", "B1==A1*2") through change propagation, and prints the cells.
// Reference cycles are reported as warnings; the cells on them show "#ERROR".
func (a *App) RunSheet(ctx context.Context, sets []string) error {
	ctx = a.withLogger(ctx)

	edits, err := parseEdits(sets)
	if err != nil {
		return err
	}

	defs, err := a.loadDefinitions(ctx)
	if err != nil {
		return err
	}
	s, err := builder.BuildSheet(ctx, defs, a.sheetOptions()...)
	if err := a.tolerateCycle(err); err != nil {
		return fmt.Errorf("failed to build sheet: %w", err)
	}

	for _, e := range edits {
		a.logger.Info("✏️ Updating cell.", "cellID", e.id, "raw", e.raw)
		err := s.OnValueChanged(ctx, e.id, e.raw)
		if err := a.tolerateCycle(err); err != nil {
			return fmt.Errorf("update %s: %w", e.id, err)
		}
	}

	a.printSheet(s)
	return nil
}

type edit struct {
	id  string
	raw string
}

func parseEdits(sets []string) ([]edit, error) {
	edits := make([]edit, 0, len(sets))
	for _, set := range sets {
		id, raw, ok := strings.Cut(set, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --set %q: want CELL=VALUE", set)
		}
		edits = append(edits, edit{id: id, raw: raw})
	}
	return edits, nil
}

func (a *App) sheetOptions() []sheet.Option {
	return []sheet.Option{sheet.WithSink(a.sink), sheet.WithMetrics(a.metrics)}
}

// tolerateCycle logs a reference cycle and swallows it. Other errors pass through.
func (a *App) tolerateCycle(err error) error {
	var cycle *scheduler.CycleError
	if errors.As(err, &cycle) {
		a.logger.Warn("Reference cycle in sheet.", "cycle", strings.Join(cycle.Path, " -> "))
		return nil
	}
	return err
}

func (a *App) printSheet(s *sheet.Sheet) {
	for _, c := range s.Cells() {
		fmt.Fprintf(a.outW, "%s = %s\n", c.ID, c.Value)
	}
}
