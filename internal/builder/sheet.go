package builder

import (
	"context"
	"fmt"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/model"
	"github.com/specialistvlad/gridflow/internal/sheet"
)

// BuildSheet defines every cell in defs.Cells and computes all values.
//
// A reference cycle does not prevent construction: the sheet is returned
// together with the *scheduler.CycleError, and the cells on the cycle hold
// "#ERROR".
func BuildSheet(ctx context.Context, defs *model.Definitions, opts ...sheet.Option) (*sheet.Sheet, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting sheet construction.", "cell_count", len(defs.Cells))

	s := sheet.New(nil, opts...)
	for _, c := range defs.Cells {
		if err := s.Set(c.ID, c.Value); err != nil {
			return nil, fmt.Errorf("%s: cell %q: %w", c.FSInformation, c.ID, err)
		}
	}

	if err := s.Recalculate(ctx); err != nil {
		return s, err
	}
	logger.Info("Build: Sheet construction successful.", "cells", s.Graph().Len())
	return s, nil
}
