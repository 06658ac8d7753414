package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/model"
)

// loadDefinitions reads every definition under the configured grid path.
func (a *App) loadDefinitions(ctx context.Context) (*model.Definitions, error) {
	logger := ctxlog.FromContext(ctx)
	if a.config.GridPath == "" {
		return nil, errors.New("a definition path is required")
	}
	logger.Debug("Loading definitions...", "grid_path", a.config.GridPath)

	defs, err := model.LoadDefinitionsRecursively(ctx, a.config.GridPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}

	logger.Info("Definitions loaded successfully.", "tasks_found", len(defs.Tasks), "cells_found", len(defs.Cells))
	return defs, nil
}
