// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements structural validation of Definitions. Every problem is
// collected and reported together so a user can fix a workspace in one pass.
package model

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/gridflow/internal/formula"
	"github.com/specialistvlad/gridflow/internal/node"
)

// Validate checks task and cell definitions for structural problems. Cycles
// are not checked here; the scheduler detects them on the built graph.
func (d *Definitions) Validate() error {
	var errs []error

	tasks := make(map[string]*Task, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == "" {
			errs = append(errs, fmt.Errorf("%s: task with empty id", t.FSInformation))
			continue
		}
		if prev, ok := tasks[t.ID]; ok {
			errs = append(errs, fmt.Errorf("%s: duplicate task %q (first defined in %s)", t.FSInformation, t.ID, prev.FSInformation))
			continue
		}
		tasks[t.ID] = t
	}

	for _, t := range d.Tasks {
		if t.Mode == node.Automatic && t.Func == "" {
			errs = append(errs, fmt.Errorf("%s: automatic task %q must set func", t.FSInformation, t.ID))
		}
		for _, dep := range t.DependsOn {
			if _, ok := tasks[dep]; !ok {
				errs = append(errs, fmt.Errorf("%s: task %q depends on unknown task %q", t.FSInformation, t.ID, dep))
			}
		}
	}

	cells := make(map[string]*Cell, len(d.Cells))
	for _, c := range d.Cells {
		if !formula.IsReference(c.ID) {
			errs = append(errs, fmt.Errorf("%s: cell id %q must look like A1", c.FSInformation, c.ID))
			continue
		}
		if prev, ok := cells[c.ID]; ok {
			errs = append(errs, fmt.Errorf("%s: duplicate cell %q (first defined in %s)", c.FSInformation, c.ID, prev.FSInformation))
			continue
		}
		cells[c.ID] = c
	}

	return errors.Join(errs...)
}
