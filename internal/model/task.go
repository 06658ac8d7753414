// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Task, one node of a workflow.
//
// Params are evaluated once, at load time, without variables or functions:
// they are static configuration for the task function, not a way to wire
// outputs between tasks. Data flows between tasks only along depends_on.
package model

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/gridflow/internal/node"
)

// Task is the format-agnostic representation of a `task` block.
type Task struct {
	ID            string
	Func          string
	Mode          node.Kind
	DependsOn     []string
	Params        map[string]any
	FSInformation *FSInfo
}

// hclTask is the raw HCL shape of a task block.
type hclTask struct {
	ID        string         `hcl:"id,label"`
	Func      string         `hcl:"func,optional"`
	Mode      string         `hcl:"mode,optional"`
	DependsOn []string       `hcl:"depends_on,optional"`
	Params    hcl.Expression `hcl:"params,optional"`
}

// parseMode accepts "", "automatic" and "manual".
func parseMode(mode string) (node.Kind, error) {
	if strings.TrimSpace(mode) == "" {
		return node.Automatic, nil
	}
	kind, err := node.ParseKind(mode)
	if err != nil || (kind != node.Automatic && kind != node.Manual) {
		return 0, fmt.Errorf("invalid mode %q (want \"automatic\" or \"manual\")", mode)
	}
	return kind, nil
}

func newTaskFromHCL(raw *hclTask, filePath string) (*Task, error) {
	task := &Task{
		ID:            raw.ID,
		Func:          raw.Func,
		DependsOn:     raw.DependsOn,
		FSInformation: NewFSInfo(filePath),
	}

	mode, err := parseMode(raw.Mode)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", raw.ID, err)
	}
	task.Mode = mode

	if raw.Params != nil {
		val, diags := raw.Params.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("task %q: params: %w", raw.ID, diags)
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("task %q: params: %w", raw.ID, err)
		}
		if native != nil {
			params, ok := native.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("task %q: params must be an object, got %s", raw.ID, val.Type().FriendlyName())
			}
			task.Params = params
		}
	}
	return task, nil
}
