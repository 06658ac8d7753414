// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Definitions, the root container for everything loaded from
// a user's .hcl files, and the functions that load it.
//
// A user may split a workflow across many files and directories. Loading
// consolidates every `task` and `cell` block into a single view so that
// dependencies can span files and validation sees the whole workspace.
package model

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/fsutil"
)

// Definitions is the user's workspace: workflow tasks and sheet cells.
type Definitions struct {
	Tasks []*Task
	Cells []*Cell
}

// NewDefinitions creates and returns an empty Definitions.
func NewDefinitions() *Definitions {
	return &Definitions{
		Tasks: []*Task{},
		Cells: []*Cell{},
	}
}

// hclFile represents the top-level structure of a definition file for decoding.
type hclFile struct {
	Tasks []*hclTask `hcl:"task,block"`
	Cells []*hclCell `hcl:"cell,block"`
}

// newDefinitionsFromHCL parses a single HCL file and returns what it defines.
func newDefinitionsFromHCL(filePath string, parser *hclparse.Parser) (*Definitions, error) {
	file, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}

	var parsed hclFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}

	defs := NewDefinitions()
	for _, t := range parsed.Tasks {
		task, err := newTaskFromHCL(t, filePath)
		if err != nil {
			return nil, fmt.Errorf("error parsing task in file %s: %w", filePath, err)
		}
		defs.Tasks = append(defs.Tasks, task)
	}
	for _, c := range parsed.Cells {
		defs.Cells = append(defs.Cells, newCellFromHCL(c, filePath))
	}
	return defs, nil
}

// LoadDefinitionsRecursively finds and parses all HCL files under path (or
// path itself when it is a file) and validates the result.
func LoadDefinitionsRecursively(ctx context.Context, path string) (*Definitions, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading definitions from path", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find definition files in %s: %w", path, err)
	}

	defs := NewDefinitions()
	if len(files) == 0 {
		logger.Warn("No .hcl definition files found in path, returning empty definitions", "path", path)
		return defs, nil
	}

	parser := hclparse.NewParser()
	for _, file := range files {
		fileDefs, err := newDefinitionsFromHCL(file, parser)
		if err != nil {
			return nil, err
		}
		defs.Tasks = append(defs.Tasks, fileDefs.Tasks...)
		defs.Cells = append(defs.Cells, fileDefs.Cells...)
	}

	if err := defs.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Definitions loaded", "files", len(files), "tasks", len(defs.Tasks), "cells", len(defs.Cells))
	return defs, nil
}
