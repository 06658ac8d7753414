// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Cell, one spreadsheet cell. Numbers written without quotes
// (value = 5) are converted to their decimal text by the HCL decoder.
package model

// Cell is the format-agnostic representation of a `cell` block.
type Cell struct {
	ID            string
	Value         string
	FSInformation *FSInfo
}

// hclCell is the raw HCL shape of a cell block.
type hclCell struct {
	ID    string `hcl:"id,label"`
	Value string `hcl:"value,optional"`
}

func newCellFromHCL(raw *hclCell, filePath string) *Cell {
	return &Cell{
		ID:            raw.ID,
		Value:         raw.Value,
		FSInformation: NewFSInfo(filePath),
	}
}
