// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the Go struct representation of gridflow's HCL
// definition files. Its purpose is to turn the user's .hcl files into a
// strongly-typed, validated, in-memory description of a workflow and a sheet,
// before any graph is built.
//
// # Core Concepts
//
//   - Definitions: The root container for a workspace. It aggregates every
//     task and cell parsed from one or more .hcl files, in file order and then
//     block order. That order becomes node registration order.
//
//   - Task: One node of a workflow. It names a registered task function, a
//     mode (automatic or manual), the tasks it depends on and static params
//     for the function.
//
//   - Cell: One spreadsheet cell. Its value is either a literal or, when it
//     starts with "=", a formula over other cells.
//
//   - FSInfo: Links every task and cell back to its source file for error
//     messages.
//
// A definition file looks like this:
//
//	task "fetch" {
//	  func   = "http_request"
//	  params = { url = "https://example.com" }
//	}
//
//	task "approve" {
//	  mode       = "manual"
//	  depends_on = ["fetch"]
//	}
//
//	cell "A1" { value = "5" }
//	cell "B1" { value = "=A1+A1" }
//
// Why a separate model package?
//
// Structural problems (duplicate ids, unknown dependencies, invalid modes) are
// caught here, all at once, with file names attached. The builder then works
// from a definition it can trust, and the engine never sees HCL at all.
package model
