// Package node defines the vertex type shared by the workflow engine and the
// spreadsheet propagator. Nodes are owned by a graph.Store and referenced by id
// everywhere else; neighbor relations are id-to-id.
package node

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// ComputeFunc produces a node's output from its aggregated input.
//
// The input is nil for a node without dependencies, the dependency's raw
// result for a node with exactly one, and a []any in dependency order for a
// node with more than one. A dependency listed twice contributes its result
// once.
type ComputeFunc func(ctx context.Context, input any) (any, error)

// Kind distinguishes how a node obtains its value.
type Kind int

const (
	// Automatic nodes run their ComputeFunc as soon as their dependencies are done.
	Automatic Kind = iota
	// Manual nodes suspend the workflow until an external actor supplies the output.
	Manual
	// Formula nodes evaluate an arithmetic expression over other nodes' values.
	Formula
	// Value nodes hold a literal raw input (a spreadsheet cell without a formula).
	Value
)

var kindNames = map[Kind]string{
	Automatic: "automatic",
	Manual:    "manual",
	Formula:   "formula",
	Value:     "value",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts the textual form produced by Kind.String back into a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// State represents the execution state of a node.
//
//	Pending -> Running -> (Done | WaitingManual | Error)
//	WaitingManual -> Running (on resume)
type State int32

const (
	// Pending indicates the node has not been evaluated in the current run.
	Pending State = iota
	// Running indicates the node is being evaluated.
	Running
	// Done indicates the node holds a valid result.
	Done
	// WaitingManual indicates the node is waiting for an external actor.
	WaitingManual
	// Error indicates the node's evaluation failed or was cancelled.
	Error
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case WaitingManual:
		return "waiting_manual"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Node is a single vertex in the dependency graph.
type Node struct {
	// ID is the caller-assigned unique identifier. It never changes.
	ID string
	// Kind selects automatic, manual, formula or literal value handling.
	Kind Kind

	// Func is the registered task-function name the Compute was resolved from.
	// It is what gets persisted; Compute itself never is.
	Func string
	// Params are the static arguments handed to the task-function factory.
	Params map[string]any
	// Compute is the operation run for Automatic nodes.
	Compute ComputeFunc

	// Expression is the formula text (without the leading '=') for Formula nodes.
	Expression string
	// Raw is the literal input of a Value node.
	Raw string

	// Dependencies lists the ids this node consumes, in insertion order.
	Dependencies []string

	// --- Execution state, the only fields mutated while running ---

	// Result is the last computed output; nil until the first successful evaluation.
	Result any
	// State is the node's current execution state.
	State State
	// Err holds the failure for nodes in the Error state.
	Err error
	// StartedAt is when the node last transitioned to Running.
	StartedAt time.Time
	// FinishedAt is when the node last reached Done or Error.
	FinishedAt time.Time
	// WaitingSince is when the node entered WaitingManual.
	WaitingSince time.Time
}

// Clone returns a copy that shares no mutable slices or maps with n.
func (n *Node) Clone() Node {
	c := *n
	c.Dependencies = slices.Clone(n.Dependencies)
	if n.Params != nil {
		c.Params = maps.Clone(n.Params)
	}
	return c
}

// ResetState clears every execution field, returning the node to Pending.
func (n *Node) ResetState() {
	n.Result = nil
	n.State = Pending
	n.Err = nil
	n.StartedAt = time.Time{}
	n.FinishedAt = time.Time{}
	n.WaitingSince = time.Time{}
}
