// Package topologystore persists the static structure of a dependency graph.
//
// # Structure, Not State
//
// A saved topology records which nodes exist, what kind they are, how each one
// obtains its value (a registered function name and its params, a formula
// expression, or a literal cell input) and the dependency edges between them.
// Results, states, errors and timestamps are never written. Loading therefore
// always yields a graph whose nodes are Pending, ready for a fresh run or a
// full sheet recalculation.
//
// Compute functions are code and cannot be serialized. Each node carries the
// name its function was registered under; Load resolves those names back into
// functions through a caller-provided Resolver (usually the handlers registry).
//
// # Edge Order
//
// Edges are written grouped by dependent, in node registration order, and for
// each dependent in dependency insertion order. Replaying them in that order
// reproduces every node's dependency list exactly, which keeps execution order
// and input aggregation identical across a save/load round trip.
//
// # Backends
//
// The document is JSON stored under a single key in any Store. See
// internal/inmemorystore for tests and single-process use and
// internal/badgerstore for a durable embedded database.
package topologystore
