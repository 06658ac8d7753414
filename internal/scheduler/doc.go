// Package scheduler decides the order in which graph nodes are evaluated.
//
// # Why Scheduler Exists
//
// Both execution modes (the workflow engine and the spreadsheet propagator)
// need the same answer to the same question: given a start set, in which
// order must nodes run so that every dependency precedes its dependents? This
// package is the single place that answers it, and the single place that
// refuses to answer when the dependency relation contains a cycle.
//
// # How It Works
//
// Ordering is a depth-first traversal over dependency edges:
//  1. Start nodes are visited in the order given (registration order for a
//     whole-graph order).
//  2. On entry a node is marked visiting; its dependencies are visited in
//     declaration order.
//  3. On exit the node is marked visited and appended to the order.
//  4. Meeting a node that is still visiting means a cycle; a CycleError
//     naming the path is returned and no order is produced.
//
// # Determinism
//
// Given the same graph the order is always the same: dependency declaration
// order breaks ties among dependencies, registration order breaks ties among
// unrelated dependents. Logs and tests rely on this.
package scheduler
