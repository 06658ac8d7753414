// Package graph owns the node set and the dependency-edge relation.
//
// # Arena Layout
//
// The Store is the single owner of every node. Nodes never hold references to
// each other; a dependency is recorded as an id in the dependent's
// Dependencies list, and reverse lookups (DependentsOf) are computed from
// those lists on demand. Callers only ever receive copies.
//
//	┌──────────────────────────────┐
//	│            Store             │
//	│  order: [a, b, c, d]         │  registration order (tie-break for ordering)
//	│  nodes: id -> *node.Node     │
//	│         d.Dependencies=[b,c] │  edge dependent -> dependency
//	└──────────────────────────────┘
//
// # Responsibilities
//
//   - Structure: AddNode, AddDependency, SetDependencies
//   - Queries: Node, Nodes, IDs, DependenciesOf, DependentsOf
//   - State writes used by the engine and propagator: MarkRunning, MarkDone,
//     MarkFailed, MarkWaiting, SetValue, ResetStates
//
// The Store does no ordering or cycle detection; that belongs to the
// scheduler package.
//
// # Thread-Safety
//
// All methods are safe for concurrent use. A sync.RWMutex guards the node map,
// so structural edits made while a workflow is suspended are visible to the
// engine when it resumes.
package graph
