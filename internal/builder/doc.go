/*
Package builder turns validated definitions (the 'model' package) into the
structures the runtime works on: a *graph.Store for the execution engine and a
*sheet.Sheet for the change propagator.

Workflow construction is a two-pass process:

 1. Node Creation: every task becomes a node.Node, in definition order. For
    automatic tasks the named function is resolved through the handler
    registry, so an unknown function fails the build rather than the run.

 2. Dependency Linking: every `depends_on` entry becomes an edge, in the order
    it was written. That order is the order of the node's aggregated input.

Cycle detection is not a build step. The engine's resolver reports cycles
when a run starts, and the validate command calls it explicitly.

Sheet construction defines every cell first and recalculates once, so cells
may reference cells that appear later in the files.
*/
package builder
