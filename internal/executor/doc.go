/*
Package executor runs a workflow graph to completion, pausing at manual nodes.

# Traversal

Engine.Run walks the graph in the order produced by the scheduler package:
every dependency before its dependents, dependency declaration order between
siblings, registration order between unrelated nodes. Nodes already Done are
skipped, so each node executes at most once per run. The walk is strictly
sequential; there is no parallel execution of nodes.

For every node that is not yet Done the engine gathers an input from its
dependencies' results:

	no dependencies    -> nil
	one dependency     -> that dependency's result
	several            -> []any, in dependency declaration order

and then, by kind:

  - Automatic: the ComputeFunc runs with the input. On success the result is
    stored, the node becomes Done, and an execlog.Entry is emitted. On failure
    the node becomes Error and Run returns a *ComputeError. Downstream nodes
    stay Pending; upstream results are kept.
  - Manual: the node becomes WaitingManual and Run returns a *Suspension
    describing it. Nothing else runs until ResolveManual or Cancel.
  - Formula: the expression is evaluated over the current results of the
    referenced nodes. A formula failure stores "#ERROR" and does not stop the
    walk.
  - Value: the literal raw input becomes the result.

# Suspension

At most one node is WaitingManual at any time. The engine owns that slot;
calling Run while it is taken returns a *ConcurrentManualTaskError.
ResolveManual stores the externally supplied output, emits the log entry, and
continues the walk with the node's dependents. Cancel fails the pending node
with ErrCancelled and frees the slot.

The engine holds no goroutine while suspended. Suspension.Since records when
the wait began so callers can apply their own timeout policy.

Compute functions run while the engine lock is held and must not call back
into the Engine.
*/
package executor
