package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPendingManual is returned by Cancel when no manual node is waiting.
	ErrNoPendingManual = errors.New("no manual node is waiting")
	// ErrNotWaiting is returned by ResolveManual for a node that is not the
	// pending manual node.
	ErrNotWaiting = errors.New("node is not waiting for manual input")
	// ErrCancelled is stored on a manual node whose wait was cancelled.
	ErrCancelled = errors.New("manual task cancelled")
	// ErrNoCompute is wrapped in a ComputeError for an automatic node without
	// a ComputeFunc.
	ErrNoCompute = errors.New("node has no compute function")
)

// ConcurrentManualTaskError is returned when a run is requested while a
// manual node is still waiting.
type ConcurrentManualTaskError struct {
	PendingID string
}

func (e *ConcurrentManualTaskError) Error() string {
	return fmt.Sprintf("manual task %q is still waiting for input", e.PendingID)
}

// ComputeError wraps the failure of an automatic node's compute function.
type ComputeError struct {
	NodeID string
	Err    error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.NodeID, e.Err)
}

func (e *ComputeError) Unwrap() error { return e.Err }
