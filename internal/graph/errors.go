package graph

import (
	"errors"
	"fmt"
)

// ErrEmptyID is returned when a node is registered without an id.
var ErrEmptyID = errors.New("node id must not be empty")

// UnknownNodeError reports a reference to an id that was never registered.
type UnknownNodeError struct {
	ID string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %q", e.ID)
}
