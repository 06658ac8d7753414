package graph

import (
	"slices"
	"sync"
	"time"

	"github.com/specialistvlad/gridflow/internal/node"
)

// Store is the in-memory node arena.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*node.Node
	order []string
}

// New creates an empty Store.
func New() *Store {
	return &Store{nodes: make(map[string]*node.Node)}
}

// AddNode registers a node. Only the definition fields of n are used
// (ID, Kind, Func, Params, Compute, Expression, Raw); dependencies are added
// with AddDependency and the state starts at Pending.
//
// Adding an id that already exists is a no-op and reports false.
func (s *Store) AddNode(n node.Node) (bool, error) {
	if n.ID == "" {
		return false, ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[n.ID]; ok {
		return false, nil
	}

	stored := n.Clone()
	stored.Dependencies = nil
	stored.ResetState()
	s.nodes[n.ID] = &stored
	s.order = append(s.order, n.ID)
	return true, nil
}

// AddDependency records that dependentID consumes dependencyID. Both ids must
// already exist. Duplicate edges are appended as given; they do not affect
// ordering.
func (s *Store) AddDependency(dependentID, dependencyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dependent, ok := s.nodes[dependentID]
	if !ok {
		return &UnknownNodeError{ID: dependentID}
	}
	if _, ok := s.nodes[dependencyID]; !ok {
		return &UnknownNodeError{ID: dependencyID}
	}

	dependent.Dependencies = append(dependent.Dependencies, dependencyID)
	return nil
}

// SetDependencies replaces the dependency list of id. Every id in deps must
// exist; on failure the previous list is kept.
func (s *Store) SetDependencies(id string, deps []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return &UnknownNodeError{ID: id}
	}
	for _, dep := range deps {
		if _, ok := s.nodes[dep]; !ok {
			return &UnknownNodeError{ID: dep}
		}
	}

	n.Dependencies = slices.Clone(deps)
	return nil
}

// Redefine updates the definition fields of an existing node in place,
// keeping its registration position and dependencies.
func (s *Store) Redefine(def node.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[def.ID]
	if !ok {
		return &UnknownNodeError{ID: def.ID}
	}
	n.Kind = def.Kind
	n.Func = def.Func
	n.Params = def.Params
	n.Compute = def.Compute
	n.Expression = def.Expression
	n.Raw = def.Raw
	return nil
}

// Has reports whether id is registered.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[id]
	return ok
}

// Len returns the number of registered nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return node.Node{}, false
	}
	return n.Clone(), true
}

// IDs returns every node id in registration order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Nodes returns copies of every node in registration order.
func (s *Store) Nodes() []node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]node.Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id].Clone())
	}
	return out
}

// DependenciesOf returns the ids id depends on, in insertion order.
func (s *Store) DependenciesOf(id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, &UnknownNodeError{ID: id}
	}
	return slices.Clone(n.Dependencies), nil
}

// DependentsOf returns the ids that depend directly on id, each once, in
// registration order.
func (s *Store) DependentsOf(id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return nil, &UnknownNodeError{ID: id}
	}

	var dependents []string
	for _, candidate := range s.order {
		if slices.Contains(s.nodes[candidate].Dependencies, id) {
			dependents = append(dependents, candidate)
		}
	}
	return dependents, nil
}

// Result returns the stored result and state of id.
func (s *Store) Result(id string) (any, node.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, node.Pending, false
	}
	return n.Result, n.State, true
}

// MarkRunning transitions id to Running.
func (s *Store) MarkRunning(id string, at time.Time) error {
	return s.update(id, func(n *node.Node) {
		n.State = node.Running
		n.Err = nil
		n.StartedAt = at
		n.WaitingSince = time.Time{}
	})
}

// MarkDone stores the result of id and transitions it to Done.
func (s *Store) MarkDone(id string, result any, at time.Time) error {
	return s.update(id, func(n *node.Node) {
		n.Result = result
		n.State = node.Done
		n.Err = nil
		n.FinishedAt = at
		n.WaitingSince = time.Time{}
	})
}

// MarkFailed records err on id and transitions it to Error. The previous
// result is cleared.
func (s *Store) MarkFailed(id string, nodeErr error, at time.Time) error {
	return s.update(id, func(n *node.Node) {
		n.Result = nil
		n.State = node.Error
		n.Err = nodeErr
		n.FinishedAt = at
		n.WaitingSince = time.Time{}
	})
}

// MarkWaiting transitions id to WaitingManual.
func (s *Store) MarkWaiting(id string, since time.Time) error {
	return s.update(id, func(n *node.Node) {
		n.State = node.WaitingManual
		n.WaitingSince = since
	})
}

// SetValue stores a value together with the state it was produced in. It is
// used by the spreadsheet propagator, where a formula failure is data.
func (s *Store) SetValue(id string, value any, state node.State, valueErr error, at time.Time) error {
	return s.update(id, func(n *node.Node) {
		n.Result = value
		n.State = state
		n.Err = valueErr
		n.FinishedAt = at
	})
}

// ResetStates returns every node to Pending, discarding results.
func (s *Store) ResetStates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.nodes {
		n.ResetState()
	}
}

func (s *Store) update(id string, fn func(n *node.Node)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return &UnknownNodeError{ID: id}
	}
	fn(n)
	return nil
}
