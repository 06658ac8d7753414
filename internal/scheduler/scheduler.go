package scheduler

import (
	"fmt"
	"slices"
	"strings"
)

// Topology is the read-only view of a graph the scheduler needs.
// graph.Store satisfies it.
type Topology interface {
	// IDs returns every node id in registration order.
	IDs() []string
	// DependenciesOf returns the ids a node consumes, in declaration order.
	DependenciesOf(id string) ([]string, error)
	// DependentsOf returns the ids consuming a node, in registration order.
	DependentsOf(id string) ([]string, error)
}

// CycleError reports that the dependency relation is not acyclic. Path lists
// the nodes along the cycle, starting and ending with the same id, following
// edges from dependent to dependency.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// Members returns the distinct ids on the cycle.
func (e *CycleError) Members() []string {
	if len(e.Path) <= 1 {
		return slices.Clone(e.Path)
	}
	return slices.Clone(e.Path[:len(e.Path)-1])
}

// TopologicalOrder returns every node of g in a valid execution order.
func TopologicalOrder(g Topology) ([]string, error) {
	return OrderFrom(g, g.IDs()...)
}

// OrderFrom returns the start nodes and everything they transitively depend
// on, in a valid execution order.
func OrderFrom(g Topology, start ...string) ([]string, error) {
	return OrderWithin(g, start, nil)
}

// OrderWithin orders the start nodes like OrderFrom, but only follows
// dependencies for which within reports true. Dependencies outside the set
// are treated as already satisfied. A nil within follows every dependency.
func OrderWithin(g Topology, start []string, within func(id string) bool) ([]string, error) {
	r := &resolver{
		g:      g,
		within: within,
		marks:  make(map[string]mark),
	}
	for _, id := range start {
		if err := r.visit(id); err != nil {
			return nil, err
		}
	}
	return r.order, nil
}

// DetectCycles returns a CycleError if any cycle exists in g.
func DetectCycles(g Topology) error {
	_, err := TopologicalOrder(g)
	return err
}

// ForwardReachable returns id and every node that transitively depends on
// it, in registration order. It terminates on cyclic graphs.
func ForwardReachable(g Topology, id string) ([]string, error) {
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		dependents, err := g.DependentsOf(current)
		if err != nil {
			return nil, err
		}
		for _, dep := range dependents {
			if !seen[dep] {
				seen[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	reachable := make([]string, 0, len(seen))
	for _, candidate := range g.IDs() {
		if seen[candidate] {
			reachable = append(reachable, candidate)
		}
	}
	return reachable, nil
}

type mark int

const (
	unvisited mark = iota
	visiting
	visited
)

// resolver holds the state of one depth-first traversal.
type resolver struct {
	g      Topology
	within func(id string) bool
	marks  map[string]mark
	stack  []string
	order  []string
}

func (r *resolver) visit(id string) error {
	switch r.marks[id] {
	case visited:
		return nil
	case visiting:
		start := slices.Index(r.stack, id)
		path := append(slices.Clone(r.stack[start:]), id)
		return &CycleError{Path: path}
	}

	r.marks[id] = visiting
	r.stack = append(r.stack, id)

	deps, err := r.g.DependenciesOf(id)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		if r.within != nil && !r.within(dep) {
			continue
		}
		if err := r.visit(dep); err != nil {
			return err
		}
	}

	r.stack = r.stack[:len(r.stack)-1]
	r.marks[id] = visited
	r.order = append(r.order, id)
	return nil
}
