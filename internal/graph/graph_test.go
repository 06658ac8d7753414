package graph

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addNodes is a helper that registers automatic nodes with the given ids.
func addNodes(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		added, err := s.AddNode(node.Node{ID: id, Kind: node.Automatic})
		require.NoError(t, err)
		require.True(t, added, "node %s should be new", id)
	}
}

func TestAddNode_Idempotent(t *testing.T) {
	s := New()

	added, err := s.AddNode(node.Node{ID: "a", Kind: node.Automatic, Func: "first"})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddNode(node.Node{ID: "a", Kind: node.Manual, Func: "second"})
	require.NoError(t, err)
	assert.False(t, added)

	n, ok := s.Node("a")
	require.True(t, ok)
	assert.Equal(t, node.Automatic, n.Kind)
	assert.Equal(t, "first", n.Func)
	assert.Equal(t, 1, s.Len())
}

func TestAddNode_EmptyID(t *testing.T) {
	s := New()
	_, err := s.AddNode(node.Node{})
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestAddNode_IgnoresStateAndDependencies(t *testing.T) {
	s := New()
	_, err := s.AddNode(node.Node{
		ID:           "a",
		Dependencies: []string{"ghost"},
		State:        node.Done,
		Result:       "stale",
	})
	require.NoError(t, err)

	n, ok := s.Node("a")
	require.True(t, ok)
	assert.Empty(t, n.Dependencies)
	assert.Equal(t, node.Pending, n.State)
	assert.Nil(t, n.Result)
}

func TestAddDependency(t *testing.T) {
	t.Run("success keeps insertion order", func(t *testing.T) {
		s := New()
		addNodes(t, s, "a", "b", "c")

		require.NoError(t, s.AddDependency("c", "b"))
		require.NoError(t, s.AddDependency("c", "a"))

		deps, err := s.DependenciesOf("c")
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, deps)
	})

	t.Run("unknown ids fail", func(t *testing.T) {
		s := New()
		addNodes(t, s, "a")

		var unknown *UnknownNodeError
		err := s.AddDependency("dne", "a")
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "dne", unknown.ID)

		err = s.AddDependency("a", "missing")
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "missing", unknown.ID)

		deps, err := s.DependenciesOf("a")
		require.NoError(t, err)
		assert.Empty(t, deps, "a failed call must leave the graph unchanged")
	})

	t.Run("duplicate edges are kept", func(t *testing.T) {
		s := New()
		addNodes(t, s, "a", "b")
		require.NoError(t, s.AddDependency("b", "a"))
		require.NoError(t, s.AddDependency("b", "a"))

		deps, err := s.DependenciesOf("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "a"}, deps)

		dependents, err := s.DependentsOf("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, dependents)
	})
}

func TestSetDependencies(t *testing.T) {
	s := New()
	addNodes(t, s, "a", "b", "c")
	require.NoError(t, s.AddDependency("c", "a"))

	require.NoError(t, s.SetDependencies("c", []string{"b"}))
	deps, err := s.DependenciesOf("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, deps)

	err = s.SetDependencies("c", []string{"a", "zzz"})
	var unknown *UnknownNodeError
	require.ErrorAs(t, err, &unknown)
	deps, err = s.DependenciesOf("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, deps)
}

func TestDependentsOf_RegistrationOrder(t *testing.T) {
	s := New()
	addNodes(t, s, "root", "z", "y", "x")
	require.NoError(t, s.AddDependency("x", "root"))
	require.NoError(t, s.AddDependency("z", "root"))
	require.NoError(t, s.AddDependency("y", "root"))

	dependents, err := s.DependentsOf("root")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y", "x"}, dependents)

	_, err = s.DependentsOf("nope")
	assert.Error(t, err)
}

func TestNode_ReturnsCopy(t *testing.T) {
	s := New()
	addNodes(t, s, "a", "b")
	require.NoError(t, s.AddDependency("b", "a"))

	n, ok := s.Node("b")
	require.True(t, ok)
	n.Dependencies[0] = "mutated"
	n.State = node.Done

	again, _ := s.Node("b")
	assert.Equal(t, []string{"a"}, again.Dependencies)
	assert.Equal(t, node.Pending, again.State)
}

func TestNodes_RegistrationOrder(t *testing.T) {
	s := New()
	addNodes(t, s, "c", "a", "b")

	var ids []string
	for _, n := range s.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, ids, s.IDs())
}

func TestStore_StateTransitions(t *testing.T) {
	s := New()
	addNodes(t, s, "task")
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// Pending → Running
	require.NoError(t, s.MarkRunning("task", t0))
	_, state, ok := s.Result("task")
	require.True(t, ok)
	assert.Equal(t, node.Running, state)

	// Running → WaitingManual
	require.NoError(t, s.MarkWaiting("task", t0.Add(time.Second)))
	n, _ := s.Node("task")
	assert.Equal(t, node.WaitingManual, n.State)
	assert.Equal(t, t0.Add(time.Second), n.WaitingSince)

	// WaitingManual → Done
	require.NoError(t, s.MarkDone("task", "out", t0.Add(2*time.Second)))
	result, state, _ := s.Result("task")
	assert.Equal(t, node.Done, state)
	assert.Equal(t, "out", result)
	n, _ = s.Node("task")
	assert.True(t, n.WaitingSince.IsZero())

	// Done → Error clears the result
	boom := errors.New("boom")
	require.NoError(t, s.MarkFailed("task", boom, t0.Add(3*time.Second)))
	n, _ = s.Node("task")
	assert.Equal(t, node.Error, n.State)
	assert.Nil(t, n.Result)
	assert.ErrorIs(t, n.Err, boom)

	s.ResetStates()
	n, _ = s.Node("task")
	assert.Equal(t, node.Pending, n.State)
	assert.Nil(t, n.Err)

	var unknown *UnknownNodeError
	assert.ErrorAs(t, s.MarkDone("ghost", nil, t0), &unknown)
}

func TestRedefine(t *testing.T) {
	s := New()
	addNodes(t, s, "a", "b")
	require.NoError(t, s.AddDependency("b", "a"))

	require.NoError(t, s.Redefine(node.Node{ID: "b", Kind: node.Formula, Expression: "a+1"}))
	n, _ := s.Node("b")
	assert.Equal(t, node.Formula, n.Kind)
	assert.Equal(t, "a+1", n.Expression)
	assert.Equal(t, []string{"a"}, n.Dependencies)
	assert.Equal(t, []string{"a", "b"}, s.IDs())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	numGoroutines := 100
	var wg sync.WaitGroup

	// Phase 1: concurrent registration and state updates
	wg.Add(numGoroutines)
	for i := range numGoroutines {
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("node.%d", i)
			if _, err := s.AddNode(node.Node{ID: id}); err != nil {
				t.Errorf("add %s: %v", id, err)
				return
			}
			_ = s.MarkRunning(id, time.Now())
			_ = s.MarkDone(id, i, time.Now())
		}(i)
	}
	wg.Wait()

	// Phase 2: concurrent reads
	wg.Add(numGoroutines)
	for i := range numGoroutines {
		go func(i int) {
			defer wg.Done()
			result, state, ok := s.Result(fmt.Sprintf("node.%d", i))
			assert.True(t, ok)
			assert.Equal(t, node.Done, state)
			assert.Equal(t, i, result)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, numGoroutines, s.Len())
}
