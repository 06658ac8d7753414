package sheet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/gridflow/internal/execlog"
	"github.com/specialistvlad/gridflow/internal/formula"
	"github.com/specialistvlad/gridflow/internal/graph"
	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/specialistvlad/gridflow/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func newSheet(opts ...Option) *Sheet {
	clock := &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(nil, append([]Option{WithClock(clock.Now)}, opts...)...)
}

func set(t *testing.T, s *Sheet, id, raw string) {
	t.Helper()
	require.NoError(t, s.OnValueChanged(context.Background(), id, raw))
}

func value(t *testing.T, s *Sheet, id string) string {
	t.Helper()
	v, ok := s.Value(id)
	require.True(t, ok, "cell %s must exist", id)
	return v
}

func TestOnValueChanged_RecomputesDependents(t *testing.T) {
	s := newSheet()
	set(t, s, "A1", "5")
	set(t, s, "B1", "=A1+A1")
	set(t, s, "C1", "1")

	assert.Equal(t, "10", value(t, s, "B1"))

	before, _ := s.Graph().Node("C1")
	set(t, s, "A1", "7")
	after, _ := s.Graph().Node("C1")

	assert.Equal(t, "14", value(t, s, "B1"))
	assert.Equal(t, "1", value(t, s, "C1"))
	assert.Equal(t, before.FinishedAt, after.FinishedAt, "unrelated cells must not be recomputed")
	assert.Equal(t, before.State, after.State)
}

func TestOnValueChanged_OnlyTouchesForwardReachableCells(t *testing.T) {
	s := newSheet()
	set(t, s, "A1", "1")
	set(t, s, "A2", "2")
	set(t, s, "B1", "=A1*10")
	set(t, s, "B2", "=A2*10")
	set(t, s, "C1", "=B1+B2")

	snapshot := func() map[string]node.Node {
		out := map[string]node.Node{}
		for _, n := range s.Graph().Nodes() {
			out[n.ID] = n
		}
		return out
	}
	before := snapshot()
	set(t, s, "A1", "3")
	after := snapshot()

	for _, id := range []string{"A2", "B2"} {
		assert.Equal(t, before[id].Result, after[id].Result, id)
		assert.Equal(t, before[id].FinishedAt, after[id].FinishedAt, id)
	}
	for _, id := range []string{"A1", "B1", "C1"} {
		assert.True(t, after[id].FinishedAt.After(before[id].FinishedAt), "%s must be recomputed", id)
	}
	assert.Equal(t, "50", value(t, s, "C1"))
}

func TestOnValueChanged_ChainedFormulas(t *testing.T) {
	s := newSheet()
	set(t, s, "C1", "=B1*2")
	set(t, s, "B1", "=A1+1")
	set(t, s, "A1", "4")

	assert.Equal(t, "5", value(t, s, "B1"))
	assert.Equal(t, "10", value(t, s, "C1"))
}

func TestOnValueChanged_SubtractionAndDivisionBetweenReferences(t *testing.T) {
	s := newSheet()
	set(t, s, "A1", "9")
	set(t, s, "B1", "3")
	set(t, s, "C1", "=A1-B1")
	set(t, s, "D1", "=A1/B1")
	set(t, s, "E1", "=C1-D1-1")

	deps, err := s.Graph().DependenciesOf("C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1"}, deps)

	assert.Equal(t, "6", value(t, s, "C1"))
	assert.Equal(t, "3", value(t, s, "D1"))
	assert.Equal(t, "2", value(t, s, "E1"))

	set(t, s, "A1", "12")
	assert.Equal(t, "9", value(t, s, "C1"))
	assert.Equal(t, "4", value(t, s, "D1"))
	assert.Equal(t, "4", value(t, s, "E1"))

	set(t, s, "B1", "0")
	assert.Equal(t, "12", value(t, s, "C1"))
	assert.Equal(t, formula.ErrorValue, value(t, s, "D1"))
	assert.Equal(t, formula.ErrorValue, value(t, s, "E1"))
}

func TestOnValueChanged_AutoCreatesReferencedCells(t *testing.T) {
	s := newSheet()
	set(t, s, "B1", "=Z9+1")

	assert.Equal(t, "1", value(t, s, "B1"))
	assert.Equal(t, "", value(t, s, "Z9"))

	set(t, s, "Z9", "41")
	assert.Equal(t, "42", value(t, s, "B1"))
}

func TestOnValueChanged_FormulaErrorsAreData(t *testing.T) {
	s := newSheet()
	set(t, s, "A1", "hello")
	set(t, s, "B1", "=A1*2")
	set(t, s, "C1", "=B1+1")
	set(t, s, "D1", "=1+")

	assert.Equal(t, formula.ErrorValue, value(t, s, "B1"))
	assert.Equal(t, formula.ErrorValue, value(t, s, "C1"), "errors flow to dependents")
	assert.Equal(t, formula.ErrorValue, value(t, s, "D1"))

	b1, _ := s.Graph().Node("B1")
	assert.Equal(t, node.Error, b1.State)
	var ferr *formula.Error
	assert.ErrorAs(t, b1.Err, &ferr)

	set(t, s, "A1", "2")
	assert.Equal(t, "4", value(t, s, "B1"))
	assert.Equal(t, "5", value(t, s, "C1"))
}

func TestOnValueChanged_CycleIsDetected(t *testing.T) {
	s := newSheet()
	set(t, s, "C1", "10")
	set(t, s, "A1", "=B1")

	err := s.OnValueChanged(context.Background(), "B1", "=A1")
	var cycle *scheduler.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.ElementsMatch(t, []string{"A1", "B1"}, cycle.Members())

	assert.Equal(t, formula.ErrorValue, value(t, s, "A1"))
	assert.Equal(t, formula.ErrorValue, value(t, s, "B1"))
	assert.Equal(t, "10", value(t, s, "C1"))

	t.Run("breaking the cycle recovers", func(t *testing.T) {
		set(t, s, "B1", "3")
		assert.Equal(t, "3", value(t, s, "A1"))
		assert.Equal(t, "3", value(t, s, "B1"))
	})
}

func TestOnValueChanged_SelfReference(t *testing.T) {
	s := newSheet()
	err := s.OnValueChanged(context.Background(), "A1", "=A1+1")
	var cycle *scheduler.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, formula.ErrorValue, value(t, s, "A1"))
}

func TestOnValueChanged_CycleDownstreamStillPropagates(t *testing.T) {
	s := newSheet()
	set(t, s, "A1", "1")
	set(t, s, "D1", "=A1+5")
	set(t, s, "B1", "=A1+C1")

	err := s.OnValueChanged(context.Background(), "C1", "=B1")
	var cycle *scheduler.CycleError
	require.ErrorAs(t, err, &cycle)

	err = s.OnValueChanged(context.Background(), "A1", "2")
	require.ErrorAs(t, err, &cycle, "the cycle is still reachable from A1")
	assert.Equal(t, "7", value(t, s, "D1"))
	assert.Equal(t, formula.ErrorValue, value(t, s, "B1"))
}

func TestOnValueChanged_FormulaReplacedByValueDropsDependencies(t *testing.T) {
	s := newSheet()
	set(t, s, "A1", "1")
	set(t, s, "B1", "=A1")
	set(t, s, "B1", "9")

	deps, err := s.Graph().DependenciesOf("B1")
	require.NoError(t, err)
	assert.Empty(t, deps)

	set(t, s, "A1", "100")
	assert.Equal(t, "9", value(t, s, "B1"))
}

func TestOnValueChanged_EmptyID(t *testing.T) {
	s := newSheet()
	assert.ErrorIs(t, s.OnValueChanged(context.Background(), "", "1"), graph.ErrEmptyID)
}

func TestRecalculate(t *testing.T) {
	s := newSheet()
	require.NoError(t, s.Set("B1", "=A1*3"))
	require.NoError(t, s.Set("A1", "2"))

	require.NoError(t, s.Recalculate(context.Background()))
	assert.Equal(t, map[string]string{"A1": "2", "B1": "6"}, s.Values())

	cells := s.Cells()
	require.Len(t, cells, 2)
	assert.Equal(t, Cell{ID: "B1", Raw: "=A1*3", Value: "6", State: node.Done}, cells[0])
}

func TestOnValueChanged_EmitsLogEntries(t *testing.T) {
	log := execlog.NewMemory()
	s := newSheet(WithSink(log))
	set(t, s, "A1", "5")
	set(t, s, "B1", "=A1+A1")
	set(t, s, "A1", "7")

	assert.Equal(t, []string{"A1", "B1", "A1", "B1"}, log.NodeIDs())
	last := log.Entries()[3]
	assert.Equal(t, "=A1+A1", last.Input)
	assert.Equal(t, "14", last.Output)
}
