package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind_RoundTrip(t *testing.T) {
	for _, k := range []Kind{Automatic, Manual, Formula, Value} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	parsed, err := ParseKind("MANUAL")
	require.NoError(t, err)
	assert.Equal(t, Manual, parsed)

	_, err = ParseKind("robotic")
	assert.ErrorContains(t, err, "unknown node kind")
}

func TestClone_IsDeep(t *testing.T) {
	n := &Node{ID: "a", Dependencies: []string{"b"}, Params: map[string]any{"k": "v"}}
	c := n.Clone()
	c.Dependencies[0] = "x"
	c.Params["k"] = "changed"

	assert.Equal(t, "b", n.Dependencies[0])
	assert.Equal(t, "v", n.Params["k"])
}

func TestResetState(t *testing.T) {
	n := &Node{ID: "a", State: Done, Result: 5, StartedAt: time.Now(), FinishedAt: time.Now()}
	n.ResetState()
	assert.Equal(t, Pending, n.State)
	assert.Nil(t, n.Result)
	assert.True(t, n.StartedAt.IsZero())
	assert.True(t, n.FinishedAt.IsZero())
	assert.Equal(t, "pending", n.State.String())
}
