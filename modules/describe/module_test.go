package describe

import (
	"context"
	"testing"

	"github.com/specialistvlad/gridflow/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Output of Task A", Describe("Task A", nil))
	assert.Equal(t, "Output of Task B derived from Output of Task A", Describe("Task B", "Output of Task A"))
	assert.Equal(t, "Output of D derived from b, c", Describe("D", []any{"b", "c"}))
}

func TestFactory_UsesLabelParam(t *testing.T) {
	h := handlers.New()
	(&Module{}).Register(h)

	compute, err := h.Resolve("task-a", "describe", map[string]any{"label": "Task A"})
	require.NoError(t, err)
	out, err := compute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Output of Task A", out)

	compute, err = h.Resolve("task-b", "describe", nil)
	require.NoError(t, err)
	out, err = compute(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Output of task-b derived from x", out)

	_, err = h.Resolve("task-c", "describe", map[string]any{"label": 7.0})
	assert.Error(t, err)
}
