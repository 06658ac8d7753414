// Package describe provides the demo task function that labels its output
// with the node id and the input it was derived from.
package describe

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/gridflow/internal/handlers"
	"github.com/specialistvlad/gridflow/internal/node"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

// Describe returns "Output of <label>", or "Output of <label> derived from
// <input>" when there is an input. A []any input is joined with ", ".
func Describe(label string, input any) string {
	if input == nil {
		return fmt.Sprintf("Output of %s", label)
	}
	return fmt.Sprintf("Output of %s derived from %s", label, format(input))
}

func format(input any) string {
	list, ok := input.([]any)
	if !ok {
		return fmt.Sprint(input)
	}
	parts := make([]string, len(list))
	for i, v := range list {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

func factory(spec handlers.Spec) (node.ComputeFunc, error) {
	label, err := spec.String("label", spec.NodeID)
	if err != nil {
		return nil, err
	}
	return func(_ context.Context, input any) (any, error) {
		return Describe(label, input), nil
	}, nil
}

// Register registers the handler with the registry.
func (m *Module) Register(h *handlers.Handlers) {
	h.Register("describe", factory)
}
