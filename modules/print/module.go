package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/handlers"
	"github.com/specialistvlad/gridflow/internal/node"
)

// Module implements the handlers.Module interface for this package.
type Module struct {
	// Out receives the printed lines. Defaults to os.Stdout.
	Out io.Writer
}

// New returns a factory that prints every input it receives to out and
// passes it through unchanged.
func New(out io.Writer) handlers.Factory {
	if out == nil {
		out = os.Stdout
	}
	return func(spec handlers.Spec) (node.ComputeFunc, error) {
		return func(ctx context.Context, input any) (any, error) {
			ctxlog.FromContext(ctx).Info("Printing input", "nodeID", spec.NodeID)
			printValue(out, spec.NodeID, input)
			return input, nil
		}, nil
	}
}

func printValue(out io.Writer, id string, input any) {
	switch v := input.(type) {
	case nil:
		fmt.Fprintf(out, "      %s: (null)\n", id)
	case map[string]any:
		// Sort keys for consistent output
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		fmt.Fprintf(out, "      %s:\n", id)
		for _, k := range keys {
			fmt.Fprintf(out, "      %s = %v\n", k, v[k])
		}
	default:
		fmt.Fprintf(out, "      %s: %v\n", id, v)
	}
}

// Register registers the handler with the registry.
func (m *Module) Register(h *handlers.Handlers) {
	h.Register("print", New(m.Out))
}
