// Package constant provides a task function that always returns its "value"
// param, ignoring its input.
package constant

import (
	"context"
	"errors"

	"github.com/specialistvlad/gridflow/internal/handlers"
	"github.com/specialistvlad/gridflow/internal/node"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

func factory(spec handlers.Spec) (node.ComputeFunc, error) {
	value, ok := spec.Value("value")
	if !ok {
		return nil, errors.New(`param "value" is required`)
	}
	return func(context.Context, any) (any, error) {
		return value, nil
	}, nil
}

// Register registers the handler with the registry.
func (m *Module) Register(h *handlers.Handlers) {
	h.Register("constant", factory)
}
