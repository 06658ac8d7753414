package env_vars

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/specialistvlad/gridflow/internal/handlers"
	"github.com/specialistvlad/gridflow/internal/node"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

// All returns the process environment as a map.
func All() map[string]any {
	envMap := make(map[string]any)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap
}

func factory(spec handlers.Spec) (node.ComputeFunc, error) {
	name, err := spec.String("name", "")
	if err != nil {
		return nil, err
	}
	return func(context.Context, any) (any, error) {
		if name == "" {
			return All(), nil
		}
		value, ok := os.LookupEnv(name)
		if !ok {
			return nil, fmt.Errorf("environment variable %s is not set", name)
		}
		return value, nil
	}, nil
}

// Register registers the handler with the registry.
func (m *Module) Register(h *handlers.Handlers) {
	h.Register("env_vars", factory)
}
