// Package handlers maps task-function names to Go implementations.
//
// Definition files and saved topologies refer to a node's work by name
// ("describe", "http_request", ...). Modules register a Factory under each
// name at startup; Resolve turns a name plus the node's params into the
// node.ComputeFunc the engine runs.
package handlers

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/specialistvlad/gridflow/internal/node"
)

// Spec is what a factory receives for one node.
type Spec struct {
	NodeID string
	Params map[string]any
}

// Factory builds the compute function for one node.
type Factory func(spec Spec) (node.ComputeFunc, error)

// Module is implemented by every built-in module package.
type Module interface {
	Register(h *Handlers)
}

// UnknownFuncError is returned when a node names a function nobody registered.
type UnknownFuncError struct {
	NodeID string
	Name   string
}

func (e *UnknownFuncError) Error() string {
	return fmt.Sprintf("node %q uses unknown function %q", e.NodeID, e.Name)
}

// Handlers holds all the registered task functions.
type Handlers struct {
	mu  sync.RWMutex
	all map[string]Factory
}

// New creates an empty registry.
func New() *Handlers {
	return &Handlers{all: make(map[string]Factory)}
}

// Register adds a factory under name. Registering the same name twice is a
// programming error and panics.
func (h *Handlers) Register(name string, factory Factory) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.all[name]; exists {
		panic(fmt.Sprintf("task function with name '%s' already registered", name))
	}
	slog.Debug("Registering task function.", "name", name)
	h.all[name] = factory
}

// Has reports whether name is registered.
func (h *Handlers) Has(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.all[name]
	return ok
}

// Names returns the registered names, sorted.
func (h *Handlers) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.all))
	for name := range h.all {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve builds the compute function registered under name for nodeID.
func (h *Handlers) Resolve(nodeID, name string, params map[string]any) (node.ComputeFunc, error) {
	h.mu.RLock()
	factory, ok := h.all[name]
	h.mu.RUnlock()

	if !ok {
		return nil, &UnknownFuncError{NodeID: nodeID, Name: name}
	}
	compute, err := factory(Spec{NodeID: nodeID, Params: params})
	if err != nil {
		return nil, fmt.Errorf("node %q: configuring %s: %w", nodeID, name, err)
	}
	return compute, nil
}

// Value returns the raw param under key.
func (s Spec) Value(key string) (any, bool) {
	v, ok := s.Params[key]
	return v, ok && v != nil
}

// String returns a string param, or def when it is absent.
func (s Spec) String(key, def string) (string, error) {
	v, ok := s.Value(key)
	if !ok {
		return def, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q must be a string, got %T", key, v)
	}
	return str, nil
}

// Bool returns a bool param, or def when it is absent.
func (s Spec) Bool(key string, def bool) (bool, error) {
	v, ok := s.Value(key)
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("param %q must be a bool, got %T", key, v)
	}
	return b, nil
}

// Duration returns a duration param written as a Go duration string
// ("10s", "1m30s"), or def when it is absent.
func (s Spec) Duration(key string, def time.Duration) (time.Duration, error) {
	str, err := s.String(key, "")
	if err != nil {
		return 0, err
	}
	if str == "" {
		return def, nil
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", key, err)
	}
	return d, nil
}
