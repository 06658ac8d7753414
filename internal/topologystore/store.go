package topologystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/graph"
	"github.com/specialistvlad/gridflow/internal/node"
)

// Version is the document format written by Save.
const Version = 1

// DefaultKey is the key a topology is saved under when the caller does not
// choose one.
const DefaultKey = "workflow"

// ErrNotFound is returned by a Store when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is the key-value contract a backend must satisfy.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Resolver turns a persisted function name back into a compute function.
// handlers.Handlers.Resolve satisfies it.
type Resolver func(nodeID, name string, params map[string]any) (node.ComputeFunc, error)

// Document is the serialized form of a graph's structure.
type Document struct {
	Version int          `json:"version"`
	Nodes   []NodeRecord `json:"nodes"`
	Edges   []EdgeRecord `json:"edges"`
}

// NodeRecord is one node's definition.
type NodeRecord struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Func       string         `json:"func,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
	Expression string         `json:"expression,omitempty"`
	Raw        string         `json:"raw,omitempty"`
}

// EdgeRecord states that Dependent consumes Dependency.
type EdgeRecord struct {
	Dependent  string `json:"dependent"`
	Dependency string `json:"dependency"`
}

// Snapshot captures the structure of g.
func Snapshot(g *graph.Store) Document {
	doc := Document{Version: Version, Nodes: []NodeRecord{}, Edges: []EdgeRecord{}}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeRecord{
			ID:         n.ID,
			Kind:       n.Kind.String(),
			Func:       n.Func,
			Params:     n.Params,
			Expression: n.Expression,
			Raw:        n.Raw,
		})
		for _, dep := range n.Dependencies {
			doc.Edges = append(doc.Edges, EdgeRecord{Dependent: n.ID, Dependency: dep})
		}
	}
	return doc
}

// Restore rebuilds a graph from doc. Every node starts Pending. Functions are
// resolved through resolve; with a nil resolver, nodes keep only their
// function name.
func Restore(doc Document, resolve Resolver) (*graph.Store, error) {
	if doc.Version != Version {
		return nil, fmt.Errorf("unsupported topology version %d (want %d)", doc.Version, Version)
	}

	g := graph.New()
	for _, rec := range doc.Nodes {
		kind, err := node.ParseKind(rec.Kind)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", rec.ID, err)
		}

		n := node.Node{
			ID:         rec.ID,
			Kind:       kind,
			Func:       rec.Func,
			Params:     rec.Params,
			Expression: rec.Expression,
			Raw:        rec.Raw,
		}
		if rec.Func != "" && resolve != nil {
			compute, err := resolve(rec.ID, rec.Func, rec.Params)
			if err != nil {
				return nil, err
			}
			n.Compute = compute
		}

		added, err := g.AddNode(n)
		if err != nil {
			return nil, err
		}
		if !added {
			return nil, fmt.Errorf("duplicate node %q in topology", rec.ID)
		}
	}

	for _, e := range doc.Edges {
		if err := g.AddDependency(e.Dependent, e.Dependency); err != nil {
			return nil, fmt.Errorf("edge %s -> %s: %w", e.Dependent, e.Dependency, err)
		}
	}
	return g, nil
}

// Save writes the structure of g under key.
func Save(ctx context.Context, kv Store, key string, g *graph.Store) error {
	doc := Snapshot(g)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding topology: %w", err)
	}
	if err := kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("saving topology %q: %w", key, err)
	}
	ctxlog.FromContext(ctx).Debug("Topology saved.", "key", key, "nodes", len(doc.Nodes), "edges", len(doc.Edges))
	return nil
}

// Load reads the topology stored under key and rebuilds the graph.
func Load(ctx context.Context, kv Store, key string, resolve Resolver) (*graph.Store, error) {
	data, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading topology %q: %w", key, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding topology %q: %w", key, err)
	}

	g, err := Restore(doc, resolve)
	if err != nil {
		return nil, fmt.Errorf("restoring topology %q: %w", key, err)
	}
	ctxlog.FromContext(ctx).Debug("Topology loaded.", "key", key, "nodes", g.Len())
	return g, nil
}
