// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the topologystore.Store key-value contract.
//
// # Purpose
//
// Saved topologies normally go to BadgerDB. This store keeps them in process
// memory instead, for tests and for callers that only need a snapshot for the
// lifetime of the process.
//
// # Concurrency Model
//
// Values live in a sync.Map keyed by the storage key. Every Put stores a
// private copy of the value and every Get returns a fresh copy, so callers can
// reuse their buffers freely.
package inmemorystore

import (
	"context"
	"slices"
	"sync"

	"github.com/specialistvlad/gridflow/internal/topologystore"
)

// Store is an in-memory key-value store.
type Store struct {
	values sync.Map // Key: storage key, Value: []byte
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Get returns a copy of the value under key, or topologystore.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.values.Load(key)
	if !ok {
		return nil, topologystore.ErrNotFound
	}
	return slices.Clone(v.([]byte)), nil
}

// Put stores a copy of value under key.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.values.Store(key, slices.Clone(value))
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.values.Delete(key)
	return nil
}

// Keys returns every stored key, sorted.
func (s *Store) Keys() []string {
	var keys []string
	s.values.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	slices.Sort(keys)
	return keys
}

var _ topologystore.Store = (*Store)(nil)
