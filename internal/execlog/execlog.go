// Package execlog defines the execution-log sink the engine reports to.
//
// The log belongs to the caller: the engine appends one Entry per successful
// node evaluation and never reads anything back.
package execlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Entry is an immutable record of one node evaluation.
type Entry struct {
	RunID     string    `json:"run_id,omitempty"`
	NodeID    string    `json:"node_id"`
	Input     any       `json:"input"`
	Output    any       `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives entries. Implementations must not block for long; the
// engine calls Record synchronously between nodes.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, entry Entry)

// Record calls f(ctx, entry).
func (f SinkFunc) Record(ctx context.Context, entry Entry) { f(ctx, entry) }

// Discard drops every entry.
var Discard Sink = SinkFunc(func(context.Context, Entry) {})

// Memory keeps entries in memory, in arrival order.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Record appends entry.
func (m *Memory) Record(_ context.Context, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

// Entries returns a copy of everything recorded so far.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// NodeIDs returns the node ids of the recorded entries, in order.
func (m *Memory) NodeIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		ids = append(ids, e.NodeID)
	}
	return ids
}

// slogSink writes entries as structured log records.
type slogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlog returns a sink that logs every entry at the given level.
func NewSlog(logger *slog.Logger, level slog.Level) Sink {
	return &slogSink{logger: logger, level: level}
}

func (s *slogSink) Record(ctx context.Context, entry Entry) {
	s.logger.Log(ctx, s.level, "Node evaluated.",
		"runID", entry.RunID,
		"nodeID", entry.NodeID,
		"input", entry.Input,
		"output", entry.Output,
		"timestamp", entry.Timestamp,
	)
}

// jsonLines writes one JSON document per entry.
type jsonLines struct {
	mu      sync.Mutex
	enc     *json.Encoder
	onError func(error)
}

// NewJSONLines returns a sink that encodes entries as JSON lines on w.
// Encoding failures are reported to onError, which may be nil.
func NewJSONLines(w io.Writer, onError func(error)) Sink {
	return &jsonLines{enc: json.NewEncoder(w), onError: onError}
}

func (j *jsonLines) Record(_ context.Context, entry Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(entry); err != nil && j.onError != nil {
		j.onError(fmt.Errorf("encoding log entry for %s: %w", entry.NodeID, err))
	}
}

// Multi fans every entry out to all sinks, in order. Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	var nonNil []Sink
	for _, s := range sinks {
		if s != nil {
			nonNil = append(nonNil, s)
		}
	}
	return SinkFunc(func(ctx context.Context, entry Entry) {
		for _, s := range nonNil {
			s.Record(ctx, entry)
		}
	})
}
