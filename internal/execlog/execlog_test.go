package execlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RecordsInOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.Record(ctx, Entry{NodeID: "a"})
	m.Record(ctx, Entry{NodeID: "b"})

	assert.Equal(t, []string{"a", "b"}, m.NodeIDs())

	entries := m.Entries()
	entries[0].NodeID = "mutated"
	assert.Equal(t, "a", m.Entries()[0].NodeID)
}

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLines(&buf, nil)
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	sink.Record(context.Background(), Entry{RunID: "r1", NodeID: "a", Input: nil, Output: "x", Timestamp: ts})
	sink.Record(context.Background(), Entry{RunID: "r1", NodeID: "b", Input: "x", Output: 2.0, Timestamp: ts})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var decoded Entry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &decoded))
	assert.Equal(t, "b", decoded.NodeID)
	assert.Equal(t, "x", decoded.Input)
	assert.Equal(t, 2.0, decoded.Output)
	assert.True(t, ts.Equal(decoded.Timestamp))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestJSONLines_ReportsErrors(t *testing.T) {
	var got error
	sink := NewJSONLines(failingWriter{}, func(err error) { got = err })
	sink.Record(context.Background(), Entry{NodeID: "a"})
	assert.ErrorContains(t, got, "disk full")
}

func TestSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	NewSlog(logger, slog.LevelInfo).Record(context.Background(), Entry{NodeID: "task-a", Output: "done"})

	out := buf.String()
	assert.Contains(t, out, `"nodeID":"task-a"`)
	assert.Contains(t, out, `"output":"done"`)
}

func TestMulti(t *testing.T) {
	first, second := NewMemory(), NewMemory()
	sink := Multi(first, nil, second, Discard)
	sink.Record(context.Background(), Entry{NodeID: "n"})

	assert.Equal(t, []string{"n"}, first.NodeIDs())
	assert.Equal(t, []string{"n"}, second.NodeIDs())
}
