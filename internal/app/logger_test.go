package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)
	logger.Info("dropped")
	logger.Warn("kept", "nodeID", "a")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "a", record["nodeID"])

	buf.Reset()
	newLogger("nonsense", "text", &buf).Info("fallback")
	assert.Contains(t, buf.String(), "level=INFO msg=fallback")
}
