package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "workflow", cfg.StoreKey)

	bad := DefaultConfig()
	bad.LogLevel = "loud"
	bad.LogFormat = "xml"
	bad.HealthcheckPort = 70000
	bad.StoreKey = ""
	_, err = NewConfig(bad)
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid LogLevel")
	assert.ErrorContains(t, err, "invalid LogFormat")
	assert.ErrorContains(t, err, "invalid HealthcheckPort")
	assert.ErrorContains(t, err, "invalid StoreKey")
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nstore_key: nightly\n"), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, LoadConfigFile(path, &cfg))
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "nightly", cfg.StoreKey)
	assert.Equal(t, "json", cfg.LogFormat, "keys missing from the file keep their defaults")

	assert.Error(t, LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))

	require.NoError(t, os.WriteFile(path, []byte("log_level: [unclosed\n"), 0o644))
	assert.ErrorContains(t, LoadConfigFile(path, &cfg), "parse config file")
}
