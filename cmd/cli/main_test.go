package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/gridflow/internal/cli"
	"github.com/stretchr/testify/require"
)

func TestRun_InvalidDefinition(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	invalidHCL := `
		task "a" {
			func = "describe"
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{"validate", filePath, "--log-level", "error"}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), strings.NewReader(""), out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should fail on a definition that does not parse")
	require.Contains(t, runErr.Error(), "failed to parse")
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), strings.NewReader(""), out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when printing help")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), strings.NewReader(""), out, &bytes.Buffer{}, args)

	// --- Assert ---
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_Workflow(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "main.hcl"), []byte(`
task "seed" {
  func   = "constant"
  params = { value = "hello" }
}

task "approve" {
  mode       = "manual"
  depends_on = ["seed"]
}

task "shout" {
  func       = "describe"
  depends_on = ["approve"]
}
`), 0600))

	args := []string{"run", tempDir, "--log-level", "error", "--store", filepath.Join(tempDir, "store")}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), strings.NewReader("yes\n"), out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "input: hello")
	require.Contains(t, out.String(), "shout [done] = Output of shout derived from yes")
}
