package app

import (
	"bytes"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/specialistvlad/gridflow/internal/handlers"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for system testing. It returns the
// app, its command output and its log output.
func SetupAppTest(t *testing.T, cfg *Config, in io.Reader, modules ...handlers.Module) (*App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	out := &SafeBuffer{}
	logBuffer := &SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp, err := NewApp(Streams{In: in, Out: out, Log: logBuffer}, cfg, modules...)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	t.Cleanup(func() {
		_ = testApp.Close()
		if os.Getenv("GRIDFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, out, logBuffer
}
