package app

import (
	"os"
	"testing"

	"github.com/vk/patterngrid/internal/hcl_adapter"
	"github.com/vk/patterngrid/internal/registry"
	"github.com/vk/patterngrid/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. It returns the
// app along with buffers capturing its output and its logs.
func SetupAppTest(t *testing.T, cfg *Config, modules ...registry.Module) (*App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()

	outBuffer := &testutil.SafeBuffer{}
	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp := NewApp(outBuffer, logBuffer, cfg, hcl_adapter.NewLoader(), modules...)

	t.Cleanup(func() {
		if os.Getenv("PATTERNGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, outBuffer, logBuffer
}
