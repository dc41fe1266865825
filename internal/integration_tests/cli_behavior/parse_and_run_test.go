package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/patterngrid/internal/app"
	"github.com/vk/patterngrid/internal/cli"
	"github.com/vk/patterngrid/internal/hcl_adapter"
	"github.com/vk/patterngrid/internal/testutil"
)

// Test for: flags flow from the command line into a run
func TestCLI_ParsedFlags_DriveTheRun(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := testutil.WriteSong(t)
	cfg, shouldExit, err := cli.Parse([]string{
		"--mode=maximize", "--seed=3", "--iterations=2", "--format=json", "--log-level=debug", path,
	}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, shouldExit)

	out, logs := &testutil.SafeBuffer{}, &testutil.SafeBuffer{}
	a := app.NewApp(out, logs, cfg, hcl_adapter.NewLoader())

	// --- Act ---
	err = a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	var result app.Result
	require.NoError(t, json.Unmarshal([]byte(out.String()), &result))
	require.Equal(t, uint64(3), result.Seed)
	require.Equal(t, "maximize", result.Strategy)
	require.Contains(t, logs.String(), `"level":"DEBUG"`, "log format defaults to json")
}
