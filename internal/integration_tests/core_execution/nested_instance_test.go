package integration_tests

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/patterngrid/internal/app"
	"github.com/vk/patterngrid/internal/testutil"
)

func runSong(t *testing.T, cfg app.Config) app.Result {
	t.Helper()
	cfg.GraphPath = testutil.WriteSong(t)
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)
	testApp, out, _ := app.SetupAppTest(t, appConfig)

	require.NoError(t, testApp.Run(context.Background()))

	var result app.Result
	require.NoError(t, json.Unmarshal([]byte(out.String()), &result))
	return result
}

// Test for: nested instance values flow back through Target parameters
func TestCoreExecution_NestedInstance_FollowsParentRoots(t *testing.T) {
	t.Parallel()

	for seed := uint64(1); seed <= 5; seed++ {
		// Instances are sampled before the parent sweep, so the chords of the
		// last pass follow the notes the previous pass ended with.
		previous := runSong(t, app.Config{Strategy: "sample", Seed: seed, Iterations: 2})
		result := runSong(t, app.Config{Strategy: "sample", Seed: seed, Iterations: 3})

		require.Len(t, result.Crate.IntBlocks["Lead.Note"], 2)
		assert.Equal(t, result.Variation, result.Crate.IntBlocks["Lead.Note"], "seed %d", seed)
		assert.Equal(t, previous.Variation, result.Crate.IntBlocks["Lead.Instrument[1]"], "seed %d", seed)
		assert.Equal(t, []float32{0.5}, result.Crate.FloatBlocks["Mix.level"])
	}
}

// Test for: the same seed yields the same pattern
func TestCoreExecution_SameSeed_IsDeterministic(t *testing.T) {
	t.Parallel()

	cfg := app.Config{Strategy: "sample", Seed: 99, Iterations: 4}
	first := runSong(t, cfg)
	second := runSong(t, cfg)

	assert.Equal(t, first.Variation, second.Variation)
	assert.Equal(t, first.Crate, second.Crate)
	assert.NotEqual(t, first.Pattern.Revision, second.Pattern.Revision, "every projection gets a new revision")
}

// Test for: asynchronous sampling on the worker pool matches synchronous sampling
func TestCoreExecution_AsyncMatchesSync(t *testing.T) {
	t.Parallel()

	syncResult := runSong(t, app.Config{Strategy: "sample", Seed: 11, Iterations: 3, WorkerCount: 4})
	asyncResult := runSong(t, app.Config{Strategy: "sample", Seed: 11, Iterations: 3, WorkerCount: 4, Async: true})

	assert.Equal(t, syncResult.Variation, asyncResult.Variation)
	assert.Equal(t, syncResult.Crate, asyncResult.Crate)
}
