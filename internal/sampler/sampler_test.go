package sampler

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/patterngrid/internal/crate"
	"github.com/vk/patterngrid/internal/environment"
	"github.com/vk/patterngrid/internal/factorgraph"
	"github.com/vk/patterngrid/internal/pattern"
	"github.com/vk/patterngrid/internal/sampling"
	"github.com/vk/patterngrid/internal/testutil"
)

func newSong(t *testing.T, opts ...Option) *Sampler {
	t.Helper()
	g := testutil.SongGraph(t)
	s, err := New(g, environment.New(g), opts...)
	require.NoError(t, err)
	return s
}

func TestNew_RejectsForeignEnvironment(t *testing.T) {
	g := testutil.SongGraph(t)
	_, err := New(g, environment.New(testutil.ChordGraph(t)))
	assert.Error(t, err)
	_, err = New(g, nil)
	assert.Error(t, err)
}

func TestSampleVariationSync_VariationLength(t *testing.T) {
	s := newSong(t, WithSeed(1))

	_, err := s.SampleVariationSync(context.Background())
	require.NoError(t, err)

	assert.Len(t, s.Variation(), s.Graph().NumVariables())
	assert.Equal(t, s.Variation(), s.Environment().StagingVariation())
	assert.True(t, s.Graph().InDomain(s.Variation()))

	chords, ok := s.Instance("Chords")
	require.True(t, ok)
	assert.Len(t, chords.Variation(), chords.Graph().NumVariables())
	assert.Equal(t, chords.Variation(), chords.Environment().StagingVariation())
	_, ok = s.Instance("Drums")
	assert.False(t, ok)
}

func TestSampleVariationSync_WiresInstancesBothWays(t *testing.T) {
	ctx := context.Background()
	s := newSong(t, WithStrategy(sampling.Maximize))
	chords, _ := s.Instance("Chords")

	score, err := s.SampleVariationSync(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 14.0, score, 1e-9)
	assert.Equal(t, []int32{7, 7}, s.Variation())

	// Instances sample before the parent sweeps, so they saw the initial notes.
	root, _ := chords.Environment().IntBlock("root")
	assert.Equal(t, []int32{0, 0}, root)
	assert.Equal(t, []int32{0, 0}, chords.Variation())
	tones, _ := s.Environment().IntBlock("Chords.tones.Target")
	assert.Equal(t, []int32{0, 0}, tones)

	level, _ := chords.Environment().FloatBlock("level")
	assert.Equal(t, []float32{0.25}, level)
	mix, _ := s.Environment().FloatBlock("Chords.level_out.Target")
	assert.Equal(t, []float32{0.5}, mix)

	_, err = s.SampleVariationSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 7}, root)
	assert.Equal(t, []int32{7, 7}, chords.Variation())
	assert.Equal(t, []int32{7, 7}, chords.Environment().StagingVariation())
	assert.Equal(t, []int32{7, 7}, tones)
}

func TestSampleVariationSync_MaximizeIsDeterministic(t *testing.T) {
	ctx := context.Background()
	a := newSong(t, WithStrategy(sampling.Maximize), WithSeed(1))
	b := newSong(t, WithStrategy(sampling.Maximize), WithSeed(99))
	assert.Equal(t, sampling.Maximize, a.Strategy())
	assert.Equal(t, sampling.Sample, newSong(t).Strategy())

	for range 3 {
		sa, err := a.SampleVariationSync(ctx)
		require.NoError(t, err)
		sb, err := b.SampleVariationSync(ctx)
		require.NoError(t, err)
		assert.Equal(t, sa, sb)
		assert.Equal(t, a.Variation(), b.Variation())
	}
}

func TestSampleVariationSync_SeededSampling(t *testing.T) {
	ctx := context.Background()
	run := func() []int32 {
		s := newSong(t, WithSeed(7))
		for range 4 {
			_, err := s.SampleVariationSync(ctx)
			require.NoError(t, err)
		}
		chords, _ := s.Instance("Chords")
		root, _ := chords.Environment().IntBlock("root")
		assert.Equal(t, root, chords.Variation(), "hard constraints hold under sampling")
		return s.Variation()
	}
	assert.Equal(t, run(), run())
}

func TestSampleVariationSync_RespectsMask(t *testing.T) {
	s := newSong(t, WithStrategy(sampling.Maximize))
	env := s.Environment()
	require.NoError(t, env.SetStagingVariation([]int32{3, 4}))
	require.NoError(t, env.SetResampleMask([]bool{false, true}))

	_, err := s.SampleVariationSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 7}, s.Variation())
}

func TestSampleVariationAsync_SingleFlight(t *testing.T) {
	ctx, logs := testutil.LoggedContext()
	exec := testutil.NewGatedExecutor()
	s := newSong(t, WithStrategy(sampling.Maximize), WithExecutor(exec))

	assert.False(t, s.IsSamplingVariation())
	require.NoError(t, s.SampleVariationAsync(ctx))
	assert.True(t, s.IsSamplingVariation())

	score, done, err := s.ScoreIfDoneSampling()
	assert.False(t, done)
	assert.Zero(t, score)
	assert.NoError(t, err)

	score, err = s.SampleVariationSync(ctx)
	assert.ErrorIs(t, err, ErrConcurrentSampling)
	assert.Zero(t, score)
	assert.ErrorIs(t, s.SampleVariationAsync(ctx), ErrConcurrentSampling)
	var m sampling.Marginals
	_, err = s.SampleVariationAndInferMarginalsSync(ctx, &m)
	assert.ErrorIs(t, err, ErrConcurrentSampling)
	assert.Empty(t, m, "rejected operations do not touch their arguments")
	assert.ErrorIs(t, s.FillCrateWithOutputs(crate.New()), ErrConcurrentSampling)
	assert.Contains(t, logs.String(), "level=ERROR")

	assert.Equal(t, 1, exec.Submits())
	assert.Equal(t, []int32{0, 0}, s.Variation(), "rejected operations do not sample")

	exec.Open()
	var got float64
	var gotErr error
	require.Eventually(t, func() bool {
		var ok bool
		got, ok, gotErr = s.ScoreIfDoneSampling()
		return ok
	}, testTimeout, testTick)
	require.NoError(t, gotErr)
	assert.InDelta(t, 14.0, got, 1e-9)
	// The executor counts a job after it returns, which may trail the result.
	require.Eventually(t, func() bool { return exec.Finished() == 1 }, testTimeout, testTick)

	assert.False(t, s.IsSamplingVariation())
	_, done, _ = s.ScoreIfDoneSampling()
	assert.False(t, done, "a result is delivered once")

	assert.Equal(t, []int32{7, 7}, s.Variation())
	_, err = s.SampleVariationSync(ctx)
	assert.NoError(t, err)
}

func TestSampleVariationAsync_OnPool(t *testing.T) {
	s := newSong(t, WithStrategy(sampling.Maximize))
	require.NoError(t, s.SampleVariationAsync(context.Background()))
	require.Eventually(t, func() bool {
		_, done, _ := s.ScoreIfDoneSampling()
		return done
	}, testTimeout, testTick)
	assert.Equal(t, []int32{7, 7}, s.Environment().StagingVariation())
}

func TestSampleVariationAndInferMarginalsSync(t *testing.T) {
	s := newSong(t, WithSeed(3))
	m := sampling.Marginals{{1}, {1}, {1}, {1}, {1}}

	_, err := s.SampleVariationAndInferMarginalsSync(context.Background(), &m)
	require.NoError(t, err)
	require.Len(t, m, 2)
	for i, row := range m {
		require.Len(t, row, 8)
		sum := 0.0
		for _, p := range row {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "variable %d", i)
	}
	assert.Greater(t, m[0][7], m[0][0])

	probs, err := s.ConditionalProbabilities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(m, probs, cmpopts.EquateApprox(0, 1e-12)))
}

func TestSetColumnsFromOutputs(t *testing.T) {
	ctx := context.Background()
	s := newSong(t, WithStrategy(sampling.Maximize))
	_, err := s.SampleVariationSync(ctx)
	require.NoError(t, err)
	_, err = s.SampleVariationSync(ctx)
	require.NoError(t, err)

	data := pattern.NewData()
	data.Tracks["Stale"] = &pattern.Track{Columns: make([]pattern.Column, 1)}
	data.Tracks["Lead"] = &pattern.Track{Columns: []pattern.Column{{Notes: make([]int32, 2, 16)}}}
	reused := &data.Tracks["Lead"].Columns[0].Notes[0]

	require.NoError(t, s.SetColumnsFromOutputs(data))
	want := map[string]*pattern.Track{
		"Lead": {Columns: []pattern.Column{
			{Notes: []int32{7, 7}},
			{Instruments: []int32{7, 7}},
		}},
	}
	assert.Empty(t, cmp.Diff(want, data.Tracks))
	assert.Same(t, reused, &data.Tracks["Lead"].Columns[0].Notes[0], "previous arrays are reused")

	first := data.Revision
	before := *data
	before.Tracks = map[string]*pattern.Track{"Lead": {Columns: append([]pattern.Column(nil), data.Tracks["Lead"].Columns...)}}
	require.NoError(t, s.SetColumnsFromOutputs(data))
	assert.Empty(t, cmp.Diff(before, *data, cmpopts.IgnoreFields(pattern.Data{}, "Revision")), "projection is idempotent")
	assert.NotEqual(t, first, data.Revision)
}

func TestFillCrateWithOutputs(t *testing.T) {
	s := newSong(t, WithStrategy(sampling.Maximize))
	_, err := s.SampleVariationSync(context.Background())
	require.NoError(t, err)

	c := crate.New()
	c.IntBlocks["old"] = []int32{1}
	require.NoError(t, s.FillCrateWithOutputs(c))

	assert.Equal(t, map[string][]int32{
		"Lead.Note":          {7, 7},
		"Lead.Instrument[1]": {0, 0},
		"misc":               {5},
	}, c.IntBlocks)
	assert.Equal(t, map[string][]float32{"Mix.level": {0.5}}, c.FloatBlocks)
}

func TestSampleVariationSync_UngratifiableIsReported(t *testing.T) {
	b := factorgraph.NewBuilder("stuck")
	x := b.AddVariables("x", 1, 0, 2)
	b.AddFactor(&factorgraph.FuncFactor{
		Vars: factorgraph.BlockIndices(x),
		Hard: true,
		Fn:   func(*factorgraph.Context) float64 { return -1 },
	})
	g, err := b.Build()
	require.NoError(t, err)
	s, err := New(g, environment.New(g), WithSeed(5))
	require.NoError(t, err)

	ctx, logs := testutil.LoggedContext()
	score, err := s.SampleVariationSync(ctx)
	require.NoError(t, err)
	assert.True(t, math.IsInf(score, -1))
	assert.True(t, g.InDomain(s.Variation()))
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "graph=stuck")
}

func TestSampleVariationAndInferMarginalsSync_NilMarginals(t *testing.T) {
	s := newSong(t, WithSeed(3))

	_, err := s.SampleVariationAndInferMarginalsSync(context.Background(), nil)
	require.ErrorContains(t, err, "nil marginals")

	_, err = s.SampleVariationSync(context.Background())
	assert.NoError(t, err, "a rejected call releases the sampler")
}

func TestConditionalProbabilities_LeavesOutputsUntouched(t *testing.T) {
	ctx := context.Background()
	s := newSong(t, WithStrategy(sampling.Maximize))
	for range 2 {
		_, err := s.SampleVariationSync(ctx)
		require.NoError(t, err)
	}

	before := crate.New()
	require.NoError(t, s.FillCrateWithOutputs(before))
	require.Equal(t, []int32{7, 7}, before.IntBlocks["Lead.Instrument[1]"])
	variation := s.Variation()

	_, err := s.ConditionalProbabilities(ctx)
	require.NoError(t, err)

	after := crate.New()
	require.NoError(t, s.FillCrateWithOutputs(after))
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("crate changed (-before +after):\n%s", diff)
	}
	assert.Equal(t, variation, s.Variation())
}

func TestSampleVariationAsync_PanicIsReported(t *testing.T) {
	b := factorgraph.NewBuilder("broken")
	x := b.AddVariables("x", 1, 0, 2)
	b.AddFactor(&factorgraph.FuncFactor{
		Vars:   factorgraph.BlockIndices(x),
		Weight: 1,
		Fn:     func(*factorgraph.Context) float64 { panic("factor exploded") },
	})
	g, err := b.Build()
	require.NoError(t, err)
	exec := testutil.NewGatedExecutor()
	s, err := New(g, environment.New(g), WithSeed(1), WithExecutor(exec))
	require.NoError(t, err)

	ctx, logs := testutil.LoggedContext()
	require.NoError(t, s.SampleVariationAsync(ctx))
	exec.Open()

	var score float64
	var gotErr error
	require.Eventually(t, func() bool {
		var done bool
		score, done, gotErr = s.ScoreIfDoneSampling()
		return done
	}, testTimeout, testTick)
	require.ErrorIs(t, gotErr, ErrSamplingPanicked)
	assert.Contains(t, gotErr.Error(), "factor exploded")
	assert.Zero(t, score)
	assert.Contains(t, logs.String(), "Asynchronous sampling panicked.")
	assert.False(t, s.IsSamplingVariation())
}
