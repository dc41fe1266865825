package sampling

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/patterngrid/internal/factorgraph"
)

// linearGraph has n variables in [0, 3], each rewarded by its own value.
func linearGraph(t *testing.T, n int, weight float64) *factorgraph.Graph {
	t.Helper()
	b := factorgraph.NewBuilder("linear")
	x := b.AddVariables("x", n, 0, 3)
	for i := range n {
		b.AddFactor(&factorgraph.FuncFactor{
			Vars:   []int{x.Offset + i},
			Weight: weight,
			Fn:     func(ctx *factorgraph.Context) float64 { return float64(ctx.Variation[i]) },
		})
	}
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func newUtils(g *factorgraph.Graph, strategy Strategy, seed uint64) (*Utils, *factorgraph.Context) {
	ctx := &factorgraph.Context{Variation: g.MinimumVariation()}
	return NewUtils(g, ctx, strategy, seed), ctx
}

func TestComputeConditionalDistribution_Softmax(t *testing.T) {
	g := linearGraph(t, 1, 1)
	u, ctx := newUtils(g, Sample, 1)
	ctx.Variation[0] = 2

	dist, ok := u.ComputeConditionalDistribution(0, nil)
	require.True(t, ok)
	require.Len(t, dist, 4)

	z := 1 + math.E + math.Pow(math.E, 2) + math.Pow(math.E, 3)
	for k, p := range dist {
		assert.InDelta(t, math.Exp(float64(k))/z, p, 1e-12)
	}
	assert.Equal(t, int32(2), ctx.Variation[0], "value is restored")
}

func TestComputeConditionalDistribution_SumsToOne(t *testing.T) {
	for _, weight := range []float64{0, 0.5, 40, 900} {
		u, _ := newUtils(linearGraph(t, 3, weight), Sample, 7)
		for i := range 3 {
			dist, ok := u.ComputeConditionalDistribution(i, nil)
			require.True(t, ok)
			sum := 0.0
			for _, p := range dist {
				require.False(t, math.IsNaN(p))
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-9, "weight %v variable %d", weight, i)
		}
	}
}

func TestComputeConditionalDistribution_HardConstraints(t *testing.T) {
	b := factorgraph.NewBuilder("hard")
	b.AddVariables("x", 1, 0, 3)
	b.AddFactor(&factorgraph.FuncFactor{
		Vars: []int{0},
		Hard: true,
		Fn:   func(ctx *factorgraph.Context) float64 { return float64(ctx.Variation[0] - 2) },
	})
	g, err := b.Build()
	require.NoError(t, err)
	u, _ := newUtils(g, Sample, 1)

	dist, ok := u.ComputeConditionalDistribution(0, nil)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 0, 0.5, 0.5}, dist)
}

func TestSampleVariation_UngratifiableFallsBackToUniform(t *testing.T) {
	b := factorgraph.NewBuilder("impossible")
	b.AddVariables("x", 1, 0, 3)
	b.AddFactor(&factorgraph.FuncFactor{
		Vars: []int{0},
		Fn:   func(*factorgraph.Context) float64 { return math.NaN() },
	})
	g, err := b.Build()
	require.NoError(t, err)
	u, ctx := newUtils(g, Sample, 3)

	dist, ok := u.ComputeConditionalDistribution(0, nil)
	assert.False(t, ok)
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, dist)
	assert.Zero(t, u.Ungratifiable(), "computing alone does not count")

	u.SampleVariation([]bool{true})
	assert.Equal(t, 1, u.Ungratifiable())
	assert.True(t, g.InDomain(ctx.Variation))
}

func TestSampleVariation_Maximize(t *testing.T) {
	g := linearGraph(t, 4, 1)
	u, ctx := newUtils(g, Maximize, 0)

	score := u.SampleVariation([]bool{true, true, false, true})
	assert.Equal(t, []int32{3, 3, 0, 3}, ctx.Variation, "masked-out variable keeps its value")
	assert.InDelta(t, 9.0, score, 1e-12)
	assert.InDelta(t, g.Score(ctx), score, 1e-12)
}

func TestSampleVariation_MaximizeTiesPickLowest(t *testing.T) {
	g := linearGraph(t, 2, 0)
	u, ctx := newUtils(g, Maximize, 0)
	ctx.Variation[0], ctx.Variation[1] = 3, 2

	u.SampleVariation([]bool{true, true})
	assert.Equal(t, []int32{0, 0}, ctx.Variation)
}

func TestSampleVariation_SeededDeterminism(t *testing.T) {
	g := linearGraph(t, 16, 0.3)
	mask := make([]bool, 16)
	for i := range mask {
		mask[i] = true
	}

	run := func(seed uint64) []int32 {
		u, ctx := newUtils(g, Sample, seed)
		u.SampleVariation(mask)
		u.SampleVariation(mask)
		return ctx.Variation
	}
	assert.Equal(t, run(42), run(42))
	assert.True(t, g.InDomain(run(9)))
}

func TestSampleVariationAndInferMarginals(t *testing.T) {
	g := linearGraph(t, 3, 1)
	u, ctx := newUtils(g, Maximize, 0)

	var m Marginals
	m.Resize(3)
	score := u.SampleVariationAndInferMarginals([]bool{true, false, true}, m)

	assert.Equal(t, []int32{3, 0, 3}, ctx.Variation)
	assert.InDelta(t, 6.0, score, 1e-12)
	for i, row := range m {
		require.Len(t, row, 4, "variable %d", i)
		sum := 0.0
		for _, p := range row {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
	assert.NotSame(t, &m[0][0], &m[2][0], "rows are independent")

	probs := u.ConditionalProbabilities()
	assert.Equal(t, m, probs)
}

func TestMarginals_Resize(t *testing.T) {
	m := Marginals{{1}, {0.5, 0.5}}
	m.Resize(1)
	assert.Equal(t, Marginals{{1}}, m)
	m.Resize(3)
	assert.Len(t, m, 3)
	assert.Equal(t, []float64{1}, m[0])
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("Maximize")
	require.NoError(t, err)
	assert.Equal(t, Maximize, s)
	assert.Equal(t, "maximize", s.String())

	s, err = ParseStrategy(" sample ")
	require.NoError(t, err)
	assert.Equal(t, Sample, s)

	_, err = ParseStrategy("anneal")
	assert.Error(t, err)
}
