// Package sampling computes single-variable conditional distributions over a
// factor graph and sweeps a variation with them (sequential Gibbs sampling or
// coordinate-wise maximization).
package sampling

import (
	"math"
	"math/rand/v2"

	"github.com/vk/patterngrid/internal/factorgraph"
)

// Marginals holds one normalized distribution per variable, indexed by flat
// variable index and then by offset from the variable's lower bound.
type Marginals [][]float64

// Resize sets the number of distributions, keeping existing rows.
func (m *Marginals) Resize(n int) {
	if cap(*m) >= n {
		*m = (*m)[:n]
		return
	}
	grown := make(Marginals, n)
	copy(grown, *m)
	*m = grown
}

// Utils sweeps the variation held by its context. It is bound to one graph and
// one context for its whole life and is not safe for concurrent use.
type Utils struct {
	graph    *factorgraph.Graph
	ctx      *factorgraph.Context
	strategy Strategy
	rng      *rand.Rand

	scores        []float64
	dist          []float64
	ungratifiable int
}

// NewUtils binds sweeping helpers to a graph and the context whose variation
// they mutate.
func NewUtils(g *factorgraph.Graph, ctx *factorgraph.Context, strategy Strategy, seed uint64) *Utils {
	return &Utils{
		graph:    g,
		ctx:      ctx,
		strategy: strategy,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Strategy returns the strategy the sweeps use.
func (u *Utils) Strategy() Strategy {
	return u.strategy
}

// Ungratifiable reports how many variables so far had no admissible value and
// were drawn from a uniform fallback.
func (u *Utils) Ungratifiable() int {
	return u.ungratifiable
}

// ComputeConditionalDistribution writes into out (resized to the domain) the
// probability of every value of the variable given all other variables. It
// reports false when every value scored -Inf or NaN, in which case out holds
// the uniform distribution. The variable's value is left unchanged.
func (u *Utils) ComputeConditionalDistribution(index int, out []float64) ([]float64, bool) {
	v := u.graph.Variable(index)
	n := v.DomainSize()
	u.scores = resize(u.scores, n)
	out = resize(out, n)

	variation := u.ctx.Variation
	saved := variation[index]
	best := math.Inf(-1)
	for k := range n {
		variation[index] = v.Min + int32(k)
		s := u.graph.LocalScore(u.ctx, index)
		if math.IsNaN(s) {
			s = math.Inf(-1)
		}
		u.scores[k] = s
		if s > best {
			best = s
		}
	}
	variation[index] = saved

	if math.IsInf(best, -1) {
		for k := range out {
			out[k] = 1 / float64(n)
		}
		return out, false
	}
	if math.IsInf(best, 1) {
		// Infinite rewards share the mass evenly.
		total := 0.0
		for k, s := range u.scores {
			if math.IsInf(s, 1) {
				out[k] = 1
				total++
			} else {
				out[k] = 0
			}
		}
		for k := range out {
			out[k] /= total
		}
		return out, true
	}

	total := 0.0
	for k, s := range u.scores {
		out[k] = math.Exp(s - best)
		total += out[k]
	}
	for k := range out {
		out[k] /= total
	}
	return out, true
}

// SampleVariation sweeps every variable in flat index order and returns the
// joint score of the resulting variation. Variables whose mask entry is false
// keep their value.
func (u *Utils) SampleVariation(mask []bool) float64 {
	for i := range u.ctx.Variation {
		if !mask[i] {
			continue
		}
		u.dist = u.sweepOne(i, u.dist)
	}
	return u.graph.Score(u.ctx)
}

// SampleVariationAndInferMarginals sweeps like SampleVariation and stores the
// distribution every variable was drawn from in marginals, which must already
// hold one row per variable. Masked-out variables get the distribution at
// their current value.
func (u *Utils) SampleVariationAndInferMarginals(mask []bool, marginals Marginals) float64 {
	for i := range u.ctx.Variation {
		if !mask[i] {
			marginals[i], _ = u.ComputeConditionalDistribution(i, marginals[i])
			continue
		}
		marginals[i] = u.sweepOne(i, marginals[i])
	}
	return u.graph.Score(u.ctx)
}

// ConditionalProbabilities computes the distribution of every variable at the
// current variation without changing it.
func (u *Utils) ConditionalProbabilities() Marginals {
	out := make(Marginals, len(u.ctx.Variation))
	for i := range out {
		out[i], _ = u.ComputeConditionalDistribution(i, nil)
	}
	return out
}

func (u *Utils) sweepOne(index int, dst []float64) []float64 {
	dst, ok := u.ComputeConditionalDistribution(index, dst)
	if !ok {
		u.ungratifiable++
	}
	u.ctx.Variation[index] = u.graph.Variable(index).Min + int32(u.pick(dst))
	return dst
}

func (u *Utils) pick(dist []float64) int {
	if u.strategy == Maximize {
		best := 0
		for k, p := range dist {
			if p > dist[best] {
				best = k
			}
		}
		return best
	}
	r := u.rng.Float64()
	last := 0
	for k, p := range dist {
		if p <= 0 {
			continue
		}
		last = k
		if r < p {
			return k
		}
		r -= p
	}
	return last
}

func resize(s []float64, n int) []float64 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]float64, n)
}
