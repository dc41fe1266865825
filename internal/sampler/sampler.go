package sampler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/vk/patterngrid/internal/ctxlog"
	"github.com/vk/patterngrid/internal/environment"
	"github.com/vk/patterngrid/internal/executor"
	"github.com/vk/patterngrid/internal/factorgraph"
	"github.com/vk/patterngrid/internal/metrics"
	"github.com/vk/patterngrid/internal/sampling"
	"github.com/vk/patterngrid/internal/task"
)

// ErrConcurrentSampling is returned when a sampling operation is requested
// while another one on the same Sampler has not finished or has not been
// collected.
var ErrConcurrentSampling = errors.New("sampler: another sampling operation is pending")

// ErrSamplingPanicked is returned by ScoreIfDoneSampling when the scheduled
// operation panicked.
var ErrSamplingPanicked = errors.New("sampler: asynchronous sampling panicked")

type result struct {
	score float64
	err   error
}

// Sampler samples variations of one graph instance and its nested instances.
type Sampler struct {
	graph     *factorgraph.Graph
	env       *environment.Environment
	variation []int32
	ctx       *factorgraph.Context
	utils     *sampling.Utils
	executor  task.Submitter

	instances []*instanceSampler
	byName    map[string]*Sampler

	mu      sync.Mutex
	busy    bool
	pending *task.Future[result]
}

// New creates a Sampler for g operating on env, which must have been created
// for g. Nested samplers are created for every instance of g and bound to the
// matching nested environments.
func New(g *factorgraph.Graph, env *environment.Environment, opts ...Option) (*Sampler, error) {
	o := options{strategy: sampling.Sample}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = rand.Uint64()
	}
	return newSampler(g, env, o)
}

func newSampler(g *factorgraph.Graph, env *environment.Environment, o options) (*Sampler, error) {
	if env == nil || env.Graph() != g {
		return nil, fmt.Errorf("sampler for graph %q needs an environment created for the same graph", g.Name())
	}
	s := &Sampler{
		graph:     g,
		env:       env,
		variation: env.StagingVariation(),
		executor:  o.executor,
		byName:    make(map[string]*Sampler, len(g.Instances())),
	}
	s.ctx = env.Context(s.variation)
	s.utils = sampling.NewUtils(g, s.ctx, o.strategy, o.seed)

	for i, inst := range g.Instances() {
		childEnv, ok := env.Instance(inst.Name)
		if !ok {
			return nil, fmt.Errorf("environment of graph %q has no instance %q", g.Name(), inst.Name)
		}
		childOpts := o
		childOpts.seed = o.seed + uint64(i+1)*0x9e3779b97f4a7c15
		child, err := newSampler(inst.Graph, childEnv, childOpts)
		if err != nil {
			return nil, fmt.Errorf("instance %q: %w", inst.Name, err)
		}
		is := &instanceSampler{name: inst.Name, sampler: child}
		resolveWiring(g, is)
		s.instances = append(s.instances, is)
		s.byName[inst.Name] = child
	}
	return s, nil
}

// Graph returns the sampled graph.
func (s *Sampler) Graph() *factorgraph.Graph { return s.graph }

// Environment returns the environment the sampler reads and publishes to.
func (s *Sampler) Environment() *environment.Environment { return s.env }

// Strategy returns the sweep strategy.
func (s *Sampler) Strategy() sampling.Strategy { return s.utils.Strategy() }

// Instance returns the sampler of a nested instance.
func (s *Sampler) Instance(name string) (*Sampler, bool) {
	child, ok := s.byName[name]
	return child, ok
}

// Variation returns a copy of the current variation. It must not be called
// while IsSamplingVariation reports true.
func (s *Sampler) Variation() []int32 {
	return append([]int32(nil), s.variation...)
}

// --- Sampling operations ---

// SampleVariationSync samples a new variation on the calling goroutine and
// returns its score. It fails with ErrConcurrentSampling, and does nothing,
// while an asynchronous operation is pending.
func (s *Sampler) SampleVariationSync(ctx context.Context) (float64, error) {
	if err := s.begin(ctx, "sync"); err != nil {
		return 0, err
	}
	defer s.end()
	return s.sample(ctx, "sync", nil)
}

// SampleVariationAsync schedules sampling on the executor. The result is
// collected with ScoreIfDoneSampling. The operation keeps the loggers of ctx
// but is not cancelled with it.
func (s *Sampler) SampleVariationAsync(ctx context.Context) error {
	if err := s.begin(ctx, "async"); err != nil {
		return err
	}
	defer s.end()

	exec := s.executor
	if exec == nil {
		exec = executor.Shared()
	}
	detached := context.WithoutCancel(ctx)
	f, err := task.Submit(exec, func() (r result) {
		defer func() {
			if p := recover(); p != nil {
				ctxlog.FromContext(detached).Error("Asynchronous sampling panicked.", "graph", s.graph.Name(), "panic", p)
				r = result{err: fmt.Errorf("%w: %v", ErrSamplingPanicked, p)}
			}
		}()
		score, err := s.sample(detached, "async", nil)
		return result{score: score, err: err}
	})
	if err != nil {
		return fmt.Errorf("scheduling sampling of graph %q: %w", s.graph.Name(), err)
	}

	s.mu.Lock()
	s.pending = f
	s.mu.Unlock()
	return nil
}

// IsSamplingVariation reports whether an asynchronous result has not been
// collected yet.
func (s *Sampler) IsSamplingVariation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// ScoreIfDoneSampling collects a finished asynchronous result. done is false
// when nothing is pending or the work is still running. A result is returned
// exactly once.
func (s *Sampler) ScoreIfDoneSampling() (score float64, done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return 0, false, nil
	}
	r, ok := s.pending.Take()
	if !ok {
		return 0, false, nil
	}
	s.pending = nil
	return r.score, true, r.err
}

// SampleVariationAndInferMarginalsSync samples like SampleVariationSync and
// fills marginals with the distribution every variable was drawn from.
func (s *Sampler) SampleVariationAndInferMarginalsSync(ctx context.Context, marginals *sampling.Marginals) (float64, error) {
	if err := s.begin(ctx, "marginals"); err != nil {
		return 0, err
	}
	defer s.end()
	if marginals == nil {
		return 0, fmt.Errorf("sampling graph %q: nil marginals", s.graph.Name())
	}
	marginals.Resize(len(s.variation))
	return s.sample(ctx, "marginals", marginals)
}

// ConditionalProbabilities refreshes the variation from the environment and
// returns the conditional distribution of every variable without sampling.
// The working mask and parameters, including Target blocks filled by the last
// sweep, are left as they are.
func (s *Sampler) ConditionalProbabilities(ctx context.Context) (sampling.Marginals, error) {
	if err := s.begin(ctx, "probabilities"); err != nil {
		return nil, err
	}
	defer s.end()
	s.refreshVariation()
	return s.utils.ConditionalProbabilities(), nil
}

// begin claims the sampler for one operation.
func (s *Sampler) begin(ctx context.Context, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy || s.pending != nil {
		ctxlog.FromContext(ctx).Error("Sampling requested while another operation is pending.",
			"graph", s.graph.Name(), "kind", kind)
		metrics.RecordConcurrentViolation(s.graph.Name())
		return ErrConcurrentSampling
	}
	s.busy = true
	return nil
}

func (s *Sampler) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Sampler) refreshVariation() {
	copy(s.variation, s.env.StagingVariation())
}

// sample is one complete top-level operation: copy-in from the staging area,
// instance recursion, sweep and copy-out.
func (s *Sampler) sample(ctx context.Context, kind string, marginals *sampling.Marginals) (float64, error) {
	logger := ctxlog.FromContext(ctx).With("graph", s.graph.Name(), "kind", kind)
	start := time.Now()

	s.env.SetMaskAndParametersFromStagingArea()
	s.refreshVariation()
	score, err := s.run(ctx, marginals)
	if err == nil {
		err = s.env.ReturnSampledVariationToStagingArea(s.variation)
	}

	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordSample(s.Strategy().String(), kind, "error", elapsed.Seconds())
		logger.Error("Sampling failed.", "error", err)
		return 0, err
	}
	metrics.RecordSample(s.Strategy().String(), kind, "success", elapsed.Seconds())
	logger.Debug("Variation sampled.", "score", score, "duration", elapsed)
	return score, nil
}

// run samples every nested instance and then sweeps the sampler's own
// variables. The working mask and parameters must already be in place.
func (s *Sampler) run(ctx context.Context, marginals *sampling.Marginals) (float64, error) {
	for _, inst := range s.instances {
		if err := s.runInstance(ctx, inst); err != nil {
			return 0, err
		}
	}

	before := s.utils.Ungratifiable()
	var score float64
	if marginals != nil {
		score = s.utils.SampleVariationAndInferMarginals(s.env.Mask(), *marginals)
	} else {
		score = s.utils.SampleVariation(s.env.Mask())
	}
	if n := s.utils.Ungratifiable() - before; n > 0 {
		ctxlog.FromContext(ctx).Warn("Variables had no admissible value and were sampled uniformly.",
			"graph", s.graph.Name(), "count", n)
		metrics.RecordUngratifiable(s.graph.Name(), n)
	}
	return score, nil
}

func (s *Sampler) runInstance(ctx context.Context, inst *instanceSampler) error {
	child := inst.sampler
	if err := child.begin(ctx, "instance"); err != nil {
		return fmt.Errorf("instance %q: %w", inst.name, err)
	}
	defer child.end()

	child.env.SetMaskAndParametersFromStagingArea()
	child.refreshVariation()
	for _, w := range inst.forward {
		if err := w.apply(s.ctx, child.env); err != nil {
			return fmt.Errorf("instance %q: %w", inst.name, err)
		}
	}

	score, err := child.run(ctx, nil)
	if err != nil {
		return fmt.Errorf("instance %q: %w", inst.name, err)
	}
	if err := child.env.ReturnSampledVariationToStagingArea(child.variation); err != nil {
		return fmt.Errorf("instance %q: %w", inst.name, err)
	}

	for _, w := range inst.reverse {
		if err := w.apply(child.ctx, s.env); err != nil {
			return fmt.Errorf("instance %q: %w", inst.name, err)
		}
	}
	ctxlog.FromContext(ctx).Debug("Instance sampled.", "graph", s.graph.Name(), "instance", inst.name, "score", score)
	return nil
}
