package sampler

import (
	"github.com/vk/patterngrid/internal/sampling"
	"github.com/vk/patterngrid/internal/task"
)

type options struct {
	strategy sampling.Strategy
	seed     uint64
	seeded   bool
	executor task.Submitter
}

// Option configures a Sampler.
type Option func(*options)

// WithStrategy selects whether sweeps draw from or maximize the conditional
// distributions. The default is sampling.Sample.
func WithStrategy(s sampling.Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithSeed makes sampling reproducible. Nested instances derive their seeds
// from it. Without a seed every Sampler is seeded randomly.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithExecutor sets the pool asynchronous sampling runs on. The default is
// executor.Shared().
func WithExecutor(e task.Submitter) Option {
	return func(o *options) { o.executor = e }
}
