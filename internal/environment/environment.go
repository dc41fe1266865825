// Package environment holds the mutable state attached to one instance of a
// factor graph: the staging area that outside consumers read and write, and
// the working mask and parameters a sampler reads while it sweeps.
package environment

import (
	"fmt"
	"sync"

	"github.com/vk/patterngrid/internal/factorgraph"
)

// stagingArea is the authoritative copy of the environment's state outside of
// sampling operations.
type stagingArea struct {
	variation []int32
	mask      []bool
	ints      []int32
	floats    []float32
}

// Environment is the shared, mutable state of one graph instance. Nested
// instance environments are created with it and owned by it.
//
// The staging area is safe for concurrent use. The working mask and
// parameters belong to whichever sampler currently runs on the environment.
type Environment struct {
	graph *factorgraph.Graph

	mu      sync.Mutex
	staging stagingArea

	mask   []bool
	ints   []int32
	floats []float32

	instances map[string]*Environment
}

// New creates an environment for the graph, and recursively one for every
// nested instance. The staging variation starts at each variable's lower
// bound, every variable may be resampled and parameters hold their defaults.
func New(g *factorgraph.Graph) *Environment {
	n := g.NumVariables()
	e := &Environment{
		graph: g,
		staging: stagingArea{
			variation: g.MinimumVariation(),
			mask:      make([]bool, n),
			ints:      g.IntDefaults(),
			floats:    g.FloatDefaults(),
		},
		mask:      make([]bool, n),
		ints:      g.IntDefaults(),
		floats:    g.FloatDefaults(),
		instances: make(map[string]*Environment, len(g.Instances())),
	}
	for i := range e.staging.mask {
		e.staging.mask[i] = true
		e.mask[i] = true
	}
	for _, inst := range g.Instances() {
		e.instances[inst.Name] = New(inst.Graph)
	}
	return e
}

// Graph returns the graph the environment was created for.
func (e *Environment) Graph() *factorgraph.Graph {
	return e.graph
}

// Instance returns the environment of a nested instance.
func (e *Environment) Instance(name string) (*Environment, bool) {
	inst, ok := e.instances[name]
	return inst, ok
}

// --- Staging area ---

// StagingVariation returns a copy of the staging variation.
func (e *Environment) StagingVariation() []int32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int32(nil), e.staging.variation...)
}

// SetStagingVariation replaces the staging variation. Every value must lie in
// its variable's domain.
func (e *Environment) SetStagingVariation(variation []int32) error {
	if len(variation) != e.graph.NumVariables() {
		return fmt.Errorf("variation has %d values, graph %q has %d variables: %w",
			len(variation), e.graph.Name(), e.graph.NumVariables(), factorgraph.ErrLengthMismatch)
	}
	if !e.graph.InDomain(variation) {
		return fmt.Errorf("variation for graph %q has values outside their domains", e.graph.Name())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.staging.variation, variation)
	return nil
}

// ReturnSampledVariationToStagingArea publishes a freshly sampled variation.
func (e *Environment) ReturnSampledVariationToStagingArea(variation []int32) error {
	if len(variation) != len(e.staging.variation) {
		return fmt.Errorf("sampled variation has %d values, environment holds %d: %w",
			len(variation), len(e.staging.variation), factorgraph.ErrLengthMismatch)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.staging.variation, variation)
	return nil
}

// SetResampleMask replaces the staging resample mask. Variables whose entry
// is false keep their staging value when sampled.
func (e *Environment) SetResampleMask(mask []bool) error {
	if len(mask) != e.graph.NumVariables() {
		return fmt.Errorf("mask has %d entries, graph %q has %d variables: %w",
			len(mask), e.graph.Name(), e.graph.NumVariables(), factorgraph.ErrLengthMismatch)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.staging.mask, mask)
	return nil
}

// SetResampleBlock sets the staging mask entries of one variable block.
func (e *Environment) SetResampleBlock(name string, resample bool) error {
	block, ok := e.graph.VariableBlock(name)
	if !ok {
		return fmt.Errorf("graph %q has no variable block %q: %w", e.graph.Name(), name, factorgraph.ErrUnknownBlock)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := block.Offset; i < block.End(); i++ {
		e.staging.mask[i] = resample
	}
	return nil
}

// StagingMask returns a copy of the staging resample mask.
func (e *Environment) StagingMask() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]bool(nil), e.staging.mask...)
}

// SetStagingIntParameters replaces the staged values of an int parameter block.
func (e *Environment) SetStagingIntParameters(name string, values []int32) error {
	block, err := e.lookup(factorgraph.Int, name, len(values))
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.staging.ints[block.Offset:block.End()], values)
	return nil
}

// SetStagingFloatParameters replaces the staged values of a float parameter block.
func (e *Environment) SetStagingFloatParameters(name string, values []float32) error {
	block, err := e.lookup(factorgraph.Float, name, len(values))
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.staging.floats[block.Offset:block.End()], values)
	return nil
}

func (e *Environment) lookup(t factorgraph.ValueType, name string, n int) (factorgraph.Block, error) {
	block, ok := e.graph.ParameterBlock(t, name)
	if !ok {
		return factorgraph.Block{}, fmt.Errorf("graph %q has no %v parameter block %q: %w", e.graph.Name(), t, name, factorgraph.ErrUnknownBlock)
	}
	if n != block.Size {
		return factorgraph.Block{}, fmt.Errorf("parameter block %q holds %d values, got %d: %w",
			name, block.Size, n, factorgraph.ErrLengthMismatch)
	}
	return block, nil
}

// SetMaskAndParametersFromStagingArea copies the staged resample mask and
// parameters into the working area used by sampling.
func (e *Environment) SetMaskAndParametersFromStagingArea() {
	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.mask, e.staging.mask)
	copy(e.ints, e.staging.ints)
	copy(e.floats, e.staging.floats)
}

// --- Working area ---

// Mask returns the working resample mask. The slice is shared.
func (e *Environment) Mask() []bool {
	return e.mask
}

// IntParameters returns the mutable working view of an int parameter block.
func (e *Environment) IntParameters(b factorgraph.Block) []int32 {
	return e.ints[b.Offset:b.End()]
}

// FloatParameters returns the mutable working view of a float parameter block.
func (e *Environment) FloatParameters(b factorgraph.Block) []float32 {
	return e.floats[b.Offset:b.End()]
}

// IntBlock returns the working values of an int parameter block by name.
func (e *Environment) IntBlock(name string) ([]int32, bool) {
	b, ok := e.graph.ParameterBlock(factorgraph.Int, name)
	if !ok {
		return nil, false
	}
	return e.IntParameters(b), true
}

// FloatBlock returns the working values of a float parameter block by name.
func (e *Environment) FloatBlock(name string) ([]float32, bool) {
	b, ok := e.graph.ParameterBlock(factorgraph.Float, name)
	if !ok {
		return nil, false
	}
	return e.FloatParameters(b), true
}

// Context returns an evaluation context over the given variation and the
// working parameters.
func (e *Environment) Context(variation []int32) *factorgraph.Context {
	return &factorgraph.Context{
		Variation:   variation,
		IntParams:   e.ints,
		FloatParams: e.floats,
	}
}
